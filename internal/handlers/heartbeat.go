package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// heartbeat keeps a chunked response alive while a slow backend call runs by
// writing a newline every interval. The final payload is written after the
// ticker goroutine has stopped, so status is always 200 and errors travel in
// the JSON body, matching what upstream proxies expect from these endpoints.
type heartbeat struct {
	c    *gin.Context
	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

func startHeartbeat(c *gin.Context, interval time.Duration) *heartbeat {
	h := &heartbeat{c: c, done: make(chan struct{})}

	c.Writer.Header().Set("Content-Type", "application/json")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-h.done:
				return
			case <-ticker.C:
				h.mu.Lock()
				_, _ = h.c.Writer.Write([]byte("\n"))
				h.c.Writer.Flush()
				h.mu.Unlock()
			}
		}
	}()
	return h
}

// Finish stops the heartbeat and writes payload as the final chunk.
func (h *heartbeat) Finish(payload any) {
	close(h.done)
	h.wg.Wait()

	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte(`{"error":{"message":"failed to encode response"}}`)
	}
	h.mu.Lock()
	_, _ = h.c.Writer.Write(raw)
	h.c.Writer.Flush()
	h.mu.Unlock()
}
