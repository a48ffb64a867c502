package zendesk

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

type Ticket struct {
	ID          int64     `json:"id"`
	SubmitterID int64     `json:"submitter_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type Comment struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	PlainBody string    `json:"plain_body"`
	Public    bool      `json:"public"`
	CreatedAt time.Time `json:"created_at"`
}

type searchResponse struct {
	Results []Ticket `json:"results"`
	Meta    struct {
		HasMore     bool   `json:"has_more"`
		AfterCursor string `json:"after_cursor"`
	} `json:"meta"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

// SearchTickets walks the cursor-paged search export endpoint and returns
// every ticket created since createdSince, deduplicated by ID. The search
// API can repeat a ticket across page boundaries, so first occurrence wins.
func (c *client) SearchTickets(ctx context.Context, createdSince time.Time) ([]Ticket, error) {
	query := "type:ticket created>" + createdSince.UTC().Format(time.RFC3339)

	var all []Ticket
	afterCursor := ""
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		params := url.Values{}
		params.Set("query", query)
		params.Set("filter[type]", "ticket")
		params.Set("page[size]", "100")
		if afterCursor != "" {
			params.Set("page[after]", afterCursor)
		}

		var page searchResponse
		if err := c.get(ctx, c.cfg.BaseURL+"/search/export?"+params.Encode(), &page); err != nil {
			return nil, fmt.Errorf("search tickets: %w", err)
		}

		all = append(all, page.Results...)
		c.log.Debug("Fetched ticket search page", "count", len(page.Results), "has_more", page.Meta.HasMore)

		if !page.Meta.HasMore || page.Links.Next == "" {
			break
		}
		afterCursor = page.Meta.AfterCursor
	}

	return dedupeTickets(all), nil
}

type incrementalResponse struct {
	Tickets     []Ticket `json:"tickets"`
	EndTime     int64    `json:"end_time"`
	EndOfStream bool     `json:"end_of_stream"`
}

// IncrementalTickets walks the time-window incremental export endpoint,
// advancing start_time to the returned end_time until end_of_stream. Window
// boundaries overlap, so results are deduplicated by ID, and soft-deleted
// tickets are dropped.
func (c *client) IncrementalTickets(ctx context.Context, startTime time.Time) ([]Ticket, error) {
	var all []Ticket
	cursor := startTime.UTC().Unix()
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var page incrementalResponse
		u := c.cfg.BaseURL + "/incremental/tickets.json?start_time=" + strconv.FormatInt(cursor, 10)
		if err := c.get(ctx, u, &page); err != nil {
			return nil, fmt.Errorf("incremental tickets: %w", err)
		}

		for _, t := range page.Tickets {
			if t.Status == "deleted" {
				continue
			}
			all = append(all, t)
		}
		c.log.Debug("Fetched incremental ticket page", "count", len(page.Tickets), "end_of_stream", page.EndOfStream)

		if page.EndOfStream {
			break
		}
		cursor = page.EndTime
	}

	return dedupeTickets(all), nil
}

type commentsResponse struct {
	Comments []Comment `json:"comments"`
}

func (c *client) ListTicketComments(ctx context.Context, ticketID int64) ([]Comment, error) {
	var out commentsResponse
	u := fmt.Sprintf("%s/tickets/%d/comments", c.cfg.BaseURL, ticketID)
	if err := c.get(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("list comments for ticket %d: %w", ticketID, err)
	}
	return out.Comments, nil
}

func dedupeTickets(tickets []Ticket) []Ticket {
	seen := make(map[int64]struct{}, len(tickets))
	out := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}
