package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rotabull/supportsync/internal/clients/forge"
	"github.com/rotabull/supportsync/internal/pkg/logger"
	"github.com/rotabull/supportsync/internal/repos"
)

const (
	heartbeatInterval = 5 * time.Second
	articleBaseURL    = "https://support.rotabull.com/docs/"
)

type SuggestHandler struct {
	log   *logger.Logger
	forge forge.Client
	docs  repos.SupportDocRepo
	refs  repos.CollectionRefRepo
}

func NewSuggestHandler(baseLog *logger.Logger, forgeClient forge.Client, docs repos.SupportDocRepo, refs repos.CollectionRefRepo) *SuggestHandler {
	return &SuggestHandler{
		log:   baseLog.With("handler", "SuggestHandler"),
		forge: forgeClient,
		docs:  docs,
		refs:  refs,
	}
}

type suggestRequest struct {
	Subject   string `json:"subject"`
	Requester string `json:"requester"`
	TextBody  string `json:"text_body"`
	HTMLBody  string `json:"html_body"`
}

type suggestResponse struct {
	SuggestedArticles []string `json:"suggested_articles"`
	SuggestedResponse string   `json:"suggested_response"`
}

// POST /suggest
//
// Chains retrieval-augmented queries: two slug lookups against the doc
// collection, a draft answer from the two articles, then a refinement pass
// against the ticket-comment collection. The response is chunked with
// heartbeat newlines because the chain can run for minutes.
func (h *SuggestHandler) Suggest(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, 400, "invalid_request_body", err)
		return
	}

	hb := startHeartbeat(c, heartbeatInterval)
	out, err := h.suggest(c.Request.Context(), req.TextBody)
	if err != nil {
		h.log.Error("Suggest chain failed", "error", err)
		hb.Finish(ErrorEnvelope{Error: APIError{Message: "An error occurred while processing your request"}})
		return
	}
	hb.Finish(out)
}

func (h *SuggestHandler) suggest(ctx context.Context, textBody string) (*suggestResponse, error) {
	docRef, err := h.refs.Latest(ctx, nil, repos.PurposeDocs)
	if err != nil {
		return nil, fmt.Errorf("load doc collection ref: %w", err)
	}
	ticketRef, err := h.refs.Latest(ctx, nil, repos.PurposeTickets)
	if err != nil {
		return nil, fmt.Errorf("load ticket collection ref: %w", err)
	}
	slugs, err := h.docs.ListSlugs(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list doc slugs: %w", err)
	}
	slugList := strings.Join(slugs, ", ")

	slug1, err := h.forge.QueryWithContext(ctx,
		"Here are all the URL slugs of existing Rotabull support articles: "+slugList+
			". Return the URL slug of the support article most relevant to the following customer query. Return only the slug and nothing else."+
			"Customer Query: "+textBody,
		forge.ContextOptions{CollectionID: docRef.ForgeID, ChunkCount: 15},
	)
	if err != nil {
		return nil, fmt.Errorf("first slug lookup: %w", err)
	}

	slug2, err := h.forge.QueryWithContext(ctx,
		"Here are all the URL slugs of existing Rotabull support articles: "+slugList+
			"Here is a customer query: "+textBody+
			"Here is the URL slug of the Rotabull support article most relevant to the customer query: "+slug1+"."+
			"Return a different URL slug of the support article second most relevant to the customer query. Return only the slug and nothing else.",
		forge.ContextOptions{CollectionID: docRef.ForgeID, ChunkCount: 15},
	)
	if err != nil {
		return nil, fmt.Errorf("second slug lookup: %w", err)
	}

	draft, err := h.forge.QueryWithContext(ctx,
		"You are a customer support agent for Rotabull, a modern system for aerospace part sellers & buyers. You are given the following two support articles and a customer query."+
			"ARTICLE 1 URL: "+articleBaseURL+slug1+
			"ARTICLE 2 URL: "+articleBaseURL+slug2+
			"CUSTOMER QUERY: "+textBody+
			"Please respond to the customer query based on the provided support articles. Reply with only the response text and nothing else."+
			"RESPONSE: ",
		forge.ContextOptions{CollectionID: docRef.ForgeID, ChunkCount: 10},
	)
	if err != nil {
		return nil, fmt.Errorf("draft response: %w", err)
	}

	refined, err := h.forge.QueryWithContext(ctx,
		"You are a customer support agent for Rotabull, a modern system for aerospace part sellers & buyers. You are given the following customer query and a suggested response to the customer query."+
			"CUSTOMER QUERY: "+textBody+
			"SUGGESTED RESPONSE: "+draft+
			"Please use the provided Zendesk ticket comment data to improve the suggested response to the customer query. Reply with only the improved suggested response and nothing else."+
			"RESPONSE: ",
		forge.ContextOptions{CollectionID: ticketRef.ForgeID, ChunkCount: 10},
	)
	if err != nil {
		return nil, fmt.Errorf("refined response: %w", err)
	}

	return &suggestResponse{
		SuggestedArticles: []string{articleBaseURL + slug1, articleBaseURL + slug2},
		SuggestedResponse: refined,
	}, nil
}
