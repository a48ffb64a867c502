package app

import (
	"time"

	"github.com/rotabull/supportsync/internal/pkg/logger"
	syncpkg "github.com/rotabull/supportsync/internal/sync"
	"github.com/rotabull/supportsync/internal/utils"
)

type Config struct {
	Port string

	ZendeskSubdomain string
	ZendeskUserEmail string
	ZendeskAPIToken  string
	ReadmeAPIToken   string
	ForgeBaseURL     string
	ForgeAPIKey      string

	RequestDelay       time.Duration
	MaxRetries         int
	Paging             syncpkg.PagingStrategy
	CommentConcurrency int
	TeamEmailSuffix    string
	LookbackDays       int

	BatchSize     int
	TxTimeout     time.Duration
	Parallel      bool
	AbortSiblings bool
	SyncInterval  time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port: utils.GetEnv("PORT", "3000", log),

		ZendeskSubdomain: utils.GetEnv("ZENDESK_SUBDOMAIN", "", log),
		ZendeskUserEmail: utils.GetEnv("ZENDESK_USER_EMAIL", "", log),
		ZendeskAPIToken:  utils.GetEnv("ZENDESK_API_TOKEN", "", log),
		ReadmeAPIToken:   utils.GetEnv("README_API_TOKEN", "", log),
		ForgeBaseURL:     utils.GetEnv("FORGE_BASE_URL", "", log),
		ForgeAPIKey:      utils.GetEnv("FORGE_API_KEY", "", log),

		RequestDelay:       time.Duration(utils.GetEnvAsInt("ZENDESK_REQUEST_DELAY_MS", 1000, log)) * time.Millisecond,
		MaxRetries:         utils.GetEnvAsInt("ZENDESK_MAX_RETRIES", 3, log),
		Paging:             syncpkg.PagingStrategy(utils.GetEnv("ZENDESK_PAGING", string(syncpkg.PagingCursor), log)),
		CommentConcurrency: utils.GetEnvAsInt("COMMENT_FETCH_CONCURRENCY", 5, log),
		TeamEmailSuffix:    utils.GetEnv("TEAM_EMAIL_SUFFIX", "@rotabull.com", log),
		LookbackDays:       utils.GetEnvAsInt("TICKET_LOOKBACK_DAYS", 365, log),

		BatchSize:     utils.GetEnvAsInt("SYNC_BATCH_SIZE", 100, log),
		TxTimeout:     time.Duration(utils.GetEnvAsInt("SYNC_TX_TIMEOUT_MINUTES", 30, log)) * time.Minute,
		Parallel:      utils.GetEnvAsBool("SYNC_PARALLEL", false, log),
		AbortSiblings: utils.GetEnvAsBool("SYNC_ABORT_SIBLINGS", false, log),
		SyncInterval:  time.Duration(utils.GetEnvAsInt("SYNC_INTERVAL_HOURS", 168, log)) * time.Hour,
	}
}
