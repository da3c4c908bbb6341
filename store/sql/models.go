// Package sqlstore persists invocation audit records over bun. It accepts
// either a raw *bun.DB or a go-persistence-bun client.
package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type invocationRecord struct {
	bun.BaseModel `bun:"table:provider_invocations,alias:pi"`

	ID           string         `bun:"id,pk"`
	ResourceType string         `bun:"resource_type,notnull"`
	Action       string         `bun:"action,notnull"`
	Status       string         `bun:"status,notnull"`
	ErrorCode    string         `bun:"error_code"`
	BearerToken  string         `bun:"bearer_token,notnull"`
	DurationMS   int64          `bun:"duration_ms,notnull"`
	Metadata     map[string]any `bun:"metadata,type:jsonb"`
	CreatedAt    time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
