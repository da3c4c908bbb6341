package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-resource-provider/core"
)

// InvocationStore persists one audit row per handled invocation.
type InvocationStore struct {
	db   *bun.DB
	repo repository.Repository[*invocationRecord]
}

// NewInvocationStore accepts a *bun.DB or any client exposing DB() *bun.DB,
// including the go-persistence-bun client.
func NewInvocationStore(persistenceClient any) (*InvocationStore, error) {
	db, err := resolveBunDB(persistenceClient)
	if err != nil {
		return nil, err
	}
	repo := repository.NewRepository[*invocationRecord](db, invocationHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid invocation repository wiring: %w", err)
		}
	}
	return &InvocationStore{db: db, repo: repo}, nil
}

// DB exposes the underlying bun handle.
func (s *InvocationStore) DB() *bun.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// EnsureSchema creates the audit table when it does not exist yet. Intended
// for local and sqlite deployments; production schemas ship via migrations.
func (s *InvocationStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: invocation store is not configured")
	}
	_, err := s.db.NewCreateTable().
		Model((*invocationRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (s *InvocationStore) Record(ctx context.Context, record core.InvocationRecord) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: invocation store is not configured")
	}
	id := strings.TrimSpace(record.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	row := &invocationRecord{
		ID:           id,
		ResourceType: strings.TrimSpace(record.ResourceType),
		Action:       string(record.Action),
		Status:       string(record.Status),
		ErrorCode:    string(record.ErrorCode),
		BearerToken:  strings.TrimSpace(record.BearerToken),
		DurationMS:   record.Duration.Milliseconds(),
		Metadata:     record.Metadata,
		CreatedAt:    createdAt,
	}
	_, err := s.repo.Create(ctx, row)
	return err
}

func (s *InvocationStore) LatestByBearerToken(ctx context.Context, bearerToken string) (core.InvocationRecord, error) {
	if s == nil || s.repo == nil {
		return core.InvocationRecord{}, fmt.Errorf("sqlstore: invocation store is not configured")
	}
	bearerToken = strings.TrimSpace(bearerToken)
	if bearerToken == "" {
		return core.InvocationRecord{}, fmt.Errorf("sqlstore: bearer token is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("bearer_token", "=", bearerToken),
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.InvocationRecord{}, err
	}
	if len(records) == 0 {
		return core.InvocationRecord{}, core.NewProviderError(core.ErrorCodeNotFound,
			fmt.Sprintf("sqlstore: no invocation recorded for bearer token %q", bearerToken))
	}
	return records[0].toDomain(), nil
}

func (r *invocationRecord) toDomain() core.InvocationRecord {
	if r == nil {
		return core.InvocationRecord{}
	}
	return core.InvocationRecord{
		ID:           r.ID,
		ResourceType: r.ResourceType,
		Action:       core.Action(r.Action),
		Status:       core.OperationStatus(r.Status),
		ErrorCode:    core.ErrorCode(r.ErrorCode),
		BearerToken:  r.BearerToken,
		Duration:     time.Duration(r.DurationMS) * time.Millisecond,
		Metadata:     r.Metadata,
		CreatedAt:    r.CreatedAt,
	}
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

var _ core.InvocationStore = (*InvocationStore)(nil)
