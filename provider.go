// Package provider is the facade for building resource providers: register
// lifecycle handlers for a model type, construct an entrypoint, and hand it
// raw invocation payloads.
package provider

import (
	"github.com/goliatone/go-resource-provider/core"
	"github.com/goliatone/go-resource-provider/dispatch"
	"github.com/goliatone/go-resource-provider/runtime"
	"github.com/goliatone/go-resource-provider/session"
)

type Config = core.Config

type Action = core.Action

type OperationStatus = core.OperationStatus

type ErrorCode = core.ErrorCode

type ProgressEvent = core.ProgressEvent

type Credentials = core.Credentials

type InvocationRequest = core.InvocationRequest

type ResourceHandlerRequest[M any] = core.ResourceHandlerRequest[M]

type Session = session.Session

type Option = runtime.Option

type HandlerFunc[M any] = dispatch.HandlerFunc[M]

type Registry[M any] = dispatch.Registry[M]

type RegistryBuilder[M any] = dispatch.RegistryBuilder[M]

type Entrypoint[M any] = runtime.Entrypoint[M]

type TestEntrypoint[M any] = runtime.TestEntrypoint[M]

const (
	ActionCreate = core.ActionCreate
	ActionRead   = core.ActionRead
	ActionUpdate = core.ActionUpdate
	ActionDelete = core.ActionDelete
	ActionList   = core.ActionList

	StatusPending    = core.StatusPending
	StatusInProgress = core.StatusInProgress
	StatusSuccess    = core.StatusSuccess
	StatusFailed     = core.StatusFailed
)

var (
	WithLogger            = runtime.WithLogger
	WithLoggerProvider    = runtime.WithLoggerProvider
	WithMetricsPublisher  = runtime.WithMetricsPublisher
	WithLogDelivery       = runtime.WithLogDelivery
	WithCallbackScheduler = runtime.WithCallbackScheduler
	WithSessionProvider   = runtime.WithSessionProvider
	WithInvocationStore   = runtime.WithInvocationStore
	WithErrorMapper       = runtime.WithErrorMapper
	WithConfigProvider    = runtime.WithConfigProvider
	WithOptionsResolver   = runtime.WithOptionsResolver

	NewSuccessEvent  = core.NewSuccessEvent
	NewProgressEvent = core.NewProgressEvent
	NewFailedEvent   = core.NewFailedEvent
	NewProviderError = core.NewProviderError
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewRegistryBuilder starts the type-level action map for a provider model.
func NewRegistryBuilder[M any]() *RegistryBuilder[M] {
	return dispatch.NewRegistryBuilder[M]()
}

// NewRegistry builds an empty instance registry.
func NewRegistry[M any]() *Registry[M] {
	return dispatch.NewRegistry[M]()
}

// New builds the production entrypoint for one resource type.
func New[M any](cfg Config, registry *Registry[M], options ...Option) (*Entrypoint[M], error) {
	return runtime.NewEntrypoint(cfg, registry, options...)
}

// NewTest builds the side-effect-free contract-test entrypoint.
func NewTest[M any](registry *Registry[M], options ...Option) *TestEntrypoint[M] {
	return runtime.NewTestEntrypoint(registry, options...)
}
