// Package dispatch routes a decoded invocation to the registered handler
// for its action and enforces per-action execution constraints.
package dispatch

import (
	"context"

	"github.com/goliatone/go-resource-provider/core"
	"github.com/goliatone/go-resource-provider/session"
)

// HandlerFunc is a user-supplied lifecycle handler for one action, typed
// over the provider's resource model.
type HandlerFunc[M any] func(
	ctx context.Context,
	sess *session.Session,
	req core.ResourceHandlerRequest[M],
	callbackContext map[string]any,
) (core.ProgressEvent, error)

// RegistryBuilder accumulates the type-level action map for a concrete
// provider. It is populated once during provider-type initialization and
// copied into each instance registry, so instance-level AddHandler calls
// never corrupt the type-level defaults.
type RegistryBuilder[M any] struct {
	handlers map[core.Action]HandlerFunc[M]
}

func NewRegistryBuilder[M any]() *RegistryBuilder[M] {
	return &RegistryBuilder[M]{handlers: map[core.Action]HandlerFunc[M]{}}
}

// Register binds a handler to an action, overwriting any prior binding.
func (b *RegistryBuilder[M]) Register(action core.Action, fn HandlerFunc[M]) *RegistryBuilder[M] {
	if b == nil {
		return b
	}
	if b.handlers == nil {
		b.handlers = map[core.Action]HandlerFunc[M]{}
	}
	if fn == nil {
		delete(b.handlers, action)
		return b
	}
	b.handlers[action] = fn
	return b
}

// Build copies the accumulated map into a fresh instance registry.
func (b *RegistryBuilder[M]) Build() *Registry[M] {
	registry := NewRegistry[M]()
	if b == nil {
		return registry
	}
	for action, fn := range b.handlers {
		registry.handlers[action] = fn
	}
	return registry
}

// Registry is the instance-level action map. An absent entry is a
// reportable runtime condition, never a construction-time error.
type Registry[M any] struct {
	handlers map[core.Action]HandlerFunc[M]
}

func NewRegistry[M any]() *Registry[M] {
	return &Registry[M]{handlers: map[core.Action]HandlerFunc[M]{}}
}

// AddHandler binds a handler on this instance only, overwriting any prior
// registration for the action.
func (r *Registry[M]) AddHandler(action core.Action, fn HandlerFunc[M]) {
	if r == nil {
		return
	}
	if r.handlers == nil {
		r.handlers = map[core.Action]HandlerFunc[M]{}
	}
	if fn == nil {
		delete(r.handlers, action)
		return
	}
	r.handlers[action] = fn
}

// Handler resolves the handler bound to an action.
func (r *Registry[M]) Handler(action core.Action) (HandlerFunc[M], bool) {
	if r == nil || r.handlers == nil {
		return nil, false
	}
	fn, ok := r.handlers[action]
	return fn, ok
}

// Actions lists the actions with a bound handler.
func (r *Registry[M]) Actions() []core.Action {
	if r == nil {
		return nil
	}
	actions := make([]core.Action, 0, len(r.handlers))
	for action := range r.handlers {
		actions = append(actions, action)
	}
	return actions
}
