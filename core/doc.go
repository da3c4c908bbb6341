// Package core contains the canonical resource-provider domain contracts:
// actions, invocation payloads, progress events, and the handler error
// taxonomy. Transport, session, and storage adapters must depend on this
// package; core must not depend on any adapter.
package core
