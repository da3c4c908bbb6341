package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-resource-provider/core"
)

// Invoker is the entrypoint surface the invoke command needs.
type Invoker interface {
	HandleRequest(ctx context.Context, payload []byte) core.ProgressEvent
}

// TestInvoker is the contract-test surface the test command needs.
type TestInvoker interface {
	HandleTestRequest(ctx context.Context, payload []byte) core.ProgressEvent
}

type InvokeCommand struct {
	entrypoint Invoker
}

func NewInvokeCommand(entrypoint Invoker) *InvokeCommand {
	return &InvokeCommand{entrypoint: entrypoint}
}

// Execute runs one invocation and stores the progress event with the
// caller's result collector. The envelope is the outcome, so Execute itself
// only fails on missing wiring.
func (c *InvokeCommand) Execute(ctx context.Context, msg InvokeMessage) error {
	if c == nil || c.entrypoint == nil {
		return commandDependencyError("command: invoke entrypoint is required")
	}
	storeResult(ctx, c.entrypoint.HandleRequest(ctx, msg.Payload))
	return nil
}

type TestInvokeCommand struct {
	entrypoint TestInvoker
}

func NewTestInvokeCommand(entrypoint TestInvoker) *TestInvokeCommand {
	return &TestInvokeCommand{entrypoint: entrypoint}
}

func (c *TestInvokeCommand) Execute(ctx context.Context, msg TestInvokeMessage) error {
	if c == nil || c.entrypoint == nil {
		return commandDependencyError("command: test entrypoint is required")
	}
	storeResult(ctx, c.entrypoint.HandleTestRequest(ctx, msg.Payload))
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
