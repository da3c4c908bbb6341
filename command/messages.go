// Package command exposes provider invocations as go-command messages so
// hosts already running a command bus can dispatch lifecycle operations
// through it.
package command

import "fmt"

const (
	TypeInvoke     = "provider.command.invoke"
	TypeTestInvoke = "provider.command.invoke.test"
)

// InvokeMessage carries one raw invocation payload.
type InvokeMessage struct {
	Payload []byte
}

func (InvokeMessage) Type() string { return TypeInvoke }

func (m InvokeMessage) Validate() error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("command: invocation payload is required")
	}
	return nil
}

// TestInvokeMessage carries one contract-test payload.
type TestInvokeMessage struct {
	Payload []byte
}

func (TestInvokeMessage) Type() string { return TypeTestInvoke }

func (m TestInvokeMessage) Validate() error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("command: test payload is required")
	}
	return nil
}
