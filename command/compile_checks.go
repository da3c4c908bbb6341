package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[InvokeMessage]     = (*InvokeCommand)(nil)
	_ gocmd.Commander[TestInvokeMessage] = (*TestInvokeCommand)(nil)
)
