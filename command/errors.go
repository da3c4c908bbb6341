package command

import "github.com/goliatone/go-resource-provider/core"

func commandDependencyError(message string) error {
	return core.NewProviderError(core.ErrorCodeInternalFailure, message)
}
