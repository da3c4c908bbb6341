package scheduler

import "github.com/goliatone/go-resource-provider/core"

func schedulerInternal(message string, metadata map[string]any) error {
	err := core.NewProviderError(core.ErrorCodeInternalFailure, message)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func schedulerWrapInternal(source error, message string) error {
	return core.WrapProviderError(source, core.ErrorCodeInternalFailure, message)
}
