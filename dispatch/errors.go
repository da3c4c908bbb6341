package dispatch

import "github.com/goliatone/go-resource-provider/core"

func dispatchInternal(message string, metadata map[string]any) error {
	err := core.NewProviderError(core.ErrorCodeInternalFailure, message)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}
