package runtime

import "github.com/goliatone/go-resource-provider/core"

func runtimeInvalidRequest(message string, metadata map[string]any) error {
	err := core.NewProviderError(core.ErrorCodeInvalidRequest, message)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func runtimeWrapInvalidRequest(source error, message string) error {
	return core.WrapProviderError(source, core.ErrorCodeInvalidRequest, message)
}

func runtimeInternal(message string, metadata map[string]any) error {
	err := core.NewProviderError(core.ErrorCodeInternalFailure, message)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func runtimeWrapInternal(source error, message string) error {
	return core.WrapProviderError(source, core.ErrorCodeInternalFailure, message)
}
