// Package runtime wires parsing, dispatch, and post-processing into the
// provider entrypoints invoked by the host.
package runtime

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-resource-provider/core"
	"github.com/goliatone/go-resource-provider/session"
)

// ParsedRequest is the decoded main-path invocation: both sessions, the
// action, the normalized callback context, and the raw typed request.
type ParsedRequest struct {
	CallerSession   *session.Session
	ProviderSession *session.Session
	Action          core.Action
	CallbackContext map[string]any
	Request         *core.InvocationRequest
}

// ParsedTestRequest is the decoded contract-test invocation: exactly one
// session built from the embedded credential tuple.
type ParsedTestRequest struct {
	Session         *session.Session
	Action          core.Action
	CallbackContext map[string]any
	Request         *core.TestInvocationRequest
}

// Parser validates and decodes raw invocation payloads. Sessions are built
// through the configured provider; a nil credential tuple yields a nil
// session rather than an error.
type Parser struct {
	sessions session.Provider
}

func NewParser(sessions session.Provider) *Parser {
	if sessions == nil {
		sessions = session.StaticProvider{}
	}
	return &Parser{sessions: sessions}
}

// ParseRequest decodes the main-path payload. Missing account id or
// request data fail with InvalidRequest naming the missing field; unknown
// actions are a hard parse failure.
func (p *Parser) ParseRequest(payload []byte) (*ParsedRequest, error) {
	if p == nil {
		return nil, runtimeInternal("runtime: parser is nil", nil)
	}
	if len(payload) == 0 {
		return nil, runtimeInvalidRequest(`runtime: invocation is missing required field "awsAccountId"`, nil)
	}
	request := &core.InvocationRequest{}
	if err := json.Unmarshal(payload, request); err != nil {
		return nil, runtimeWrapInvalidRequest(err, "runtime: malformed invocation payload")
	}
	if request.AWSAccountID == "" {
		return nil, runtimeInvalidRequest(`runtime: invocation is missing required field "awsAccountId"`, nil)
	}
	if request.RequestData == nil {
		return nil, runtimeInvalidRequest(`runtime: invocation is missing required field "requestData"`, map[string]any{
			"account_id": request.AWSAccountID,
		})
	}
	action, err := core.ParseAction(request.Action)
	if err != nil {
		return nil, err
	}
	return &ParsedRequest{
		CallerSession:   p.sessions.GetSession(request.RequestData.CallerCredentials, request.Region),
		ProviderSession: p.sessions.GetSession(request.RequestData.ProviderCredentials, request.Region),
		Action:          action,
		CallbackContext: core.EnsureCallbackContext(request.CallbackContext),
		Request:         request,
	}, nil
}

// ParseTestRequest decodes the contract-test payload. Missing credentials
// or request report InternalFailure, not InvalidRequest; the asymmetry with
// the main path is part of the contract.
func (p *Parser) ParseTestRequest(payload []byte) (*ParsedTestRequest, error) {
	if p == nil {
		return nil, runtimeInternal("runtime: parser is nil", nil)
	}
	request := &core.TestInvocationRequest{}
	if err := json.Unmarshal(payload, request); err != nil {
		return nil, runtimeWrapInternal(err, "runtime: malformed test payload")
	}
	if request.Credentials == nil {
		return nil, runtimeInternal(`runtime: test payload is missing required field "credentials"`, nil)
	}
	if request.Request == nil {
		return nil, runtimeInternal(`runtime: test payload is missing required field "request"`, nil)
	}
	action, err := core.ParseAction(request.Action)
	if err != nil {
		return nil, err
	}
	return &ParsedTestRequest{
		Session:         p.sessions.GetSession(request.Credentials, request.Region),
		Action:          action,
		CallbackContext: core.EnsureCallbackContext(request.CallbackContext),
		Request:         request,
	}, nil
}

// CastResourceRequest deserializes the resource-property blobs into the
// provider model and derives the remaining typed-request fields. Any
// deserialization failure reports InvalidRequest wrapping the cause.
func CastResourceRequest[M any](request *core.InvocationRequest) (core.ResourceHandlerRequest[M], error) {
	if request == nil || request.RequestData == nil {
		return core.ResourceHandlerRequest[M]{}, runtimeInvalidRequest("runtime: invocation request data is required", nil)
	}
	data := request.RequestData
	desired, err := decodeModel[M](data.ResourceProperties)
	if err != nil {
		return core.ResourceHandlerRequest[M]{}, runtimeWrapInvalidRequest(
			err,
			fmt.Sprintf("runtime: malformed resource properties: %v", err),
		)
	}
	previous, err := decodeModel[M](data.PreviousResourceProperties)
	if err != nil {
		return core.ResourceHandlerRequest[M]{}, runtimeWrapInvalidRequest(
			err,
			fmt.Sprintf("runtime: malformed previous resource properties: %v", err),
		)
	}
	return core.ResourceHandlerRequest[M]{
		ClientRequestToken:    request.BearerToken,
		DesiredResourceState:  desired,
		PreviousResourceState: previous,
		DesiredResourceTags:   data.StackTags,
		PreviousResourceTags:  data.PreviousStackTags,
		SystemTags:            data.SystemTags,
		AWSAccountID:          request.AWSAccountID,
		AWSPartition:          core.PartitionForRegion(request.Region),
		LogicalResourceID:     data.LogicalResourceID,
		NextToken:             request.NextToken,
		Region:                request.Region,
	}, nil
}

// CastTestResourceRequest is the contract-test counterpart working from the
// reduced request block; stack and system tags are never consulted.
func CastTestResourceRequest[M any](request *core.TestInvocationRequest) (core.ResourceHandlerRequest[M], error) {
	if request == nil || request.Request == nil {
		return core.ResourceHandlerRequest[M]{}, runtimeInternal("runtime: test request data is required", nil)
	}
	data := request.Request
	desired, err := decodeModel[M](data.DesiredResourceState)
	if err != nil {
		return core.ResourceHandlerRequest[M]{}, runtimeWrapInvalidRequest(
			err,
			fmt.Sprintf("runtime: malformed desired resource state: %v", err),
		)
	}
	previous, err := decodeModel[M](data.PreviousResourceState)
	if err != nil {
		return core.ResourceHandlerRequest[M]{}, runtimeWrapInvalidRequest(
			err,
			fmt.Sprintf("runtime: malformed previous resource state: %v", err),
		)
	}
	return core.ResourceHandlerRequest[M]{
		ClientRequestToken:    data.ClientRequestToken,
		DesiredResourceState:  desired,
		PreviousResourceState: previous,
		LogicalResourceID:     data.LogicalResourceIdentifier,
		NextToken:             data.NextToken,
		AWSPartition:          core.PartitionForRegion(request.Region),
		Region:                request.Region,
	}, nil
}

func decodeModel[M any](raw json.RawMessage) (*M, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	model := new(M)
	if err := json.Unmarshal(raw, model); err != nil {
		return nil, err
	}
	return model, nil
}
