package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Action is the closed set of lifecycle operations a provider can be asked
// to perform.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionList   Action = "LIST"

	ActionUnknown Action = "UNKNOWN"
)

// ParseAction decodes the wire form of an action. Unknown values are a hard
// parse failure, not a dispatch-time condition.
func ParseAction(value string) (Action, error) {
	switch Action(strings.ToUpper(strings.TrimSpace(value))) {
	case ActionCreate:
		return ActionCreate, nil
	case ActionRead:
		return ActionRead, nil
	case ActionUpdate:
		return ActionUpdate, nil
	case ActionDelete:
		return ActionDelete, nil
	case ActionList:
		return ActionList, nil
	default:
		return ActionUnknown, invalidRequestError(
			fmt.Sprintf("core: unknown action %q", value),
			map[string]any{"action": value},
		)
	}
}

// IsMutating reports whether the action may leave work outstanding and is
// therefore eligible for reinvocation scheduling.
func (a Action) IsMutating() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// Synchronous reports whether the action's handler must complete within a
// single invocation. Read and List handlers never report InProgress.
func (a Action) Synchronous() bool {
	return a == ActionRead || a == ActionList
}

// Credentials is the opaque credential tuple carried by the invocation
// payload. An absent or empty tuple means "no session", never an error.
type Credentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	SessionToken    string `json:"sessionToken"`
}

// Empty reports whether the tuple carries no usable material.
func (c *Credentials) Empty() bool {
	if c == nil {
		return true
	}
	return strings.TrimSpace(c.AccessKeyID) == "" &&
		strings.TrimSpace(c.SecretAccessKey) == "" &&
		strings.TrimSpace(c.SessionToken) == ""
}

// RequestData is the per-invocation data block inside an InvocationRequest.
type RequestData struct {
	CallerCredentials          *Credentials      `json:"callerCredentials,omitempty"`
	ProviderCredentials        *Credentials      `json:"providerCredentials,omitempty"`
	ProviderLogGroupName       string            `json:"providerLogGroupName,omitempty"`
	LogicalResourceID          string            `json:"logicalResourceId,omitempty"`
	ResourceProperties         json.RawMessage   `json:"resourceProperties,omitempty"`
	PreviousResourceProperties json.RawMessage   `json:"previousResourceProperties,omitempty"`
	StackTags                  map[string]string `json:"stackTags,omitempty"`
	PreviousStackTags          map[string]string `json:"previousStackTags,omitempty"`
	SystemTags                 map[string]string `json:"systemTags,omitempty"`
}

// InvocationRequest is the raw entrypoint payload handed over by the host.
// AWSAccountID and RequestData must be present or parsing fails.
type InvocationRequest struct {
	AWSAccountID        string          `json:"awsAccountId"`
	BearerToken         string          `json:"bearerToken,omitempty"`
	Region              string          `json:"region,omitempty"`
	Action              string          `json:"action"`
	ResourceType        string          `json:"resourceType,omitempty"`
	ResourceTypeVersion string          `json:"resourceTypeVersion,omitempty"`
	RequestContext      map[string]any  `json:"requestContext,omitempty"`
	RequestData         *RequestData    `json:"requestData,omitempty"`
	StackID             string          `json:"stackId,omitempty"`
	CallbackContext     map[string]any  `json:"callbackContext,omitempty"`
	NextToken           string          `json:"nextToken,omitempty"`
}

// TestRequestData is the reduced request block used by the contract-test
// entrypoint.
type TestRequestData struct {
	ClientRequestToken        string          `json:"clientRequestToken,omitempty"`
	DesiredResourceState      json.RawMessage `json:"desiredResourceState,omitempty"`
	PreviousResourceState     json.RawMessage `json:"previousResourceState,omitempty"`
	LogicalResourceIdentifier string          `json:"logicalResourceIdentifier,omitempty"`
	NextToken                 string          `json:"nextToken,omitempty"`
}

// TestInvocationRequest is the contract-test payload. Credentials and
// Request are required; stack and system tags are never consulted.
type TestInvocationRequest struct {
	Credentials     *Credentials     `json:"credentials,omitempty"`
	Action          string           `json:"action"`
	Request         *TestRequestData `json:"request,omitempty"`
	CallbackContext map[string]any   `json:"callbackContext,omitempty"`
	Region          string           `json:"region,omitempty"`
}

// ResourceHandlerRequest is the provider-facing view of one invocation,
// typed over the provider's resource model. It is constructed once per
// invocation and never mutated by the runtime afterwards.
type ResourceHandlerRequest[M any] struct {
	ClientRequestToken    string
	DesiredResourceState  *M
	PreviousResourceState *M
	DesiredResourceTags   map[string]string
	PreviousResourceTags  map[string]string
	SystemTags            map[string]string
	AWSAccountID          string
	AWSPartition          string
	LogicalResourceID     string
	NextToken             string
	Region                string
}

// PartitionForRegion derives the cloud partition identifier from the region
// prefix.
func PartitionForRegion(region string) string {
	region = strings.TrimSpace(strings.ToLower(region))
	switch {
	case strings.HasPrefix(region, "cn"):
		return "aws-cn"
	case strings.HasPrefix(region, "us-gov"):
		return "aws-gov"
	default:
		return "aws"
	}
}

// EnsureCallbackContext normalizes an absent callback context to an empty
// map so handlers never observe nil.
func EnsureCallbackContext(callbackContext map[string]any) map[string]any {
	if callbackContext == nil {
		return map[string]any{}
	}
	return callbackContext
}

// InvocationRecord is the audit entry persisted for one handled invocation
// when an InvocationStore is configured.
type InvocationRecord struct {
	ID           string
	ResourceType string
	Action       Action
	Status       OperationStatus
	ErrorCode    ErrorCode
	BearerToken  string
	Duration     time.Duration
	Metadata     map[string]any
	CreatedAt    time.Time
}
