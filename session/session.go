// Package session materializes authenticated API sessions from the
// credential tuples carried by an invocation payload. Sessions are
// invocation-scoped and never persisted.
package session

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/goliatone/go-resource-provider/core"
)

// Session wraps a region-scoped aws.Config capable of producing
// service-specific API clients.
type Session struct {
	config aws.Config
}

// Config exposes the underlying aws.Config for client construction, e.g.
// s3.NewFromConfig(sess.Config()).
func (s *Session) Config() aws.Config {
	if s == nil {
		return aws.Config{}
	}
	return s.config
}

// Region reports the region the session was built for.
func (s *Session) Region() string {
	if s == nil {
		return ""
	}
	return s.config.Region
}

// Provider builds sessions from credential tuples. A nil or empty tuple
// yields a nil session, never an error; downstream code must tolerate a
// nil session.
type Provider interface {
	GetSession(creds *core.Credentials, region string) *Session
}

// StaticProvider is the default Provider: it binds the tuple as a static
// credentials provider on a fresh aws.Config.
type StaticProvider struct{}

func (StaticProvider) GetSession(creds *core.Credentials, region string) *Session {
	if creds.Empty() {
		return nil
	}
	return &Session{
		config: aws.Config{
			Region: strings.TrimSpace(region),
			Credentials: credentials.NewStaticCredentialsProvider(
				creds.AccessKeyID,
				creds.SecretAccessKey,
				creds.SessionToken,
			),
		},
	}
}

var _ Provider = StaticProvider{}
