package runtime

import (
	"time"

	"github.com/goliatone/go-resource-provider/core"
	"github.com/goliatone/go-resource-provider/session"
)

type entrypointBuilder struct {
	runtimeConfig   core.Config
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metrics         core.MetricsPublisher
	logDelivery     core.LogDelivery
	scheduler       core.CallbackScheduler
	sessions        session.Provider
	store           core.InvocationStore
	errorMapper     core.ErrorMapper
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver
	clock           func() time.Time
}

type Option func(*entrypointBuilder)

func WithLogger(logger core.Logger) Option {
	return func(b *entrypointBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *entrypointBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsPublisher(publisher core.MetricsPublisher) Option {
	return func(b *entrypointBuilder) {
		b.metrics = publisher
	}
}

func WithLogDelivery(delivery core.LogDelivery) Option {
	return func(b *entrypointBuilder) {
		b.logDelivery = delivery
	}
}

func WithCallbackScheduler(scheduler core.CallbackScheduler) Option {
	return func(b *entrypointBuilder) {
		b.scheduler = scheduler
	}
}

func WithSessionProvider(provider session.Provider) Option {
	return func(b *entrypointBuilder) {
		b.sessions = provider
	}
}

func WithInvocationStore(store core.InvocationStore) Option {
	return func(b *entrypointBuilder) {
		b.store = store
	}
}

func WithErrorMapper(mapper core.ErrorMapper) Option {
	return func(b *entrypointBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *entrypointBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(b *entrypointBuilder) {
		b.optionsResolver = resolver
	}
}

func WithClock(clock func() time.Time) Option {
	return func(b *entrypointBuilder) {
		b.clock = clock
	}
}

func defaultEntrypointBuilder(runtime core.Config) entrypointBuilder {
	return entrypointBuilder{
		runtimeConfig:   runtime,
		metrics:         core.NopMetricsPublisher{},
		sessions:        session.StaticProvider{},
		errorMapper:     core.ProviderErrorMapper,
		configProvider:  core.NewCfgxConfigProvider(nil),
		optionsResolver: core.GoOptionsResolver{},
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}
