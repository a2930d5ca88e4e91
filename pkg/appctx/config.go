package appctx

import (
	"context"

	"github.com/vulntor/formsense/pkg/config"
	"github.com/vulntor/formsense/pkg/matching"
)

type key string

const (
	configKey   key = "formsense.config.manager"
	providerKey key = "formsense.matching.provider"
)

// WithConfig stores the shared config manager on context.
func WithConfig(ctx context.Context, manager *config.Manager) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey, manager)
}

// Config retrieves the shared config manager from context.
func Config(ctx context.Context) (*config.Manager, bool) {
	if ctx == nil {
		return nil, false
	}
	mgr, ok := ctx.Value(configKey).(*config.Manager)
	return mgr, ok && mgr != nil
}

// WithProvider stores the matching rules provider on context.
func WithProvider(ctx context.Context, p *matching.Provider) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, providerKey, p)
}

// Provider retrieves the matching rules provider from context.
func Provider(ctx context.Context) (*matching.Provider, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(providerKey).(*matching.Provider)
	return p, ok && p != nil
}
