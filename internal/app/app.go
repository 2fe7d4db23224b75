// Package app wires configuration into a running trade bot.
package app

import (
	"context"
	"fmt"

	"tf2automatic/internal/agent"
	"tf2automatic/internal/builder"
	brcfg "tf2automatic/internal/config"
	"tf2automatic/internal/logger"
	"tf2automatic/internal/pricelist"
	apihttp "tf2automatic/internal/transport/http/api"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg     *brcfg.Config
	catalog *pricelist.Catalog
	agent   *agent.Service
	builder *builder.Builder
	server  *apihttp.Server
	stores  stores
	Summary *StartupSummary
}

// NewApp builds the application without starting it.
func NewApp(ctx context.Context, cfg *brcfg.Config, opts ...AppBuilderOption) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	return NewAppBuilder(cfg, opts...).Build(ctx)
}

// Run serves the HTTP API until ctx is canceled, then closes the stores.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}
	defer func() {
		if err := a.stores.close(); err != nil {
			logger.Warnf("closing stores: %v", err)
		}
	}()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	return group.Wait()
}

// Agent exposes the offer service, for transports living in the same process.
func (a *App) Agent() *agent.Service {
	return a.agent
}

func (a *App) Builder() *builder.Builder {
	return a.builder
}

func (a *App) Server() *apihttp.Server {
	return a.server
}
