//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"guardiangw/internal/domain"
)

func InitializeApplication(ctx context.Context, cfg ServeConfig, gateway domain.GatewayConfig, logging LoggingConfig) (*Application, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}
