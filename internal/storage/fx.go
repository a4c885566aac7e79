package storage

import (
	"github.com/smallbiznis/factorylicense/internal/storage/service"
	"github.com/smallbiznis/factorylicense/internal/storage/source"
	"go.uber.org/fx"
)

var Module = fx.Module("storage.service",
	fx.Provide(source.New),
	fx.Provide(service.NewService),
)
