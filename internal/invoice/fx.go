package invoice

import (
	"github.com/smallbiznis/factorylicense/internal/config"
	"github.com/smallbiznis/factorylicense/internal/invoice/render"
	"github.com/smallbiznis/factorylicense/internal/invoice/repository"
	"github.com/smallbiznis/factorylicense/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(func(cfg config.Config) *render.PDFRenderer {
		return render.NewPDFRenderer(render.Issuer{Name: cfg.AppName})
	}),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
