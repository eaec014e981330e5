package invoice

import (
	"github.com/minrafi/invoicer/internal/invoice/repository"
	"github.com/minrafi/invoicer/internal/invoice/service"
	"github.com/minrafi/invoicer/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(pdf.NewRenderer),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
