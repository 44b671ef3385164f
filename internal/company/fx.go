package company

import (
	"github.com/lucanori/invoicerr/internal/company/domain"
	"github.com/lucanori/invoicerr/internal/company/service"
	"github.com/lucanori/invoicerr/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("company.service",
	fx.Provide(repository.ProvideStore[domain.Company]),
	fx.Provide(service.New),
)
