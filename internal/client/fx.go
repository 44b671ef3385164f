package client

import (
	"github.com/lucanori/invoicerr/internal/client/repository"
	"github.com/lucanori/invoicerr/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
