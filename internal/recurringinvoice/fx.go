package recurringinvoice

import (
	"github.com/lucanori/invoicerr/internal/recurringinvoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("recurringinvoice.service",
	fx.Provide(service.New),
)
