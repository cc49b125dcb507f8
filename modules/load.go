package modules

import (
	"github.com/iota-uz/spendflow/modules/finance"
	"github.com/iota-uz/spendflow/pkg/application"
)

var BuiltInModules = []application.Module{
	finance.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	return application.Load(app, append(BuiltInModules, externalModules...)...)
}
