package finance

import (
	"embed"

	"github.com/iota-uz/spendflow/modules/finance/domain/entities/threshold"
	"github.com/iota-uz/spendflow/modules/finance/handlers"
	"github.com/iota-uz/spendflow/modules/finance/infrastructure/gateway"
	"github.com/iota-uz/spendflow/modules/finance/infrastructure/persistence"
	"github.com/iota-uz/spendflow/modules/finance/presentation/controllers"
	"github.com/iota-uz/spendflow/modules/finance/services"
	"github.com/iota-uz/spendflow/pkg/application"
	"github.com/iota-uz/spendflow/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/finance-schema.sql
var MigrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	app.RegisterSchema(&MigrationFiles)

	conf := configuration.Use().Finance
	bus := app.EventPublisher()

	approvers := persistence.NewApproverRepository()
	requisitions := persistence.NewRequisitionRepository()
	trail := persistence.NewApprovalTrailRepository()
	funds := persistence.NewFundRepository()
	payments := persistence.NewPaymentRepository()

	resolver := services.NewWorkflowResolver(
		threshold.BuiltIn(),
		approvers,
		services.NewRoleChainFallback(approvers),
	)
	fundService := services.NewFundService(funds, payments, approvers, bus, conf)

	app.RegisterServices(
		services.NewRequisitionService(requisitions, trail, payments, approvers, resolver, bus, conf),
		services.NewPaymentService(payments, funds, fundService, gateway.NewLoggingGateway(app.Logger()), bus, conf),
		fundService,
	)
	app.RegisterControllers(
		controllers.NewRequisitionController(app),
		controllers.NewPaymentController(app),
		controllers.NewFundController(app),
	)
	handlers.RegisterNotificationHandler(app)
	return nil
}

func (m *Module) Name() string {
	return "finance"
}
