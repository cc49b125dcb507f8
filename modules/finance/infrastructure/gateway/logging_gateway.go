package gateway

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/payment"
)

// LoggingGateway is the development payment rail: it acknowledges every
// instruction immediately and logs it. Real rails settle asynchronously via
// the reconciliation endpoint, which this stub leaves to the operator.
type LoggingGateway struct {
	logger *logrus.Logger
}

func NewLoggingGateway(logger *logrus.Logger) *LoggingGateway {
	return &LoggingGateway{logger: logger}
}

func (g *LoggingGateway) Submit(_ context.Context, instruction payment.Instruction) (payment.Receipt, error) {
	g.logger.WithFields(logrus.Fields{
		"destination": instruction.Destination,
		"amount":      instruction.Amount.String(),
		"reference":   instruction.Reference,
		"description": instruction.Description,
	}).Info("payment instruction submitted")
	return payment.Receipt{
		GatewayReference: instruction.Reference,
		Status:           "accepted",
	}, nil
}
