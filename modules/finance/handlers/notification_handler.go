package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/fund"
	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/payment"
	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/requisition"
	"github.com/iota-uz/spendflow/pkg/application"
)

// NotificationHandler turns domain events into operator notifications. The
// current transport is the structured log; a mail or chat sender can replace
// it without touching the services that publish the events.
type NotificationHandler struct {
	logger *logrus.Logger
}

func RegisterNotificationHandler(app application.Application) *NotificationHandler {
	h := &NotificationHandler{logger: app.Logger()}
	bus := app.EventPublisher()
	bus.Subscribe(h.onRequisitionCreated)
	bus.Subscribe(h.onRequisitionApproved)
	bus.Subscribe(h.onRequisitionRejected)
	bus.Subscribe(h.onOTPIssued)
	bus.Subscribe(h.onPaymentExecuted)
	bus.Subscribe(h.onPaymentFailed)
	bus.Subscribe(h.onReplenishmentRequested)
	return h
}

func (h *NotificationHandler) onRequisitionCreated(event *requisition.CreatedEvent) {
	h.logger.WithFields(logrus.Fields{
		"requisition_id": event.Result.ID(),
		"next_approver":  event.Result.NextApprover(),
		"amount":         event.Result.Amount().String(),
		"status":         event.Result.Status(),
	}).Info("requisition submitted, notifying first approver")
}

func (h *NotificationHandler) onRequisitionApproved(event *requisition.ApprovedEvent) {
	entry := h.logger.WithFields(logrus.Fields{
		"requisition_id": event.Result.ID(),
		"actor_id":       event.ActorID,
		"final":          event.Final,
	})
	if event.Final {
		entry.Info("requisition fully reviewed, notifying treasury")
		return
	}
	entry.WithField("next_approver", event.Result.NextApprover()).
		Info("approval recorded, notifying next approver")
}

func (h *NotificationHandler) onRequisitionRejected(event *requisition.RejectedEvent) {
	h.logger.WithFields(logrus.Fields{
		"requisition_id": event.Result.ID(),
		"actor_id":       event.ActorID,
		"comment":        event.Comment,
	}).Info("requisition rejected, notifying requester")
}

func (h *NotificationHandler) onOTPIssued(event *payment.OTPIssuedEvent) {
	// The plaintext code is deliberately not logged.
	h.logger.WithFields(logrus.Fields{
		"payment_id":     event.Result.ID(),
		"requisition_id": event.Result.RequisitionID(),
	}).Info("one-time password issued, delivering out of band")
}

func (h *NotificationHandler) onPaymentExecuted(event *payment.ExecutedEvent) {
	h.logger.WithFields(logrus.Fields{
		"payment_id":        event.Result.ID(),
		"executor_id":       event.Execution.ExecutorID(),
		"gateway_reference": event.Execution.GatewayReference(),
		"amount":            event.Result.Amount().String(),
	}).Info("payment executed, notifying requester")
}

func (h *NotificationHandler) onPaymentFailed(event *payment.FailedEvent) {
	h.logger.WithFields(logrus.Fields{
		"payment_id":  event.Result.ID(),
		"retry_count": event.Result.RetryCount(),
		"reason":      event.Reason,
	}).Warn("payment failed, notifying treasury")
}

func (h *NotificationHandler) onReplenishmentRequested(event *fund.ReplenishmentRequestedEvent) {
	h.logger.WithFields(logrus.Fields{
		"fund_id":          event.Fund.ID(),
		"balance":          event.Request.BalanceSnapshot().String(),
		"requested_amount": event.Request.RequestedAmount().String(),
	}).Info("fund below reorder level, replenishment requested")
}
