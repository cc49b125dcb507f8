package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/fund"
	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/payment"
	"github.com/iota-uz/spendflow/pkg/composables"
	"github.com/iota-uz/spendflow/pkg/configuration"
	"github.com/iota-uz/spendflow/pkg/eventbus"
)

// PaymentService is the execution engine: OTP issuance and verification,
// segregation-of-duties checks and the atomic debit of the treasury fund.
type PaymentService struct {
	payments  payment.Repository
	funds     fund.Repository
	fundSvc   *FundService
	gateway   payment.Gateway
	publisher eventbus.EventBus
	conf      configuration.FinanceOptions
}

func NewPaymentService(
	payments payment.Repository,
	funds fund.Repository,
	fundSvc *FundService,
	gateway payment.Gateway,
	publisher eventbus.EventBus,
	conf configuration.FinanceOptions,
) *PaymentService {
	return &PaymentService{
		payments:  payments,
		funds:     funds,
		fundSvc:   fundSvc,
		gateway:   gateway,
		publisher: publisher,
		conf:      conf,
	}
}

func (s *PaymentService) GetByID(ctx context.Context, id uuid.UUID) (payment.Payment, error) {
	return s.payments.GetByID(ctx, id)
}

func (s *PaymentService) GetByRequisitionID(ctx context.Context, requisitionID uuid.UUID) (payment.Payment, error) {
	return s.payments.GetByRequisitionID(ctx, requisitionID)
}

// RequestOTP issues a fresh one-time password for the payment and returns
// the plaintext code once. Delivery to the executor is the notification
// gateway's job, fed by the published event.
func (s *PaymentService) RequestOTP(ctx context.Context, paymentID uuid.UUID) (string, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return "", err
	}
	if p.IsExecuted() {
		return "", payment.ErrAlreadyExecuted
	}

	code, err := payment.GenerateCode()
	if err != nil {
		return "", errors.Wrap(err, "generate otp code")
	}
	otp, err := payment.NewOTP(paymentID, code, s.conf.OTPTTL)
	if err != nil {
		return "", errors.Wrap(err, "hash otp code")
	}
	err = inTx(ctx, func(txCtx context.Context) error {
		_, err := s.payments.CreateOTP(txCtx, otp)
		return err
	})
	if err != nil {
		return "", err
	}
	s.publisher.Publish(payment.NewOTPIssuedEvent(p, code))
	return code, nil
}

// VerifyOTP checks the code and consumes it. Consumption is a
// compare-and-set, so of two racing verifications exactly one succeeds.
func (s *PaymentService) VerifyOTP(ctx context.Context, paymentID uuid.UUID, code string) error {
	return inTx(ctx, func(txCtx context.Context) error {
		otp, err := s.payments.LatestOTP(txCtx, paymentID)
		if err != nil {
			return err
		}
		if otp.IsVerified() {
			return payment.ErrOTPAlreadyUsed
		}
		if otp.IsExpired(time.Now()) {
			return payment.ErrOTPExpired
		}
		if !otp.Matches(code) {
			return payment.ErrOTPInvalid
		}
		flipped, err := s.payments.MarkOTPVerified(txCtx, otp.ID())
		if err != nil {
			return err
		}
		if !flipped {
			return payment.ErrOTPAlreadyUsed
		}
		return nil
	})
}

// CanExecute is the advisory pre-flight. Everything it checks is re-checked
// under the fund and payment row locks inside Execute; a true here is a fast
// path, never an authorization to skip re-validation.
func (s *PaymentService) CanExecute(ctx context.Context, paymentID, executorID uuid.UUID) (bool, string) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return false, err.Error()
	}
	f, err := s.funds.GetByScope(ctx, p.Scope())
	if err != nil {
		return false, err.Error()
	}
	otp, err := s.latestOTPIfRequired(ctx, p)
	if err != nil {
		return false, err.Error()
	}
	if err := validateExecution(p, f, otp, executorID, time.Now()); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// Execute performs the funded debit as one atomic unit: payment row lock,
// fund row lock, balance re-validation, debit + ledger entry + execution
// record + success mark, then the replenishment check. A failure inside the
// transaction rolls everything back; the retry counter is bumped in a
// separate transaction afterwards. The gateway submission happens strictly
// after the locks are released.
func (s *PaymentService) Execute(ctx context.Context, paymentID, executorID uuid.UUID, gatewayReference string) (payment.Payment, error) {
	if gatewayReference == "" {
		gatewayReference = uuid.NewString()
	}

	var (
		result payment.Payment
		exec   payment.Execution
	)
	txErr := inTx(ctx, func(txCtx context.Context) error {
		p, err := s.payments.GetByIDForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}
		f, err := s.funds.GetByScopeForUpdate(txCtx, p.Scope())
		if err != nil {
			return err
		}
		otp, err := s.latestOTPIfRequired(txCtx, p)
		if err != nil {
			return err
		}
		// Authoritative re-validation: the lock is held now.
		if err := validateExecution(p, f, otp, executorID, time.Now()); err != nil {
			return err
		}

		if err := p.MarkExecuting(); err != nil {
			return err
		}
		if err := f.Debit(p.Amount()); err != nil {
			return err
		}

		exec, err = s.payments.CreateExecution(txCtx, payment.NewExecution(
			p.ID(), executorID, gatewayReference, otp.VerifiedAt(),
		))
		if err != nil {
			return err
		}
		entry := fund.NewLedgerEntry(f.ID(), fund.EntryDebit, p.Amount()).
			WithExecution(exec.ID())
		if _, err := s.funds.CreateLedgerEntry(txCtx, entry); err != nil {
			return err
		}
		if err := s.funds.UpdateBalance(txCtx, f); err != nil {
			return err
		}

		if err := p.MarkSuccess(executorID); err != nil {
			return err
		}
		if err := s.payments.Update(txCtx, p); err != nil {
			return err
		}

		if err := s.fundSvc.EvaluateReplenishment(txCtx, f); err != nil {
			return err
		}
		result = p
		return nil
	})
	if txErr != nil {
		s.recordFailure(ctx, paymentID, txErr)
		return payment.Payment{}, txErr
	}

	s.submitToGateway(ctx, result, exec)
	s.publisher.Publish(payment.NewExecutedEvent(result, exec))
	return result, nil
}

// Reconcile handles the payment rail's asynchronous callback, keyed by the
// gateway reference issued at execution time.
func (s *PaymentService) Reconcile(ctx context.Context, gatewayReference, gatewayStatus string) (payment.Payment, error) {
	var result payment.Payment
	err := inTx(ctx, func(txCtx context.Context) error {
		p, err := s.payments.GetByGatewayReference(txCtx, gatewayReference)
		if err != nil {
			return err
		}
		if err := p.MarkReconciled(); err != nil {
			return err
		}
		if err := s.payments.Update(txCtx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return payment.Payment{}, err
	}
	s.publisher.Publish(payment.NewReconciledEvent(result, gatewayReference, gatewayStatus))
	return result, nil
}

func (s *PaymentService) latestOTPIfRequired(ctx context.Context, p payment.Payment) (payment.OTP, error) {
	if !p.OTPRequired() {
		return payment.OTP{}, nil
	}
	otp, err := s.payments.LatestOTP(ctx, p.ID())
	if err != nil {
		if errors.Is(err, payment.ErrNoOTP) {
			return payment.OTP{}, payment.ErrOTPNotVerified
		}
		return payment.OTP{}, err
	}
	return otp, nil
}

// validateExecution is shared between the advisory pre-flight and the
// locked re-validation so the two can never drift apart.
func validateExecution(p payment.Payment, f fund.Fund, otp payment.OTP, executorID uuid.UUID, now time.Time) error {
	if p.IsExecuted() {
		return payment.ErrAlreadyExecuted
	}
	if executorID == p.RequesterID() {
		return payment.ErrExecutorIsRequester
	}
	if p.RetriesExhausted() {
		return payment.ErrRetriesExhausted
	}
	if p.OTPRequired() {
		if !otp.IsVerified() {
			return payment.ErrOTPNotVerified
		}
		if otp.IsExpired(now) {
			return payment.ErrOTPExpired
		}
	}
	if !f.CanCover(p.Amount()) {
		return fund.ErrInsufficientBalance
	}
	return nil
}

// recordFailure runs outside the rolled-back execution transaction. A
// payment that already reached a success state concurrently is left alone.
func (s *PaymentService) recordFailure(ctx context.Context, paymentID uuid.UUID, cause error) {
	err := inTx(ctx, func(txCtx context.Context) error {
		p, err := s.payments.GetByIDForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}
		if p.IsExecuted() {
			return nil
		}
		p.MarkFailed()
		if err := s.payments.Update(txCtx, p); err != nil {
			return err
		}
		s.publisher.Publish(payment.NewFailedEvent(p, cause.Error()))
		return nil
	})
	if err != nil {
		composables.UseLogger(ctx).WithError(err).
			WithField("payment_id", paymentID).
			Error("failed to record payment failure")
	}
}

func (s *PaymentService) submitToGateway(ctx context.Context, p payment.Payment, exec payment.Execution) {
	if s.gateway == nil {
		return
	}
	receipt, err := s.gateway.Submit(ctx, payment.Instruction{
		Destination: p.Destination(),
		Amount:      p.Amount(),
		Reference:   exec.GatewayReference(),
		Description: "requisition " + p.RequisitionID().String(),
	})
	if err != nil {
		// The debit already committed; settlement arrives via Reconcile.
		composables.UseLogger(ctx).WithError(err).
			WithField("payment_id", p.ID()).
			Warn("gateway submission failed, awaiting asynchronous reconciliation")
		return
	}
	composables.UseLogger(ctx).
		WithField("payment_id", p.ID()).
		WithField("gateway_reference", receipt.GatewayReference).
		WithField("gateway_status", receipt.Status).
		Info("payment submitted to gateway")
}
