package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/payment"
	"github.com/iota-uz/spendflow/modules/finance/infrastructure/persistence/models"
	"github.com/iota-uz/spendflow/pkg/composables"
)

const paymentColumns = `
	id, requisition_id, requester_id, company, region, branch,
	amount::text, method, destination, status, executor_id,
	otp_required, retry_count, max_retries, created_at, updated_at`

const otpColumns = `id, payment_id, code_hash, expires_at, verified_at, created_at`

const executionColumns = `id, payment_id, executor_id, gateway_reference, gateway_status, otp_verified_at, created_at`

type PaymentRepository struct{}

func NewPaymentRepository() payment.Repository {
	return &PaymentRepository{}
}

func (r *PaymentRepository) Create(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return payment.Payment{}, err
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO payments (
			requisition_id, requester_id, company, region, branch,
			amount, method, destination, status, otp_required, retry_count, max_retries
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+paymentColumns,
		p.RequisitionID().String(),
		p.RequesterID().String(),
		p.Scope().Company,
		p.Scope().Region,
		p.Scope().Branch,
		p.Amount().String(),
		string(p.Method()),
		p.Destination(),
		string(p.Status()),
		p.OTPRequired(),
		int32(p.RetryCount()),
		int32(p.MaxRetries()),
	)
	return scanPayment(row)
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (payment.Payment, error) {
	return r.getBy(ctx, `WHERE id = $1`, id.String())
}

func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (payment.Payment, error) {
	return r.getBy(ctx, `WHERE id = $1 FOR UPDATE`, id.String())
}

func (r *PaymentRepository) GetByRequisitionID(ctx context.Context, requisitionID uuid.UUID) (payment.Payment, error) {
	return r.getBy(ctx, `WHERE requisition_id = $1`, requisitionID.String())
}

func (r *PaymentRepository) GetByGatewayReference(ctx context.Context, reference string) (payment.Payment, error) {
	return r.getBy(ctx, `
		WHERE id = (
			SELECT payment_id FROM payment_executions WHERE gateway_reference = $1
		) FOR UPDATE`, reference)
}

func (r *PaymentRepository) getBy(ctx context.Context, clause string, args ...interface{}) (payment.Payment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return payment.Payment{}, err
	}
	row := tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments `+clause, args...)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payment.Payment{}, payment.ErrNotFound
		}
		return payment.Payment{}, err
	}
	return p, nil
}

func (r *PaymentRepository) Update(ctx context.Context, p payment.Payment) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	var executorID *string
	if p.ExecutorID() != uuid.Nil {
		value := p.ExecutorID().String()
		executorID = &value
	}
	tag, err := tx.Exec(ctx, `
		UPDATE payments
		SET status = $2,
			executor_id = $3,
			retry_count = $4,
			updated_at = now()
		WHERE id = $1`,
		p.ID().String(),
		string(p.Status()),
		executorID,
		int32(p.RetryCount()),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrNotFound
	}
	return nil
}

func (r *PaymentRepository) CreateOTP(ctx context.Context, otp payment.OTP) (payment.OTP, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return payment.OTP{}, err
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO payment_otps (payment_id, code_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING `+otpColumns,
		otp.PaymentID().String(),
		otp.CodeHash(),
		otp.ExpiresAt(),
	)
	return scanOTP(row)
}

func (r *PaymentRepository) LatestOTP(ctx context.Context, paymentID uuid.UUID) (payment.OTP, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return payment.OTP{}, err
	}
	row := tx.QueryRow(ctx, `
		SELECT `+otpColumns+`
		FROM payment_otps
		WHERE payment_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		paymentID.String(),
	)
	otp, err := scanOTP(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payment.OTP{}, payment.ErrNoOTP
		}
		return payment.OTP{}, err
	}
	return otp, nil
}

// MarkOTPVerified only flips unverified rows, so the slower of two racing
// verifications sees zero rows affected and loses.
func (r *PaymentRepository) MarkOTPVerified(ctx context.Context, otpID uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE payment_otps
		SET verified_at = now()
		WHERE id = $1 AND verified_at IS NULL`,
		otpID.String(),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PaymentRepository) CreateExecution(ctx context.Context, e payment.Execution) (payment.Execution, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return payment.Execution{}, err
	}
	var otpVerifiedAt *time.Time
	if !e.OTPVerifiedAt().IsZero() {
		value := e.OTPVerifiedAt()
		otpVerifiedAt = &value
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO payment_executions (payment_id, executor_id, gateway_reference, gateway_status, otp_verified_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+executionColumns,
		e.PaymentID().String(),
		e.ExecutorID().String(),
		e.GatewayReference(),
		e.GatewayStatus(),
		otpVerifiedAt,
	)
	return scanExecution(row)
}

func scanPayment(row pgx.Row) (payment.Payment, error) {
	var m models.Payment
	if err := row.Scan(
		&m.ID, &m.RequisitionID, &m.RequesterID,
		&m.Company, &m.Region, &m.Branch,
		&m.Amount, &m.Method, &m.Destination, &m.Status, &m.ExecutorID,
		&m.OTPRequired, &m.RetryCount, &m.MaxRetries, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return payment.Payment{}, err
	}
	return toDomainPayment(&m)
}

func scanOTP(row pgx.Row) (payment.OTP, error) {
	var m models.PaymentOTP
	if err := row.Scan(
		&m.ID, &m.PaymentID, &m.CodeHash,
		&m.ExpiresAt, &m.VerifiedAt, &m.CreatedAt,
	); err != nil {
		return payment.OTP{}, err
	}
	return toDomainOTP(&m)
}

func scanExecution(row pgx.Row) (payment.Execution, error) {
	var m models.PaymentExecution
	if err := row.Scan(
		&m.ID, &m.PaymentID, &m.ExecutorID,
		&m.GatewayReference, &m.GatewayStatus, &m.OTPVerifiedAt, &m.CreatedAt,
	); err != nil {
		return payment.Execution{}, err
	}
	return toDomainExecution(&m)
}
