package payment

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/iota-uz/spendflow/pkg/serrors"
)

var (
	ErrOTPInvalid = serrors.NewError(
		"FINANCE_VALIDATION_OTP_INVALID",
		"one-time password is incorrect",
		"Finance.Errors.OTPInvalid",
	)
	ErrOTPExpired = serrors.NewError(
		"FINANCE_VALIDATION_OTP_EXPIRED",
		"one-time password has expired",
		"Finance.Errors.OTPExpired",
	)
	ErrOTPAlreadyUsed = serrors.NewError(
		"FINANCE_VALIDATION_OTP_USED",
		"one-time password has already been used",
		"Finance.Errors.OTPUsed",
	)
	ErrOTPNotVerified = serrors.NewError(
		"FINANCE_VALIDATION_OTP_NOT_VERIFIED",
		"payment requires a verified one-time password",
		"Finance.Errors.OTPNotVerified",
	)
)

// GenerateCode returns a 6-digit numeric code from crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// OTP is the second factor gating payment execution. Only the bcrypt hash is
// stored; bcrypt embeds a fresh random salt per hash, so identical codes for
// different payments never share a digest.
type OTP struct {
	id         uuid.UUID
	paymentID  uuid.UUID
	codeHash   string
	expiresAt  time.Time
	verifiedAt time.Time
	createdAt  time.Time
}

func NewOTP(paymentID uuid.UUID, code string, ttl time.Duration) (OTP, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return OTP{}, err
	}
	return OTP{
		paymentID: paymentID,
		codeHash:  string(hash),
		expiresAt: time.Now().Add(ttl),
	}, nil
}

func HydrateOTP(
	id uuid.UUID,
	paymentID uuid.UUID,
	codeHash string,
	expiresAt time.Time,
	verifiedAt time.Time,
	createdAt time.Time,
) OTP {
	return OTP{
		id:         id,
		paymentID:  paymentID,
		codeHash:   codeHash,
		expiresAt:  expiresAt,
		verifiedAt: verifiedAt,
		createdAt:  createdAt,
	}
}

func (o OTP) ID() uuid.UUID         { return o.id }
func (o OTP) PaymentID() uuid.UUID  { return o.paymentID }
func (o OTP) CodeHash() string      { return o.codeHash }
func (o OTP) ExpiresAt() time.Time  { return o.expiresAt }
func (o OTP) VerifiedAt() time.Time { return o.verifiedAt }
func (o OTP) CreatedAt() time.Time  { return o.createdAt }
func (o OTP) IsZero() bool          { return o.paymentID == uuid.Nil }

func (o OTP) IsVerified() bool {
	return !o.verifiedAt.IsZero()
}

func (o OTP) IsExpired(now time.Time) bool {
	return now.After(o.expiresAt)
}

// Matches compares a candidate code against the stored hash.
func (o OTP) Matches(code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(o.codeHash), []byte(code)) == nil
}
