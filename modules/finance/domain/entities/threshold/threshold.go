package threshold

import (
	"github.com/shopspring/decimal"

	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approver"
)

type OriginScope string

const (
	OriginBranch OriginScope = "branch"
	OriginHQ     OriginScope = "hq"
	OriginField  OriginScope = "field"
	// OriginAny matches requisitions from every origin and yields to any
	// origin-specific threshold covering the same amount.
	OriginAny OriginScope = "any"
)

// Threshold is one tier of the approval matrix. Immutable once applied to a
// requisition: the resolver copies what it needs onto the requisition and
// later catalog edits never rewrite history.
type Threshold struct {
	name                  string
	origin                OriginScope
	minAmount             decimal.Decimal
	maxAmount             decimal.Decimal
	roles                 []approver.Role
	allowUrgentFastTrack  bool
	requiresFinalReviewer bool
	priority              int
	active                bool
}

func New(
	name string,
	origin OriginScope,
	minAmount, maxAmount decimal.Decimal,
	roles []approver.Role,
) Threshold {
	return Threshold{
		name:      name,
		origin:    origin,
		minAmount: minAmount,
		maxAmount: maxAmount,
		roles:     roles,
		active:    true,
	}
}

type Option func(*Threshold)

func WithFastTrack() Option {
	return func(t *Threshold) { t.allowUrgentFastTrack = true }
}

func WithFinalReviewer() Option {
	return func(t *Threshold) { t.requiresFinalReviewer = true }
}

func WithPriority(priority int) Option {
	return func(t *Threshold) { t.priority = priority }
}

func WithInactive() Option {
	return func(t *Threshold) { t.active = false }
}

func (t Threshold) With(opts ...Option) Threshold {
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

func (t Threshold) Name() string            { return t.name }
func (t Threshold) Origin() OriginScope     { return t.origin }
func (t Threshold) MinAmount() decimal.Decimal { return t.minAmount }
func (t Threshold) MaxAmount() decimal.Decimal { return t.maxAmount }
func (t Threshold) AllowUrgentFastTrack() bool { return t.allowUrgentFastTrack }
func (t Threshold) RequiresFinalReviewer() bool { return t.requiresFinalReviewer }
func (t Threshold) Priority() int           { return t.priority }
func (t Threshold) IsActive() bool          { return t.active }
func (t Threshold) IsZero() bool            { return t.name == "" }

// Roles returns a copy so callers cannot reorder the configured sequence.
func (t Threshold) Roles() []approver.Role {
	out := make([]approver.Role, len(t.roles))
	copy(out, t.roles)
	return out
}

func (t Threshold) covers(amount decimal.Decimal) bool {
	return t.active &&
		amount.GreaterThanOrEqual(t.minAmount) &&
		amount.LessThanOrEqual(t.maxAmount)
}
