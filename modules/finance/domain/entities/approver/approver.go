package approver

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
	"github.com/iota-uz/spendflow/pkg/serrors"
)

// Role is the closed set of approver roles. String-typed role comparisons
// were a recurring source of typos upstream, so every role the workflow can
// reference lives here, tagged with its scoping policy.
type Role string

const (
	RoleBranchManager    Role = "branch_manager"
	RoleFieldCoordinator Role = "field_coordinator"
	RoleRegionalDirector Role = "regional_director"
	RoleFinanceOfficer   Role = "finance_officer"
	RoleTreasuryOfficer  Role = "treasury_officer"
	RoleCFO              Role = "cfo"
	RoleAdmin            Role = "admin"
	RoleSuperuser        Role = "superuser"
)

var ErrUnknownRole = serrors.NewError(
	"FINANCE_UNKNOWN_ROLE",
	"unknown approver role",
	"Finance.Errors.UnknownRole",
)

func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleBranchManager, RoleFieldCoordinator, RoleRegionalDirector,
		RoleFinanceOfficer, RoleTreasuryOfficer, RoleCFO, RoleAdmin, RoleSuperuser:
		return Role(value), nil
	}
	return "", ErrUnknownRole.WithDetail(value)
}

// ScopePolicy says how candidates holding a role are narrowed to the
// requisition's organizational scope.
type ScopePolicy int

const (
	// ScopeBranch filters candidates to the requisition's branch.
	ScopeBranch ScopePolicy = iota
	// ScopeRegion filters candidates to the requisition's region.
	ScopeRegion
	// ScopeCompany filters candidates to the requisition's company.
	ScopeCompany
	// ScopeCentral applies no organizational filter at all.
	ScopeCentral
)

func (r Role) ScopePolicy() ScopePolicy {
	switch r {
	case RoleBranchManager:
		return ScopeBranch
	case RoleFieldCoordinator:
		return ScopeRegion
	case RoleRegionalDirector:
		return ScopeRegion
	case RoleFinanceOfficer:
		return ScopeCompany
	case RoleTreasuryOfficer, RoleCFO, RoleAdmin, RoleSuperuser:
		return ScopeCentral
	}
	return ScopeCentral
}

// Narrow reduces a requisition scope to the slice this role is filtered by.
func (r Role) Narrow(s orgscope.Scope) orgscope.Scope {
	switch r.ScopePolicy() {
	case ScopeBranch:
		return s.FundScope()
	case ScopeRegion:
		return s.RegionLevel()
	case ScopeCompany:
		return s.CompanyOnly()
	}
	return orgscope.Scope{}
}

// Approver mirrors the authenticated principal supplied by the identity
// provider. The core never writes these records.
type Approver struct {
	id          uuid.UUID
	name        string
	email       string
	role        Role
	scope       orgscope.Scope
	centralized bool
	active      bool
}

func New(id uuid.UUID, name string, role Role, scope orgscope.Scope) Approver {
	return Approver{
		id:     id,
		name:   name,
		role:   role,
		scope:  scope,
		active: true,
	}
}

func Hydrate(
	id uuid.UUID,
	name string,
	email string,
	role Role,
	scope orgscope.Scope,
	centralized bool,
	active bool,
) Approver {
	return Approver{
		id:          id,
		name:        name,
		email:       email,
		role:        role,
		scope:       scope,
		centralized: centralized,
		active:      active,
	}
}

func (a Approver) ID() uuid.UUID         { return a.id }
func (a Approver) Name() string          { return a.name }
func (a Approver) Email() string         { return a.email }
func (a Approver) Role() Role            { return a.role }
func (a Approver) Scope() orgscope.Scope { return a.scope }
func (a Approver) IsCentralized() bool   { return a.centralized }
func (a Approver) IsActive() bool        { return a.active }
func (a Approver) IsZero() bool          { return a.id == uuid.Nil }

var ErrNotFound = serrors.NewError(
	"FINANCE_APPROVER_NOT_FOUND",
	"approver not found",
	"Finance.Errors.ApproverNotFound",
)

// Directory is the read model over identity-provider principals.
type Directory interface {
	GetByID(ctx context.Context, id uuid.UUID) (Approver, error)
	// FindActiveByRole returns active holders of role matching every non-empty
	// field of scope, in a stable order.
	FindActiveByRole(ctx context.Context, role Role, scope orgscope.Scope) ([]Approver, error)
}
