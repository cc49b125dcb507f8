package threshold

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approver"
	"github.com/iota-uz/spendflow/pkg/serrors"
)

// ErrNoMatch means the approval matrix has a hole. This is a configuration
// fault and must surface loudly; routing never falls back to a default tier.
var ErrNoMatch = serrors.NewError(
	"FINANCE_CONFIGURATION_NO_THRESHOLD",
	"no approval threshold matches amount and origin",
	"Finance.Errors.NoThresholdMatch",
)

// Catalog is the explicit approval matrix handed to the resolver. It is an
// immutable value, never a process-wide mutable table.
type Catalog struct {
	thresholds []Threshold
}

func NewCatalog(thresholds []Threshold) Catalog {
	owned := make([]Threshold, len(thresholds))
	copy(owned, thresholds)
	return Catalog{thresholds: owned}
}

// Match selects the threshold governing amount for the given origin.
// Origin-specific entries take precedence over OriginAny; among remaining
// candidates the lowest priority wins, then name, keeping selection
// deterministic for identical configuration.
func (c Catalog) Match(amount decimal.Decimal, origin OriginScope) (Threshold, error) {
	var candidates []Threshold
	for _, t := range c.thresholds {
		if !t.covers(amount) {
			continue
		}
		if t.origin != origin && t.origin != OriginAny {
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return Threshold{}, ErrNoMatch.WithTemplateData(map[string]string{
			"amount": amount.String(),
			"origin": string(origin),
		})
	}

	exact := candidates[:0:0]
	for _, t := range candidates {
		if t.origin == origin {
			exact = append(exact, t)
		}
	}
	if len(exact) > 0 {
		candidates = exact
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].priority != candidates[j].priority {
			return candidates[i].priority < candidates[j].priority
		}
		return candidates[i].name < candidates[j].name
	})
	return candidates[0], nil
}

func (c Catalog) Size() int {
	return len(c.thresholds)
}

// TierExecutive is the ceiling tier: urgent requisitions never fast-track
// past executive review.
const TierExecutive = "executive"

// BuiltIn is the default approval matrix used when no deployment-specific
// catalog is configured.
func BuiltIn() Catalog {
	amt := decimal.RequireFromString
	return NewCatalog([]Threshold{
		New("tier-1", OriginAny, amt("0"), amt("1000"),
			[]approver.Role{approver.RoleBranchManager},
		).With(WithFastTrack(), WithPriority(10)),
		New("tier-2", OriginAny, amt("1000.01"), amt("10000"),
			[]approver.Role{approver.RoleBranchManager, approver.RoleFinanceOfficer},
		).With(WithFastTrack(), WithPriority(10)),
		New("tier-2-field", OriginField, amt("1000.01"), amt("10000"),
			[]approver.Role{approver.RoleFieldCoordinator, approver.RoleFinanceOfficer},
		).With(WithFastTrack(), WithPriority(5)),
		New("tier-3", OriginAny, amt("10000.01"), amt("100000"),
			[]approver.Role{
				approver.RoleBranchManager,
				approver.RoleRegionalDirector,
				approver.RoleFinanceOfficer,
			},
		).With(WithFastTrack(), WithFinalReviewer(), WithPriority(10)),
		New(TierExecutive, OriginAny, amt("100000.01"), amt("100000000"),
			[]approver.Role{
				approver.RoleFinanceOfficer,
				approver.RoleTreasuryOfficer,
				approver.RoleCFO,
			},
		).With(WithFinalReviewer(), WithPriority(10)),
	})
}
