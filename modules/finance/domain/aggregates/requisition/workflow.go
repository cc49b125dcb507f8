package requisition

import (
	"github.com/google/uuid"

	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approver"
)

// WorkflowStep is one resolved entry of the approver sequence. Role keeps
// the role the threshold asked for even when escalation reassigned the step
// to a fallback approver.
type WorkflowStep struct {
	ApproverID    uuid.UUID     `json:"approver_id"`
	Role          approver.Role `json:"role"`
	AutoEscalated bool          `json:"auto_escalated"`
}
