package viewmodels

type WorkflowStep struct {
	ApproverID    string `json:"approver_id"`
	Role          string `json:"role"`
	AutoEscalated bool   `json:"auto_escalated"`
}

type Requisition struct {
	ID             string         `json:"id"`
	RequesterID    string         `json:"requester_id"`
	Origin         string         `json:"origin"`
	Company        string         `json:"company"`
	Region         string         `json:"region"`
	Branch         string         `json:"branch"`
	Department     string         `json:"department,omitempty"`
	Amount         string         `json:"amount"`
	AmountDisplay  string         `json:"amount_display"`
	Purpose        string         `json:"purpose"`
	Method         string         `json:"method,omitempty"`
	Destination    string         `json:"destination,omitempty"`
	Urgent         bool           `json:"urgent"`
	TierName       string         `json:"tier_name"`
	AllowFastTrack bool           `json:"allow_fast_track"`
	Status         string         `json:"status"`
	NextApprover   string         `json:"next_approver,omitempty"`
	Workflow       []WorkflowStep `json:"workflow"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
}

type TrailEntry struct {
	ID            string   `json:"id"`
	RequisitionID string   `json:"requisition_id"`
	ActorID       string   `json:"actor_id"`
	ActorRole     string   `json:"actor_role"`
	Action        string   `json:"action"`
	Comment       string   `json:"comment,omitempty"`
	Escalated     bool     `json:"escalated"`
	SkippedRoles  []string `json:"skipped_roles,omitempty"`
	Override      bool     `json:"override"`
	CreatedAt     string   `json:"created_at"`
}

type Payment struct {
	ID            string `json:"id"`
	RequisitionID string `json:"requisition_id"`
	Company       string `json:"company"`
	Region        string `json:"region"`
	Branch        string `json:"branch"`
	Amount        string `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	Method        string `json:"method"`
	Destination   string `json:"destination,omitempty"`
	Status        string `json:"status"`
	ExecutorID    string `json:"executor_id,omitempty"`
	RetryCount    int    `json:"retry_count"`
	MaxRetries    int    `json:"max_retries"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type Fund struct {
	ID                  string `json:"id"`
	Company             string `json:"company"`
	Region              string `json:"region"`
	Branch              string `json:"branch"`
	Balance             string `json:"balance"`
	BalanceDisplay      string `json:"balance_display"`
	ReorderLevel        string `json:"reorder_level"`
	ReorderLevelDisplay string `json:"reorder_level_display"`
	BelowReorderLevel   bool   `json:"below_reorder_level"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

type LedgerEntry struct {
	ID            string `json:"id"`
	FundID        string `json:"fund_id"`
	EntryType     string `json:"entry_type"`
	Amount        string `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	ExecutionID   string `json:"execution_id,omitempty"`
	Reconciled    bool   `json:"reconciled"`
	CreatedAt     string `json:"created_at"`
}

type VarianceAdjustment struct {
	ID             string `json:"id"`
	FundID         string `json:"fund_id"`
	PaymentID      string `json:"payment_id"`
	OriginalAmount string `json:"original_amount"`
	AdjustedAmount string `json:"adjusted_amount"`
	Variance       string `json:"variance"`
	Reason         string `json:"reason"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}
