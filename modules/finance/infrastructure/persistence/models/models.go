package models

import "time"

type Approver struct {
	ID          string
	Name        string
	Email       string
	Role        string
	Company     string
	Region      string
	Branch      string
	Department  string
	Centralized bool
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Requisition struct {
	ID             string
	RequesterID    string
	Origin         string
	Company        string
	Region         string
	Branch         string
	Department     string
	Amount         string
	Purpose        string
	Method         string
	Destination    string
	Urgent         bool
	TierName       string
	AllowFastTrack bool
	Workflow       []byte
	StepIndex      int32
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ApprovalTrailEntry struct {
	ID            string
	RequisitionID string
	ActorID       string
	ActorRole     string
	Action        string
	Comment       string
	Escalated     bool
	SkippedRoles  []byte
	Override      bool
	CreatedAt     time.Time
}

type Fund struct {
	ID           string
	Company      string
	Region       string
	Branch       string
	Balance      string
	ReorderLevel string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type LedgerEntry struct {
	ID          string
	FundID      string
	EntryType   string
	Amount      string
	ExecutionID *string
	Reconciled  bool
	CreatedAt   time.Time
}

type Payment struct {
	ID            string
	RequisitionID string
	RequesterID   string
	Company       string
	Region        string
	Branch        string
	Amount        string
	Method        string
	Destination   string
	Status        string
	ExecutorID    *string
	OTPRequired   bool
	RetryCount    int32
	MaxRetries    int32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PaymentOTP struct {
	ID         string
	PaymentID  string
	CodeHash   string
	ExpiresAt  time.Time
	VerifiedAt *time.Time
	CreatedAt  time.Time
}

type PaymentExecution struct {
	ID               string
	PaymentID        string
	ExecutorID       string
	GatewayReference string
	GatewayStatus    string
	OTPVerifiedAt    *time.Time
	CreatedAt        time.Time
}

type ReplenishmentRequest struct {
	ID              string
	FundID          string
	BalanceSnapshot string
	RequestedAmount string
	Status          string
	AutoTriggered   bool
	CreatedAt       time.Time
}

type VarianceAdjustment struct {
	ID             string
	FundID         string
	PaymentID      string
	OriginalAmount string
	AdjustedAmount string
	Reason         string
	Status         string
	CreatedAt      time.Time
}
