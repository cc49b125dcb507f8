package fund

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryDebit      EntryType = "debit"
	EntryCredit     EntryType = "credit"
	EntryAdjustment EntryType = "adjustment"
)

// LedgerEntry is one immutable line of the fund journal. A balance change
// without a matching entry in the same transaction is structurally
// impossible; repositories expose no way to update the balance alone.
type LedgerEntry struct {
	id          uuid.UUID
	fundID      uuid.UUID
	entryType   EntryType
	amount      decimal.Decimal
	executionID uuid.UUID
	reconciled  bool
	createdAt   time.Time
}

func NewLedgerEntry(fundID uuid.UUID, entryType EntryType, amount decimal.Decimal) LedgerEntry {
	return LedgerEntry{
		fundID:    fundID,
		entryType: entryType,
		amount:    amount,
	}
}

func (e LedgerEntry) WithExecution(executionID uuid.UUID) LedgerEntry {
	e.executionID = executionID
	return e
}

func (e LedgerEntry) AsReconciled() LedgerEntry {
	e.reconciled = true
	return e
}

func HydrateLedgerEntry(
	id uuid.UUID,
	fundID uuid.UUID,
	entryType EntryType,
	amount decimal.Decimal,
	executionID uuid.UUID,
	reconciled bool,
	createdAt time.Time,
) LedgerEntry {
	return LedgerEntry{
		id:          id,
		fundID:      fundID,
		entryType:   entryType,
		amount:      amount,
		executionID: executionID,
		reconciled:  reconciled,
		createdAt:   createdAt,
	}
}

func (e LedgerEntry) ID() uuid.UUID           { return e.id }
func (e LedgerEntry) FundID() uuid.UUID       { return e.fundID }
func (e LedgerEntry) EntryType() EntryType    { return e.entryType }
func (e LedgerEntry) Amount() decimal.Decimal { return e.amount }
func (e LedgerEntry) ExecutionID() uuid.UUID  { return e.executionID }
func (e LedgerEntry) IsReconciled() bool      { return e.reconciled }
func (e LedgerEntry) CreatedAt() time.Time    { return e.createdAt }
