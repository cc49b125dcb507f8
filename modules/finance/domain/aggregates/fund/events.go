package fund

type ReplenishmentRequestedEvent struct {
	Fund    Fund
	Request ReplenishmentRequest
}

func NewReplenishmentRequestedEvent(f Fund, request ReplenishmentRequest) *ReplenishmentRequestedEvent {
	return &ReplenishmentRequestedEvent{Fund: f, Request: request}
}

type VarianceDecidedEvent struct {
	Fund     Fund
	Variance VarianceAdjustment
}

func NewVarianceDecidedEvent(f Fund, variance VarianceAdjustment) *VarianceDecidedEvent {
	return &VarianceDecidedEvent{Fund: f, Variance: variance}
}
