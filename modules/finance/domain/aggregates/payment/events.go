package payment

type OTPIssuedEvent struct {
	Result Payment
	// Code is the plaintext code, carried only for the notification
	// subscriber; it is never persisted.
	Code string
}

func NewOTPIssuedEvent(result Payment, code string) *OTPIssuedEvent {
	return &OTPIssuedEvent{Result: result, Code: code}
}

type ExecutedEvent struct {
	Result    Payment
	Execution Execution
}

func NewExecutedEvent(result Payment, execution Execution) *ExecutedEvent {
	return &ExecutedEvent{Result: result, Execution: execution}
}

type FailedEvent struct {
	Result Payment
	Reason string
}

func NewFailedEvent(result Payment, reason string) *FailedEvent {
	return &FailedEvent{Result: result, Reason: reason}
}

type ReconciledEvent struct {
	Result           Payment
	GatewayReference string
	GatewayStatus    string
}

func NewReconciledEvent(result Payment, reference, status string) *ReconciledEvent {
	return &ReconciledEvent{Result: result, GatewayReference: reference, GatewayStatus: status}
}
