package core

// OutcomeStatus classifies a single recipient's delivery result.
type OutcomeStatus string

const (
	OutcomeDelivered OutcomeStatus = "delivered"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeFailed    OutcomeStatus = "failed"
)

// DeliveryOutcome is the per-recipient result of a dispatch. Skipped and
// Failed carry a reason code; Delivered carries none.
type DeliveryOutcome struct {
	Status OutcomeStatus
	Reason string
}

// Delivered reports a successful delivery.
func Delivered() DeliveryOutcome {
	return DeliveryOutcome{Status: OutcomeDelivered}
}

// Skipped reports an intentional exclusion, e.g. the sender itself.
func Skipped(reason string) DeliveryOutcome {
	return DeliveryOutcome{Status: OutcomeSkipped, Reason: reason}
}

// Failed reports a delivery failure for one recipient.
func Failed(reason string) DeliveryOutcome {
	return DeliveryOutcome{Status: OutcomeFailed, Reason: reason}
}

// DeliveryReport maps each resolved recipient to its outcome. Recipients
// outside the resolved set never appear in the report.
type DeliveryReport map[string]DeliveryOutcome

// DeliveredTo reports whether the participant received the message.
func (r DeliveryReport) DeliveredTo(participant string) bool {
	out, ok := r[participant]
	return ok && out.Status == OutcomeDelivered
}
