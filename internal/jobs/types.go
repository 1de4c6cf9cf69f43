package jobs

type JobType string

const (
	// Booking lifecycle
	JobBookingConfirmation JobType = "booking.confirmation"
	JobBookingRequestAlert JobType = "booking.request_alert"
	JobBookingStatusChange JobType = "booking.status_change"

	// Contact form
	JobContactAlert JobType = "contact.alert"

	// Auth
	JobPasswordReset JobType = "auth.password_reset"

	// Operational alerts, routed through the same queue
	JobDeliveryFailureAlert JobType = "email.delivery_failure_alert"
	JobQueueHealthAlert     JobType = "queue.health_alert"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobBookingConfirmation, JobBookingRequestAlert, JobBookingStatusChange,
		JobContactAlert, JobPasswordReset,
		JobDeliveryFailureAlert, JobQueueHealthAlert:
		return true
	default:
		return false
	}
}

// IsAlert reports whether the job type is itself an operational alert.
// Alert jobs that exhaust their retries must not spawn further alerts,
// otherwise a dead SMTP provider turns the queue into an alert loop.
func (t JobType) IsAlert() bool {
	return t == JobDeliveryFailureAlert || t == JobQueueHealthAlert
}
