package jobs

import "time"

// Each job type carries its own payload shape. Payloads are self-contained:
// the worker renders and sends from the payload alone, it never re-reads the
// originating document.

// BookingConfirmationPayload is the "request received" email to the client.
type BookingConfirmationPayload struct {
	BookingID string    `json:"bookingId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Date      time.Time `json:"date"`
}

// BookingRequestAlertPayload notifies the admin of a new booking request.
type BookingRequestAlertPayload struct {
	BookingID string    `json:"bookingId"`
	Email     string    `json:"email"` // admin inbox
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Type      string    `json:"type"`
	Date      time.Time `json:"date"`
	Details   string    `json:"details,omitempty"`
}

// BookingStatusChangePayload tells the client their booking moved state.
type BookingStatusChangePayload struct {
	BookingID string    `json:"bookingId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
}

// ContactAlertPayload forwards a contact-form submission to the admin.
type ContactAlertPayload struct {
	MessageID string `json:"messageId"`
	Email     string `json:"email"` // admin inbox
	FromName  string `json:"fromName"`
	FromEmail string `json:"fromEmail"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

// PasswordResetPayload carries the reset link; the raw token appears only
// here and in the URL, never in a stored document.
type PasswordResetPayload struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	ResetURL string `json:"resetUrl"`
}

// DeliveryFailureAlertPayload is enqueued exactly once when an email job
// exhausts its attempts.
type DeliveryFailureAlertPayload struct {
	Email           string `json:"email"` // admin inbox
	FailedJobID     string `json:"failedJobId"`
	FailedJobType   string `json:"failedJobType"`
	OriginalTo      string `json:"originalTo"`
	OriginalSubject string `json:"originalSubject"`
	LastError       string `json:"lastError"`
	Attempts        int    `json:"attempts"`
}

// QueueHealthAlertPayload is enqueued by the monitor loop when the failed
// count crosses its threshold.
type QueueHealthAlertPayload struct {
	Email           string `json:"email"` // admin inbox
	FailedCount     int    `json:"failedCount"`
	PendingCount    int    `json:"pendingCount"`
	ProcessingCount int    `json:"processingCount"`
}
