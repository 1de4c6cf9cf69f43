package jobs

import "strings"

// ValidatePayload checks the required fields of a decoded payload. A payload
// that fails here would burn all three delivery attempts on the same error,
// so producers call this before enqueueing.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	blank := func(ss ...string) bool {
		for _, s := range ss {
			if strings.TrimSpace(s) == "" {
				return true
			}
		}
		return false
	}

	switch t {
	case JobBookingConfirmation:
		p, ok := asBookingConfirmation(payload)
		if !ok {
			return ErrPayloadTypeMismatch
		}
		if blank(p.BookingID, p.Email, p.Name, p.Type) || p.Date.IsZero() {
			return ErrInvalidJobPayload
		}
		return nil

	case JobBookingRequestAlert:
		p, ok := asBookingRequestAlert(payload)
		if !ok {
			return ErrPayloadTypeMismatch
		}
		if blank(p.BookingID, p.Email, p.Name, p.Type) || p.Date.IsZero() {
			return ErrInvalidJobPayload
		}
		return nil

	case JobBookingStatusChange:
		p, ok := asBookingStatusChange(payload)
		if !ok {
			return ErrPayloadTypeMismatch
		}
		if blank(p.BookingID, p.Email, p.Name, p.Status) {
			return ErrInvalidJobPayload
		}
		return nil

	case JobContactAlert:
		p, ok := asContactAlert(payload)
		if !ok {
			return ErrPayloadTypeMismatch
		}
		if blank(p.MessageID, p.Email, p.FromEmail, p.Subject) {
			return ErrInvalidJobPayload
		}
		return nil

	case JobPasswordReset:
		p, ok := asPasswordReset(payload)
		if !ok {
			return ErrPayloadTypeMismatch
		}
		if blank(p.Email, p.ResetURL) {
			return ErrInvalidJobPayload
		}
		return nil

	case JobDeliveryFailureAlert:
		p, ok := asDeliveryFailureAlert(payload)
		if !ok {
			return ErrPayloadTypeMismatch
		}
		if blank(p.Email, p.FailedJobID, p.OriginalTo) {
			return ErrInvalidJobPayload
		}
		return nil

	case JobQueueHealthAlert:
		p, ok := asQueueHealthAlert(payload)
		if !ok {
			return ErrPayloadTypeMismatch
		}
		if blank(p.Email) {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}

// value-or-pointer coercion helpers

func asBookingConfirmation(v any) (BookingConfirmationPayload, bool) {
	switch p := v.(type) {
	case BookingConfirmationPayload:
		return p, true
	case *BookingConfirmationPayload:
		return *p, true
	}
	return BookingConfirmationPayload{}, false
}

func asBookingRequestAlert(v any) (BookingRequestAlertPayload, bool) {
	switch p := v.(type) {
	case BookingRequestAlertPayload:
		return p, true
	case *BookingRequestAlertPayload:
		return *p, true
	}
	return BookingRequestAlertPayload{}, false
}

func asBookingStatusChange(v any) (BookingStatusChangePayload, bool) {
	switch p := v.(type) {
	case BookingStatusChangePayload:
		return p, true
	case *BookingStatusChangePayload:
		return *p, true
	}
	return BookingStatusChangePayload{}, false
}

func asContactAlert(v any) (ContactAlertPayload, bool) {
	switch p := v.(type) {
	case ContactAlertPayload:
		return p, true
	case *ContactAlertPayload:
		return *p, true
	}
	return ContactAlertPayload{}, false
}

func asPasswordReset(v any) (PasswordResetPayload, bool) {
	switch p := v.(type) {
	case PasswordResetPayload:
		return p, true
	case *PasswordResetPayload:
		return *p, true
	}
	return PasswordResetPayload{}, false
}

func asDeliveryFailureAlert(v any) (DeliveryFailureAlertPayload, bool) {
	switch p := v.(type) {
	case DeliveryFailureAlertPayload:
		return p, true
	case *DeliveryFailureAlertPayload:
		return *p, true
	}
	return DeliveryFailureAlertPayload{}, false
}

func asQueueHealthAlert(v any) (QueueHealthAlertPayload, bool) {
	switch p := v.(type) {
	case QueueHealthAlertPayload:
		return p, true
	case *QueueHealthAlertPayload:
		return *p, true
	}
	return QueueHealthAlertPayload{}, false
}
