package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/rossvale/modelfolio/internal/domain/job"
)

// EncodePayload marshals a typed payload after checking it matches the job
// type, so a mismatched enqueue fails at the producer instead of in the
// worker three retries later.
func EncodePayload(t JobType, payload any) (json.RawMessage, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	ok := false

	switch t {
	case JobBookingConfirmation:
		switch payload.(type) {
		case BookingConfirmationPayload, *BookingConfirmationPayload:
			ok = true
		}
	case JobBookingRequestAlert:
		switch payload.(type) {
		case BookingRequestAlertPayload, *BookingRequestAlertPayload:
			ok = true
		}
	case JobBookingStatusChange:
		switch payload.(type) {
		case BookingStatusChangePayload, *BookingStatusChangePayload:
			ok = true
		}
	case JobContactAlert:
		switch payload.(type) {
		case ContactAlertPayload, *ContactAlertPayload:
			ok = true
		}
	case JobPasswordReset:
		switch payload.(type) {
		case PasswordResetPayload, *PasswordResetPayload:
			ok = true
		}
	case JobDeliveryFailureAlert:
		switch payload.(type) {
		case DeliveryFailureAlertPayload, *DeliveryFailureAlertPayload:
			ok = true
		}
	case JobQueueHealthAlert:
		switch payload.(type) {
		case QueueHealthAlertPayload, *QueueHealthAlertPayload:
			ok = true
		}
	}

	if !ok {
		return nil, ErrPayloadTypeMismatch
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return json.RawMessage(b), nil
}

// DecodePayload unmarshals j.Payload into the correct typed payload struct.
func DecodePayload(j job.Job) (any, error) {
	t := JobType(j.Type)

	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	unmarshal := func(dst any) error {
		if err := json.Unmarshal(j.Payload, dst); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return nil
	}

	switch t {
	case JobBookingConfirmation:
		var p BookingConfirmationPayload
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return p, nil

	case JobBookingRequestAlert:
		var p BookingRequestAlertPayload
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return p, nil

	case JobBookingStatusChange:
		var p BookingStatusChangePayload
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return p, nil

	case JobContactAlert:
		var p ContactAlertPayload
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return p, nil

	case JobPasswordReset:
		var p PasswordResetPayload
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return p, nil

	case JobDeliveryFailureAlert:
		var p DeliveryFailureAlertPayload
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return p, nil

	case JobQueueHealthAlert:
		var p QueueHealthAlertPayload
		if err := unmarshal(&p); err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, ErrInvalidJobType
	}
}
