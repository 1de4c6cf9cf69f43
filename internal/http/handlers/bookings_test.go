package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rossvale/modelfolio/internal/config"
	"github.com/rossvale/modelfolio/internal/domain/booking"
	"github.com/rossvale/modelfolio/internal/domain/job"
	"github.com/rossvale/modelfolio/internal/http/handlers"
	"github.com/rossvale/modelfolio/internal/jobs"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func newUUID() string {
	return uuid.NewString()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

// Fakes implementing the handlers.BookingIntake / BookingsStore interfaces

type fakeBookingIntake struct {
	createFn func(ctx context.Context, req booking.CreateBookingRequest, jobsFor func(booking.Booking) ([]job.CreateRequest, error)) (booking.Booking, error)
	created  []job.CreateRequest
}

func (f *fakeBookingIntake) CreateBookingWithJobs(ctx context.Context, req booking.CreateBookingRequest, jobsFor func(booking.Booking) ([]job.CreateRequest, error)) (booking.Booking, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req, jobsFor)
	}

	// default behavior mirrors the real intake: persist, then build jobs
	// from the persisted row
	b := booking.NewFromCreateRequest(req)
	reqs, err := jobsFor(b)

	if err != nil {
		return booking.Booking{}, err
	}

	f.created = append(f.created, reqs...)
	return b, nil
}

type fakeBookingsStore struct {
	listFn         func(ctx context.Context, filter booking.ListFilter) ([]booking.Booking, int, error)
	getFn          func(ctx context.Context, id string) (booking.Booking, error)
	updateStatusFn func(ctx context.Context, id string, status booking.Status) (booking.Booking, error)
	setEventFn     func(ctx context.Context, id string, eventID *string) error
	deleteFn       func(ctx context.Context, id string) error

	setEventCalls []*string
}

func (f *fakeBookingsStore) List(ctx context.Context, filter booking.ListFilter) ([]booking.Booking, int, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (f *fakeBookingsStore) GetByID(ctx context.Context, id string) (booking.Booking, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return booking.Booking{}, nil
}

func (f *fakeBookingsStore) UpdateStatus(ctx context.Context, id string, status booking.Status) (booking.Booking, error) {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, id, status)
	}
	return booking.Booking{}, nil
}

func (f *fakeBookingsStore) SetCalendarEventID(ctx context.Context, id string, eventID *string) error {
	f.setEventCalls = append(f.setEventCalls, eventID)

	if f.setEventFn != nil {
		return f.setEventFn(ctx, id, eventID)
	}
	return nil
}

func (f *fakeBookingsStore) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

type fakeEnqueuer struct {
	createFn func(ctx context.Context, req job.CreateRequest) (job.Job, error)
	created  []job.CreateRequest
}

func (f *fakeEnqueuer) Create(ctx context.Context, req job.CreateRequest) (job.Job, error) {
	f.created = append(f.created, req)

	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return job.Job{ID: newUUID(), Type: req.Type, Payload: req.Payload}, nil
}

type fakeCalendar struct {
	createFn func(ctx context.Context, b booking.Booking) (string, error)
	updateFn func(ctx context.Context, eventID string, b booking.Booking) error
	deleteFn func(ctx context.Context, eventID string) error

	deleted []string
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, b booking.Booking) (string, error) {
	if f.createFn != nil {
		return f.createFn(ctx, b)
	}
	return "evt-" + b.ID, nil
}

func (f *fakeCalendar) UpdateEvent(ctx context.Context, eventID string, b booking.Booking) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, eventID, b)
	}
	return nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	f.deleted = append(f.deleted, eventID)

	if f.deleteFn != nil {
		return f.deleteFn(ctx, eventID)
	}
	return nil
}

func testConfig() config.Config {
	return config.Config{
		AdminEmail:    "admin@example.com",
		PublicBaseURL: "http://localhost:3000",
	}
}

func validBookingBody(now time.Time) string {
	return `{
		"name": "Jane Doe",
		"email": "jane@example.com",
		"phone": "+1 555 0100",
		"type": "editorial",
		"date": "` + now.Format(time.RFC3339) + `",
		"details": "Studio shoot"
	}`
}

func TestCreateBookingHandler(t *testing.T) {
	now := time.Now().UTC().Add(48 * time.Hour)

	tests := []struct {
		name           string
		body           string
		intakeSetup    func(*fakeBookingIntake)
		calSetup       func(*fakeCalendar)
		wantStatusCode int
		wantJobs       int
	}{
		{
			name:           "success_enqueues_confirmation_and_alert",
			body:           validBookingBody(now),
			wantStatusCode: http.StatusCreated,
			wantJobs:       2,
		},
		{
			name:           "validation_error",
			body:           `{"name": ""}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_type",
			body:           `{"name": "Jane Doe", "email": "jane@example.com", "type": "wedding", "date": "` + now.Format(time.RFC3339) + `"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "intake_error",
			body: validBookingBody(now),
			intakeSetup: func(f *fakeBookingIntake) {
				f.createFn = func(ctx context.Context, req booking.CreateBookingRequest, jobsFor func(booking.Booking) ([]job.CreateRequest, error)) (booking.Booking, error) {
					return booking.Booking{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			// calendar sync is best effort: a sync failure must not fail
			// the booking
			name: "calendar_failure_still_created",
			body: validBookingBody(now),
			calSetup: func(f *fakeCalendar) {
				f.createFn = func(ctx context.Context, b booking.Booking) (string, error) {
					return "", errors.New("calendar down")
				}
			},
			wantStatusCode: http.StatusCreated,
			wantJobs:       2,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			intake := &fakeBookingIntake{}
			store := &fakeBookingsStore{}
			queue := &fakeEnqueuer{}
			cal := &fakeCalendar{}

			if tt.intakeSetup != nil {
				tt.intakeSetup(intake)
			}
			if tt.calSetup != nil {
				tt.calSetup(cal)
			}

			h := handlers.NewBookingsHandler(intake, store, queue, cal, discardLogger(), testConfig())
			r := setupRouter(http.MethodPost, "/api/bookings", h.CreateBooking)

			req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if len(intake.created) != tt.wantJobs {
				t.Fatalf("got %d jobs, want %d", len(intake.created), tt.wantJobs)
			}
		})
	}
}

func TestCreateBookingHandler_JobsCarryBookingID(t *testing.T) {
	now := time.Now().UTC().Add(48 * time.Hour)

	intake := &fakeBookingIntake{}
	store := &fakeBookingsStore{}
	cal := &fakeCalendar{}

	h := handlers.NewBookingsHandler(intake, store, &fakeEnqueuer{}, cal, discardLogger(), testConfig())
	r := setupRouter(http.MethodPost, "/api/bookings", h.CreateBooking)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString(validBookingBody(now)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var created booking.Booking
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if len(intake.created) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(intake.created))
	}

	// the confirmation payload must reference the persisted booking id
	var p jobs.BookingConfirmationPayload
	if err := json.Unmarshal(intake.created[0].Payload, &p); err != nil {
		t.Fatalf("failed to unmarshal confirmation payload: %v", err)
	}

	if p.BookingID != created.ID {
		t.Fatalf("confirmation bookingId=%s, want %s", p.BookingID, created.ID)
	}
	if p.Email != "jane@example.com" {
		t.Fatalf("confirmation email=%s, want client address", p.Email)
	}

	// the alert goes to the admin inbox
	var a jobs.BookingRequestAlertPayload
	if err := json.Unmarshal(intake.created[1].Payload, &a); err != nil {
		t.Fatalf("failed to unmarshal alert payload: %v", err)
	}

	if a.Email != "admin@example.com" {
		t.Fatalf("alert email=%s, want admin address", a.Email)
	}
}

func TestListBookingsHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		url            string
		storeSetup     func(*fakeBookingsStore)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/api/bookings?status=pending&limit=10",
			storeSetup: func(f *fakeBookingsStore) {
				f.listFn = func(ctx context.Context, filter booking.ListFilter) ([]booking.Booking, int, error) {
					if filter.Status == nil || *filter.Status != "pending" {
						return nil, 0, errors.New("status filter not passed")
					}
					if filter.Limit != 10 {
						return nil, 0, errors.New("limit not passed")
					}
					return []booking.Booking{
						{ID: newUUID(), Name: "Jane", Email: "jane@example.com", Type: booking.TypeEditorial, Date: now, Status: booking.StatusPending},
					}, 1, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid_status_filter",
			url:            "/api/bookings?status=maybe",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_date_filter",
			url:            "/api/bookings?from=yesterday",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			url:  "/api/bookings",
			storeSetup: func(f *fakeBookingsStore) {
				f.listFn = func(ctx context.Context, filter booking.ListFilter) ([]booking.Booking, int, error) {
					return nil, 0, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeBookingsStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewBookingsHandler(&fakeBookingIntake{}, store, &fakeEnqueuer{}, &fakeCalendar{}, discardLogger(), testConfig())
			r := setupRouter(http.MethodGet, "/api/bookings", h.ListBookings)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestUpdateBookingStatusHandler(t *testing.T) {
	now := time.Now().UTC()
	validID := newUUID()

	tests := []struct {
		name           string
		body           string
		storeSetup     func(*fakeBookingsStore)
		wantStatusCode int
		wantQueued     int
	}{
		{
			name: "success_enqueues_status_email",
			body: `{"status": "confirmed"}`,
			storeSetup: func(f *fakeBookingsStore) {
				f.updateStatusFn = func(ctx context.Context, id string, status booking.Status) (booking.Booking, error) {
					return booking.Booking{ID: id, Name: "Jane", Email: "jane@example.com", Type: booking.TypeEditorial, Date: now, Status: status}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantQueued:     1,
		},
		{
			name: "not_found",
			body: `{"status": "confirmed"}`,
			storeSetup: func(f *fakeBookingsStore) {
				f.updateStatusFn = func(ctx context.Context, id string, status booking.Status) (booking.Booking, error) {
					return booking.Booking{}, booking.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "invalid_status",
			body:           `{"status": "done"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeBookingsStore{}
			queue := &fakeEnqueuer{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewBookingsHandler(&fakeBookingIntake{}, store, queue, &fakeCalendar{}, discardLogger(), testConfig())
			r := setupRouter(http.MethodPatch, "/api/bookings/:id/status", h.UpdateBookingStatus)

			req := httptest.NewRequest(http.MethodPatch, "/api/bookings/"+validID+"/status", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if len(queue.created) != tt.wantQueued {
				t.Fatalf("got %d queued jobs, want %d", len(queue.created), tt.wantQueued)
			}
		})
	}
}

func TestUpdateBookingStatusHandler_CancelledClearsCalendarEvent(t *testing.T) {
	now := time.Now().UTC()
	validID := newUUID()
	eventID := "evt-123"

	store := &fakeBookingsStore{}
	store.updateStatusFn = func(ctx context.Context, id string, status booking.Status) (booking.Booking, error) {
		return booking.Booking{
			ID:              id,
			Name:            "Jane",
			Email:           "jane@example.com",
			Type:            booking.TypeEditorial,
			Date:            now,
			Status:          status,
			CalendarEventID: &eventID,
		}, nil
	}

	cal := &fakeCalendar{}

	h := handlers.NewBookingsHandler(&fakeBookingIntake{}, store, &fakeEnqueuer{}, cal, discardLogger(), testConfig())
	r := setupRouter(http.MethodPatch, "/api/bookings/:id/status", h.UpdateBookingStatus)

	req := httptest.NewRequest(http.MethodPatch, "/api/bookings/"+validID+"/status", bytes.NewBufferString(`{"status": "cancelled"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if len(cal.deleted) != 1 || cal.deleted[0] != eventID {
		t.Fatalf("expected calendar event %s deleted, got %v", eventID, cal.deleted)
	}

	// the stored event id must be cleared afterwards
	if len(store.setEventCalls) != 1 || store.setEventCalls[0] != nil {
		t.Fatalf("expected SetCalendarEventID(nil), got %v", store.setEventCalls)
	}
}

func TestDeleteBookingHandler(t *testing.T) {
	validID := newUUID()
	missingID := newUUID()
	eventID := "evt-456"

	tests := []struct {
		name           string
		url            string
		storeSetup     func(*fakeBookingsStore)
		wantStatusCode int
		wantCalDeletes int
	}{
		{
			name: "success_removes_calendar_event",
			url:  "/api/bookings/" + validID,
			storeSetup: func(f *fakeBookingsStore) {
				f.getFn = func(ctx context.Context, id string) (booking.Booking, error) {
					return booking.Booking{ID: id, CalendarEventID: &eventID}, nil
				}
			},
			wantStatusCode: http.StatusNoContent,
			wantCalDeletes: 1,
		},
		{
			name: "not_found",
			url:  "/api/bookings/" + missingID,
			storeSetup: func(f *fakeBookingsStore) {
				f.getFn = func(ctx context.Context, id string) (booking.Booking, error) {
					return booking.Booking{}, booking.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "repo_error",
			url:  "/api/bookings/" + validID,
			storeSetup: func(f *fakeBookingsStore) {
				f.deleteFn = func(ctx context.Context, id string) error {
					return errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeBookingsStore{}
			cal := &fakeCalendar{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewBookingsHandler(&fakeBookingIntake{}, store, &fakeEnqueuer{}, cal, discardLogger(), testConfig())
			r := setupRouter(http.MethodDelete, "/api/bookings/:id", h.DeleteBooking)

			req := httptest.NewRequest(http.MethodDelete, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if len(cal.deleted) != tt.wantCalDeletes {
				t.Fatalf("got %d calendar deletes, want %d", len(cal.deleted), tt.wantCalDeletes)
			}
		})
	}
}
