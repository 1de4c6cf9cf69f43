package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rossvale/modelfolio/internal/domain/contact"
	"github.com/rossvale/modelfolio/internal/domain/job"
	"github.com/rossvale/modelfolio/internal/http/handlers"
	"github.com/rossvale/modelfolio/internal/jobs"
)

type fakeContactIntake struct {
	createFn func(ctx context.Context, req contact.CreateMessageRequest, jobsFor func(contact.Message) ([]job.CreateRequest, error)) (contact.Message, error)
	created  []job.CreateRequest
}

func (f *fakeContactIntake) CreateContactWithJobs(ctx context.Context, req contact.CreateMessageRequest, jobsFor func(contact.Message) ([]job.CreateRequest, error)) (contact.Message, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req, jobsFor)
	}

	m := contact.NewFromCreateRequest(req)
	reqs, err := jobsFor(m)

	if err != nil {
		return contact.Message{}, err
	}

	f.created = append(f.created, reqs...)
	return m, nil
}

type fakeContactStore struct {
	listFn         func(ctx context.Context, status *string, limit, offset int) ([]contact.Message, int, error)
	updateStatusFn func(ctx context.Context, id string, status contact.Status) (contact.Message, error)
	deleteFn       func(ctx context.Context, id string) error
}

func (f *fakeContactStore) List(ctx context.Context, status *string, limit, offset int) ([]contact.Message, int, error) {
	if f.listFn != nil {
		return f.listFn(ctx, status, limit, offset)
	}
	return nil, 0, nil
}

func (f *fakeContactStore) UpdateStatus(ctx context.Context, id string, status contact.Status) (contact.Message, error) {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, id, status)
	}
	return contact.Message{}, nil
}

func (f *fakeContactStore) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

const validContactBody = `{
	"name": "Jane Doe",
	"email": "jane@example.com",
	"subject": "Collaboration",
	"message": "Hi, I would like to discuss a campaign."
}`

func TestCreateMessageHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		intakeSetup    func(*fakeContactIntake)
		wantStatusCode int
		wantJobs       int
	}{
		{
			name:           "success_enqueues_admin_alert",
			body:           validContactBody,
			wantStatusCode: http.StatusCreated,
			wantJobs:       1,
		},
		{
			name:           "validation_error",
			body:           `{"name": "x"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "intake_error",
			body: validContactBody,
			intakeSetup: func(f *fakeContactIntake) {
				f.createFn = func(ctx context.Context, req contact.CreateMessageRequest, jobsFor func(contact.Message) ([]job.CreateRequest, error)) (contact.Message, error) {
					return contact.Message{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			intake := &fakeContactIntake{}

			if tt.intakeSetup != nil {
				tt.intakeSetup(intake)
			}

			h := handlers.NewContactHandler(intake, &fakeContactStore{}, testConfig())
			r := setupRouter(http.MethodPost, "/api/contact", h.CreateMessage)

			req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if len(intake.created) != tt.wantJobs {
				t.Fatalf("got %d jobs, want %d", len(intake.created), tt.wantJobs)
			}

			if tt.wantJobs == 1 {
				var p jobs.ContactAlertPayload
				if err := json.Unmarshal(intake.created[0].Payload, &p); err != nil {
					t.Fatalf("failed to unmarshal alert payload: %v", err)
				}

				if p.Email != "admin@example.com" {
					t.Fatalf("alert email=%s, want admin inbox", p.Email)
				}
				if p.FromEmail != "jane@example.com" {
					t.Fatalf("alert fromEmail=%s, want sender address", p.FromEmail)
				}
			}
		})
	}
}

func TestListMessagesHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		storeSetup     func(*fakeContactStore)
		wantStatusCode int
	}{
		{
			name: "success_with_status_filter",
			url:  "/api/contact?status=new",
			storeSetup: func(f *fakeContactStore) {
				f.listFn = func(ctx context.Context, status *string, limit, offset int) ([]contact.Message, int, error) {
					if status == nil || *status != "new" {
						return nil, 0, errors.New("status filter not passed")
					}
					return []contact.Message{{ID: newUUID(), Name: "Jane", Status: contact.StatusNew}}, 1, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid_status_filter",
			url:            "/api/contact?status=archived",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			url:  "/api/contact",
			storeSetup: func(f *fakeContactStore) {
				f.listFn = func(ctx context.Context, status *string, limit, offset int) ([]contact.Message, int, error) {
					return nil, 0, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeContactStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewContactHandler(&fakeContactIntake{}, store, testConfig())
			r := setupRouter(http.MethodGet, "/api/contact", h.ListMessages)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestUpdateMessageStatusHandler(t *testing.T) {
	validID := newUUID()

	tests := []struct {
		name           string
		body           string
		storeSetup     func(*fakeContactStore)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"status": "read"}`,
			storeSetup: func(f *fakeContactStore) {
				f.updateStatusFn = func(ctx context.Context, id string, status contact.Status) (contact.Message, error) {
					return contact.Message{ID: id, Status: status}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			body: `{"status": "read"}`,
			storeSetup: func(f *fakeContactStore) {
				f.updateStatusFn = func(ctx context.Context, id string, status contact.Status) (contact.Message, error) {
					return contact.Message{}, contact.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "invalid_status",
			body:           `{"status": "spam"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeContactStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewContactHandler(&fakeContactIntake{}, store, testConfig())
			r := setupRouter(http.MethodPatch, "/api/contact/:id", h.UpdateMessageStatus)

			req := httptest.NewRequest(http.MethodPatch, "/api/contact/"+validID, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestDeleteMessageHandler(t *testing.T) {
	store := &fakeContactStore{
		deleteFn: func(ctx context.Context, id string) error {
			return contact.ErrNotFound
		},
	}

	h := handlers.NewContactHandler(&fakeContactIntake{}, store, testConfig())
	r := setupRouter(http.MethodDelete, "/api/contact/:id", h.DeleteMessage)

	req := httptest.NewRequest(http.MethodDelete, "/api/contact/"+newUUID(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusNotFound, w.Body.String())
	}
}
