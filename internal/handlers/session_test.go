package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"attendance-backend/internal/handlers"
	"attendance-backend/internal/models"
	"attendance-backend/internal/repository"
	"attendance-backend/internal/router"
	"attendance-backend/internal/services"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	sessions := repository.NewMemorySessionStore()
	policies := repository.NewMemoryPolicyStore()
	logs := repository.NewMemoryNotificationLogStore()
	users := repository.NewMemoryUserStore()
	courses := repository.NewMemoryCourseStore()
	tenants := repository.NewMemoryTenantStore(models.Tenant{ID: "acme", Name: "Acme", Active: true})

	email := services.NewEmailService("", "", "", "", "noreply@test", "http://localhost:5173")
	sessionService := services.NewSessionService(sessions)
	resolver := services.NewPolicyResolver(policies)
	reminder := services.NewReminderService(logs, users, courses, email)
	reconcile := services.NewReconcileService(sessions, tenants, resolver, reminder, nil, services.DefaultReconcileConfig())

	return router.New(
		handlers.NewSessionHandler(sessionService),
		handlers.NewReconcileHandler(reconcile),
		"http://localhost:5173",
	)
}

func doJSON(t *testing.T, srv http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reader = bytes.NewReader(jsonBody)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func TestCheckInHandler(t *testing.T) {
	srv := newTestServer(t)
	userID, courseID := uuid.New(), uuid.New()

	rr := doJSON(t, srv, http.MethodPost, "/api/v1/tenants/acme/sessions/check-in", map[string]string{
		"user_id":   userID.String(),
		"course_id": courseID.String(),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var first struct {
		Session     models.Session `json:"session"`
		AlreadyOpen bool           `json:"already_open"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&first); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if first.AlreadyOpen {
		t.Error("Expected already_open=false on first check-in")
	}
	if first.Session.Status != models.SessionStatusOpen {
		t.Errorf("Expected open session, got %q", first.Session.Status)
	}

	// Second check-in returns the same session with 200.
	rr = doJSON(t, srv, http.MethodPost, "/api/v1/tenants/acme/sessions/check-in", map[string]string{
		"user_id":   userID.String(),
		"course_id": courseID.String(),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var second struct {
		Session     models.Session `json:"session"`
		AlreadyOpen bool           `json:"already_open"`
	}
	json.NewDecoder(rr.Body).Decode(&second)
	if !second.AlreadyOpen {
		t.Error("Expected already_open=true on second check-in")
	}
	if second.Session.ID != first.Session.ID {
		t.Errorf("Expected same session id, got %s and %s", first.Session.ID, second.Session.ID)
	}
}

func TestCheckInHandler_Validation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing user_id", map[string]string{"course_id": uuid.NewString()}},
		{"bad user_id", map[string]string{"user_id": "nope", "course_id": uuid.NewString()}},
		{"missing course_id", map[string]string{"user_id": uuid.NewString()}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/v1/tenants/acme/sessions/check-in", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("Expected VALIDATION_ERROR, got %q", resp.Error.Code)
			}
		})
	}
}

func TestHeartbeatHandler(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/v1/tenants/acme/sessions/check-in", map[string]string{
		"user_id":   uuid.NewString(),
		"course_id": uuid.NewString(),
	})
	var created struct {
		Session models.Session `json:"session"`
	}
	json.NewDecoder(rr.Body).Decode(&created)

	rr = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/v1/tenants/acme/sessions/%s/heartbeat", created.Session.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	// Unknown session → 404.
	rr = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/v1/tenants/acme/sessions/%s/heartbeat", uuid.New()), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", rr.Code)
	}
}

func TestCheckOutHandler(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/v1/tenants/acme/sessions/check-in", map[string]string{
		"user_id":   uuid.NewString(),
		"course_id": uuid.NewString(),
	})
	var created struct {
		Session models.Session `json:"session"`
	}
	json.NewDecoder(rr.Body).Decode(&created)

	path := fmt.Sprintf("/api/v1/tenants/acme/sessions/%s/check-out", created.Session.ID)

	rr = doJSON(t, srv, http.MethodPost, path, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var closed struct {
		Session models.Session `json:"session"`
	}
	json.NewDecoder(rr.Body).Decode(&closed)
	if closed.Session.Status != models.SessionStatusClosed {
		t.Errorf("Expected closed, got %q", closed.Session.Status)
	}
	if closed.Session.EndedAt == nil {
		t.Error("Expected ended_at on closed session")
	}

	// Second check-out → 409 INVALID_STATE.
	rr = doJSON(t, srv, http.MethodPost, path, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rr.Code)
	}
	var resp models.ErrorResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Error.Code != "INVALID_STATE" {
		t.Errorf("Expected INVALID_STATE, got %q", resp.Error.Code)
	}
}

func TestReconcileHandler(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/v1/tenants/acme/reconcile", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Report models.RunReport `json:"report"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if resp.Report.TenantID != "acme" {
		t.Errorf("Expected tenant acme in report, got %q", resp.Report.TenantID)
	}
}
