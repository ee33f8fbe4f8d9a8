package handlers_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/abrezinsky/quizroom/internal/errors"
	"github.com/abrezinsky/quizroom/internal/handlers"
	"github.com/abrezinsky/quizroom/internal/services"
)

func TestAPIError_Constructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *handlers.APIError
		wantStatus int
		wantCode   string
	}{
		{"bad request", handlers.BadRequest("bad"), http.StatusBadRequest, handlers.ErrCodeBadRequest},
		{"unauthorized", handlers.Unauthorized("login"), http.StatusUnauthorized, handlers.ErrCodeUnauthorized},
		{"not found", handlers.NotFound("missing"), http.StatusNotFound, handlers.ErrCodeNotFound},
		{"conflict", handlers.Conflict("taken"), http.StatusConflict, handlers.ErrCodeConflict},
		{"custom", handlers.NewAPIError(http.StatusTeapot, "TEAPOT", "short and stout"), http.StatusTeapot, "TEAPOT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Status != tt.wantStatus || tt.err.Code != tt.wantCode {
				t.Errorf("expected %d/%s, got %d/%s", tt.wantStatus, tt.wantCode, tt.err.Status, tt.err.Code)
			}
			if tt.err.Error() != tt.err.Message {
				t.Errorf("expected Error() to return the message, got %q", tt.err.Error())
			}
		})
	}
}

func TestInternalError_HidesCause(t *testing.T) {
	cause := fmt.Errorf("db connection failed")
	err := handlers.InternalError(cause)

	if err.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", err.Status)
	}
	if err.Message != "Internal server error" {
		t.Errorf("expected generic message, got %q", err.Message)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected the cause to stay reachable for logging")
	}
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found sentinel", services.ErrGameNotFound, http.StatusNotFound, handlers.ErrCodeNotFound},
		{"wrapped not found", fmt.Errorf("loading: %w", services.ErrQuestionNotFound), http.StatusNotFound, handlers.ErrCodeNotFound},
		{"validation", services.ErrTitleRequired, http.StatusBadRequest, handlers.ErrCodeValidation},
		{"invalid reference", services.ErrInvalidReference, http.StatusBadRequest, handlers.ErrCodeValidation},
		{"invalid input", errors.InvalidInput("nope"), http.StatusBadRequest, handlers.ErrCodeValidation},
		{"answers closed", services.ErrAnswersClosed, http.StatusConflict, handlers.ErrCodeAnswersClosed},
		{"conflict", errors.Conflict("duplicate"), http.StatusConflict, handlers.ErrCodeConflict},
		{"internal kind", errors.Internal(fmt.Errorf("disk")), http.StatusInternalServerError, handlers.ErrCodeInternalServer},
		{"plain error", fmt.Errorf("database is locked"), http.StatusInternalServerError, handlers.ErrCodeInternalServer},
		{"api error passthrough", handlers.BadRequest("x"), http.StatusBadRequest, handlers.ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := handlers.ToAPIError(tt.err)
			if got.Status != tt.wantStatus || got.Code != tt.wantCode {
				t.Errorf("expected %d/%s, got %d/%s", tt.wantStatus, tt.wantCode, got.Status, got.Code)
			}
		})
	}
}

func TestToAPIError_KeepsServiceMessage(t *testing.T) {
	got := handlers.ToAPIError(services.ErrTeamNameRequired)
	if got.Message != services.ErrTeamNameRequired.Message {
		t.Errorf("expected the service message, got %q", got.Message)
	}
}

func TestRequestDecoding(t *testing.T) {
	s := newTestSetup(t)

	tests := []struct {
		name string
		body any
	}{
		{"empty body", nil},
		{"malformed", `{"title":`},
		{"wrong type", `{"title": 42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.admin(t, http.MethodPost, "/api/admin/games", tt.body)
			expectErrorCode(t, rec, http.StatusBadRequest, handlers.ErrCodeBadRequest)
		})
	}
}

func TestIDParams(t *testing.T) {
	s := newTestSetup(t)

	for _, path := range []string{"/api/admin/games/abc", "/api/admin/games/0", "/api/admin/games/-3", "/api/admin/rounds/1.5"} {
		t.Run(path, func(t *testing.T) {
			rec := s.admin(t, http.MethodGet, path, nil)
			expectErrorCode(t, rec, http.StatusBadRequest, handlers.ErrCodeBadRequest)
		})
	}
}
