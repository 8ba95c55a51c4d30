package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("slot 2: %w", Generation("llm.Complete", 500, errors.New("boom")))

	if !errors.Is(err, ErrGeneration) {
		t.Errorf("expected wrapped generation error to match ErrGeneration")
	}
	if errors.Is(err, ErrValidation) {
		t.Errorf("expected generation error not to match ErrValidation")
	}
}

func TestEmptyResponseCountsAsGeneration(t *testing.T) {
	err := EmptyResponse("llm.Complete")

	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse match")
	}
	if !errors.Is(err, ErrGeneration) {
		t.Errorf("expected empty response to also match ErrGeneration")
	}
	if errors.Is(Generation("op", 0, nil), ErrEmptyResponse) {
		t.Errorf("expected plain generation error not to match ErrEmptyResponse")
	}
}

func TestGenerationCarriesStatus(t *testing.T) {
	err := Generation("llm.Complete", 503, nil)

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error")
	}
	if e.Status != 503 {
		t.Errorf("expected status 503, got %d", e.Status)
	}
	expected := "llm.Complete: completion endpoint returned status 503"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("op", "bad"), http.StatusBadRequest},
		{Auth("op", "no session"), http.StatusUnauthorized},
		{NotFound("op", "missing"), http.StatusNotFound},
		{Conflict("op", "busy"), http.StatusConflict},
		{DataAccess("op", errors.New("db down")), http.StatusServiceUnavailable},
		{Generation("op", 500, nil), http.StatusBadGateway},
		{EmptyResponse("op"), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v): expected %d, got %d", tt.err, tt.want, got)
		}
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(Validation("op", "brand voice text is required")); got != "brand voice text is required" {
		t.Errorf("expected validation message passthrough, got %q", got)
	}
	if got := UserMessage(EmptyResponse("op")); got != "Content generation failed. Please try again." {
		t.Errorf("unexpected generation message %q", got)
	}
}
