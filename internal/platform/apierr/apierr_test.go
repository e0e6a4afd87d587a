package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOfWrapped(t *testing.T) {
	base := NotFound("chapter_not_found", "chapter not found")
	wrapped := fmt.Errorf("complete chapter: %w", base)

	if got := StatusOf(wrapped); got != http.StatusNotFound {
		t.Fatalf("StatusOf: got=%d want=%d", got, http.StatusNotFound)
	}
	ae, ok := As(wrapped)
	if !ok || ae.Code != "chapter_not_found" {
		t.Fatalf("As: got=%+v ok=%v", ae, ok)
	}
}

func TestStatusOfPlainError(t *testing.T) {
	if got := StatusOf(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("StatusOf: got=%d want=500", got)
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	if got := New(http.StatusConflict, "order_taken", nil).Error(); got != "order_taken" {
		t.Fatalf("code fallback: got=%q", got)
	}
	if got := New(http.StatusTeapot, "", nil).Error(); got != "api error (418)" {
		t.Fatalf("status fallback: got=%q", got)
	}
	var nilErr *Error
	if nilErr.Error() != "" {
		t.Fatalf("nil error should render empty")
	}
}
