package customerrors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestKindsMapToStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidInput:   http.StatusBadRequest,
		KindUnauthorized:   http.StatusUnauthorized,
		KindForbidden:      http.StatusForbidden,
		KindNotFound:       http.StatusNotFound,
		KindConflict:       http.StatusConflict,
		KindRateLimited:    http.StatusTooManyRequests,
		KindTransientInfra: http.StatusServiceUnavailable,
		KindInternal:       http.StatusInternalServerError,
	}
	for kind, status := range cases {
		if got := New(kind, "x").Code; got != status {
			t.Fatalf("kind %s: expected %d, got %d", kind, status, got)
		}
	}
}

func TestTooManyRequestsHasItsOwnKind(t *testing.T) {
	err := GetBusinessError(fmt.Errorf("login: %w", ErrTooManyRequests))
	if err == nil {
		t.Fatal("expected a business error")
	}
	if err.Kind != KindRateLimited || err.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate_limited/429, got %s/%d", err.Kind, err.Code)
	}
	if New(KindInvalidInput, err.Message).Is(ErrTooManyRequests) {
		t.Fatal("expected an invalid input error not to match the rate limit sentinel")
	}
}
