package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeValidation, http.StatusBadRequest, false},
		{CodeInsufficientStock, http.StatusConflict, false},
		{CodePriceMismatch, http.StatusConflict, false},
		{CodeOutOfRadius, http.StatusUnprocessableEntity, false},
		{CodeStateConflict, http.StatusUnprocessableEntity, false},
		{CodeOTPInvalidExpired, http.StatusBadRequest, false},
		{CodeDependency, http.StatusServiceUnavailable, true},
	}

	for _, tc := range cases {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Errorf("%s: expected status %d, got %d", tc.code, tc.status, meta.HTTPStatus)
		}
		if meta.Retryable != tc.retryable {
			t.Errorf("%s: expected retryable=%v", tc.code, tc.retryable)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("NO_SUCH_CODE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("socket closed")
	err := Wrap(CodeDependency, cause, "release stock")

	if err.Unwrap() != cause {
		t.Fatal("expected cause to survive wrapping")
	}
	if !IsCode(err, CodeDependency) {
		t.Fatal("expected dependency code")
	}
	if !IsRetryable(err) {
		t.Fatal("dependency errors must be retryable")
	}
}

func TestAsThroughWrappedChain(t *testing.T) {
	t.Parallel()

	inner := New(CodeCouponExpired, "coupon lapsed")
	outer := fmt.Errorf("apply coupon: %w", inner)

	typed := As(outer)
	if typed == nil || typed.Code() != CodeCouponExpired {
		t.Fatalf("expected coupon expired through chain, got %v", typed)
	}
}

func TestIsRetryableOnUntypedError(t *testing.T) {
	t.Parallel()

	if IsRetryable(fmt.Errorf("plain")) {
		t.Fatal("untyped errors are not retryable")
	}
}
