package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersByLabel(t *testing.T) {
	before := testutil.ToFloat64(OTPVerificationsTotal.WithLabelValues("password_reset", "purpose_mismatch"))
	OTPVerificationsTotal.WithLabelValues("password_reset", "purpose_mismatch").Inc()
	if got := testutil.ToFloat64(OTPVerificationsTotal.WithLabelValues("password_reset", "purpose_mismatch")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}

	before = testutil.ToFloat64(GuardRejectionsTotal.WithLabelValues("missing_header"))
	GuardRejectionsTotal.WithLabelValues("missing_header").Inc()
	if got := testutil.ToFloat64(GuardRejectionsTotal.WithLabelValues("missing_header")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}
