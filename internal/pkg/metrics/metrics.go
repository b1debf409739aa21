// Package metrics defines and registers all custom Prometheus metrics for the
// brewly identity service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "brewly"

// ── Account metrics ───────────────────────────────────────────────────────────

// SignupsTotal counts accounts created through the signup flow.
var SignupsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_signups_total",
		Help:      "Total number of user accounts created.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "inactive", "unverified" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── OTP metrics ───────────────────────────────────────────────────────────────

// OTPIssuedTotal counts passcodes generated and stored.
// Label:
//   - purpose: "email_verification" or "password_reset"
var OTPIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_issued_total",
		Help:      "Total number of OTP codes issued, by purpose.",
	},
	[]string{"purpose"},
)

// OTPVerificationsTotal counts verification attempts.
// Labels:
//   - purpose: the purpose requested by the caller
//   - result: "success", "not_found", "purpose_mismatch", "code_mismatch", "expired" or "error"
var OTPVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verifications_total",
		Help:      "Total number of OTP verification attempts, by purpose and result.",
	},
	[]string{"purpose", "result"},
)

// OTPDeliveryFailuresTotal counts passcodes that could not be handed to the notifier.
// Label:
//   - purpose: "email_verification" or "password_reset"
var OTPDeliveryFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_delivery_failures_total",
		Help:      "Total number of OTP deliveries that failed, by purpose.",
	},
	[]string{"purpose"},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardRejectionsTotal counts requests refused by the authorization guard.
// Label:
//   - reason: "missing_header", "bad_format", "invalid_token", "wrong_type",
//     "unknown_user", "inactive" or "error"
var GuardRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_guard_rejections_total",
		Help:      "Total number of requests rejected by the authorization guard, by reason.",
	},
	[]string{"reason"},
)
