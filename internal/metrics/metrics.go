// Package metrics registers the relay's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VerificationsTotal counts callback signature verifications by
	// outcome ("ok", "rejected").
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wecom_relay",
			Name:      "verifications_total",
			Help:      "Total number of callback signature verifications",
		},
		[]string{"outcome"},
	)

	// ChallengeDecryptionsTotal counts URL-verification challenge
	// decryptions by outcome ("ok", "decrypt_error", "config_error").
	ChallengeDecryptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wecom_relay",
			Name:      "challenge_decryptions_total",
			Help:      "Total number of challenge decryption attempts",
		},
		[]string{"outcome"},
	)

	// ForwardsTotal counts callback forwards to the backend by the
	// status class returned ("2xx", "4xx", "5xx", "error").
	ForwardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wecom_relay",
			Name:      "backend_forwards_total",
			Help:      "Total number of callback forwards to the backend",
		},
		[]string{"status"},
	)

	// TokenRefreshesTotal counts access token fetches from the WeCom
	// API, i.e. cache misses that reached the platform.
	TokenRefreshesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wecom_relay",
			Name:      "token_refreshes_total",
			Help:      "Total number of access token refreshes",
		},
	)
)
