package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	KeysCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "keyregistry",
		Name:      "activation_keys_created_total",
		Help:      "Activation keys persisted.",
	})

	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keyregistry",
		Name:      "activation_key_validation_failures_total",
		Help:      "Rejected activation key names, by reason.",
	}, []string{"reason"})

	KeysRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "keyregistry",
		Name:      "activation_keys_removed_total",
		Help:      "Activation key tokens deleted, individually or with their server.",
	})

	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keyregistry",
		Name:      "server_registrations_total",
		Help:      "Server registration attempts with an activation key, by outcome.",
	}, []string{"outcome"})
)
