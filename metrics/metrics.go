// Package metrics exposes the prometheus vectors shared by the
// dispatcher, car, and safety processes, following the teacher's
// top-level (non-internal) metrics package convention.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace     = "elevator"
	carNameLabel  = "car"
	operationName = "operation"
)

var (
	callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    namespace + "_call_duration_seconds",
			Help:    "Duration of dispatcher CALL handling, from accept to reply",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{},
	)

	callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: namespace + "_calls_total",
			Help: "Hall calls handled by the dispatcher, by outcome",
		},
		[]string{"outcome"}, // "assigned" or "unavailable"
	)

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: namespace + "_dispatcher_queue_depth",
			Help: "Current SCAN queue depth per car, as seen by the dispatcher",
		},
		[]string{carNameLabel},
	)

	heartbeatFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: namespace + "_heartbeat_failures_total",
			Help: "Times a car's safety_system counter saturated and the car entered emergency mode",
		},
		[]string{carNameLabel},
	)

	doorReversalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: namespace + "_door_reversals_total",
			Help: "Times the safety monitor reversed Closing to Opening on an obstruction",
		},
		[]string{carNameLabel},
	)

	carOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: namespace + "_car_operations_total",
			Help: "Button/internal operations applied to a car's shared state over IPC",
		},
		[]string{carNameLabel, operationName},
	)
)

func init() {
	prometheus.MustRegister(
		callDuration,
		callsTotal,
		queueDepth,
		heartbeatFailuresTotal,
		doorReversalsTotal,
		carOperationsTotal,
	)
}

// ObserveCallDuration records how long a CALL took to resolve.
func ObserveCallDuration(seconds float64) {
	callDuration.WithLabelValues().Observe(seconds)
}

// IncCallOutcome counts one hall call resolving to "assigned" or
// "unavailable".
func IncCallOutcome(outcome string) {
	callsTotal.WithLabelValues(outcome).Inc()
}

// SetQueueDepth records a car's current SCAN queue length.
func SetQueueDepth(carName string, depth int) {
	queueDepth.WithLabelValues(carName).Set(float64(depth))
}

// IncHeartbeatFailure counts a car entering emergency mode via heartbeat
// saturation.
func IncHeartbeatFailure(carName string) {
	heartbeatFailuresTotal.WithLabelValues(carName).Inc()
}

// IncDoorReversal counts the safety monitor reversing a closing door.
func IncDoorReversal(carName string) {
	doorReversalsTotal.WithLabelValues(carName).Inc()
}

// IncCarOperation counts one IPC-driven operation applied to a car.
func IncCarOperation(carName, operation string) {
	carOperationsTotal.WithLabelValues(carName, operation).Inc()
}
