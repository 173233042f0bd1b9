// Package metrics defines the Prometheus metric types the router and
// evaluator export, and convenience wrappers to record them.
//
// When defining new operations or metrics, these are helpful values to
// track:
//  - things entering or leaving the system: connections routed, nets
//    evaluated, iterations run.
//  - the success or error status of any of the above.
//  - the distribution of processing latency.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IterationDurationHistogram tracks the wall time of a single
	// router iteration (ripup + search for every connection considered).
	IterationDurationHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "router_iteration_duration_seconds",
			Help:    "router iteration wall-time distribution",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		},
	)

	// CongestedNodeGauge tracks the number of congested nodes observed
	// at the end of the most recent iteration.
	CongestedNodeGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "router_congested_nodes",
			Help: "number of nodes with occupancy greater than one after the most recent iteration",
		},
	)

	// FailedConnectionGauge tracks the number of connections that failed
	// to route in the most recent iteration.
	FailedConnectionGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "router_failed_connections",
			Help: "number of connections that failed to route in the most recent iteration",
		},
	)

	// RoutedConnectionCount counts successful single-connection searches
	// across the whole run.
	RoutedConnectionCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "router_routed_connections_total",
			Help: "total number of connections successfully routed, across all iterations",
		},
	)

	// SearchPopCountHistogram tracks how many nodes a single-connection
	// search popped off its priority queue before finishing.
	SearchPopCountHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "router_search_pop_count",
			Help:    "priority-queue pops per single-connection search",
			Buckets: prometheus.ExponentialBuckets(1, 2, 20),
		},
	)

	// PresentCongestionFactorGauge tracks the present_congestion_factor
	// global after each iteration's cost-factor update.
	PresentCongestionFactorGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "router_present_congestion_factor",
			Help: "current present congestion factor",
		},
	)

	// HistoricalCongestionFactorGauge tracks the historical_congestion_factor
	// global after each iteration's cost-factor update.
	HistoricalCongestionFactorGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "router_historical_congestion_factor",
			Help: "current historical congestion factor",
		},
	)

	// CostAnomalyCount counts negative node-cost computations, a logged
	// but non-fatal anomaly.
	CostAnomalyCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "router_cost_anomaly_total",
			Help: "number of times a node cost computation produced a negative value",
		},
	)

	// EvalCongestedNodes tracks the congested-node count the evaluator
	// found in a results file.
	EvalCongestedNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "evaluator_congested_nodes",
			Help: "number of nodes claimed by more than one net in the evaluated result file",
		},
	)

	// EvalSuccessfulNets tracks how many nets the evaluator confirmed as
	// fully reachable from source to every sink.
	EvalSuccessfulNets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "evaluator_successful_nets",
			Help: "number of nets whose sinks all reach their source via emitted PIPs",
		},
	)

	// EvalWirelength tracks the total wirelength the evaluator computed.
	EvalWirelength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "evaluator_wirelength",
			Help: "sum of node length over all distinct PIP-endpoint nodes",
		},
	)
)

// init logs that metrics have registered, the same way the teacher
// pipeline announces its own promauto registration at package load.
func init() {
	log.Println("Prometheus metrics in fpga-router/metrics are registered.")
}
