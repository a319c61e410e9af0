// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentql_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contentql_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	GraphQLOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentql_graphql_operations_total",
			Help: "GraphQL operations executed, by operation type and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// RelationLookups counts relation argument resolutions; result is "hit"
	// when the memoized ID set was reused.
	RelationLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentql_relation_lookups_total",
			Help: "Relation argument ID lookups by element kind and cache result",
		},
		[]string{"kind", "result"},
	)

	EagerLoadPlans = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contentql_eager_load_plans_total",
			Help: "Eager-load plans attached to element queries",
		},
	)

	DirectiveFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentql_directive_failures_total",
			Help: "Field resolutions aborted by a directive or resolver error",
		},
		[]string{"directive"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentql_validation_failures_total",
			Help: "Element saves rejected by validation",
		},
		[]string{"kind"},
	)
)
