// Package metrics counts connection, statement and transaction outcomes.
package metrics

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "dbport"

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Transaction outcome labels.
const (
	OutcomeCommitted     = "committed"
	OutcomeAborted       = "aborted"
	OutcomeImplicitAbort = "implicit_abort"
	OutcomeAbortFailed   = "abort_failed"
	OutcomeCommitFailed  = "commit_failed"
)

var (
	registry = prometheus.NewRegistry()

	Connects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connects_total",
		Help:      "Connection attempts by backend and result.",
	}, []string{"backend", "result"})

	Queries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_total",
		Help:      "Statements executed by backend and result.",
	}, []string{"backend", "result"})

	Transactions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_total",
		Help:      "Finished transactions by outcome.",
	}, []string{"outcome"})
)

func init() {
	registry.MustRegister(Connects, Queries, Transactions)
}

// Registry exposes the private registry for scraping or tests.
func Registry() *prometheus.Registry { return registry }

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

func ObserveConnect(backend string, err error) {
	Connects.WithLabelValues(backend, result(err)).Inc()
}

func ObserveQuery(backend string, err error) {
	Queries.WithLabelValues(backend, result(err)).Inc()
}

func ObserveTransaction(outcome string) {
	Transactions.WithLabelValues(outcome).Inc()
}

// Snapshot flattens every non-zero counter into "name{labels}" -> value.
func Snapshot() (map[string]float64, error) {
	families, err := registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue()
			if v == 0 {
				continue
			}
			out[mf.GetName()+formatLabels(m.GetLabel())] = v
		}
	}
	return out, nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.GetName()+"="+p.GetValue())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}
