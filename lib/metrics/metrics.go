/*
Copyright 2018 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics collects reactor outcome metrics and pushes them
// to a prometheus push gateway at the end of every invocation
package metrics

import (
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/gravitational/trace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics records invocation outcomes of a single reactor.
// A nil *Metrics is valid and records nothing
type Metrics struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
	duration prometheus.Histogram
	// job is the push gateway job name
	job string
	// instance groups pushes of concurrent execution environments
	// so they do not overwrite each other on the gateway
	instance string
	// gateway is the push gateway address, empty disables pushing
	gateway string
}

// New returns metrics for the reactor with the specified name.
// The metrics are pushed to gateway if it is not empty
func New(reactor, gateway string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleetkeeper",
				Subsystem: reactor,
				Name:      "invocations_total",
				Help:      "Reactor invocations by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "fleetkeeper",
				Subsystem: reactor,
				Name:      "invocation_duration_seconds",
				Help:      "Reactor invocation duration",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
			},
		),
		job:      "fleetkeeper_" + reactor,
		instance: lambdacontext.LogStreamName,
		gateway:  gateway,
	}
	m.registry.MustRegister(m.outcomes, m.duration)
	return m
}

// ObserveOutcome counts an invocation with the specified outcome
func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}

// ObserveDuration records the duration of an invocation
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

// Gatherer returns the registry the metrics are collected in
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Push sends the collected metrics to the push gateway.
// It is a no-op without a configured gateway
func (m *Metrics) Push() error {
	if m == nil || m.gateway == "" {
		return nil
	}
	pusher := push.New(m.gateway, m.job).Gatherer(m.registry)
	if m.instance != "" {
		pusher = pusher.Grouping("instance", m.instance)
	}
	return trace.Wrap(pusher.Push())
}
