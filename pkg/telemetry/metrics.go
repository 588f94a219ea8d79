// SPDX-License-Identifier: Apache-2.0
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SimMetrics tracks simulation throughput and subsystem activity.
type SimMetrics struct {
	tickCounter     metric.Int64Counter
	tickDuration    metric.Float64Histogram
	battleCounter   metric.Int64Counter
	socialCounter   metric.Int64Counter
	memoryCounter   metric.Int64Counter
	agentGauge      metric.Int64Gauge
	dialogueCounter metric.Int64Counter
}

// NewSimMetrics creates the simulation metrics instruments.
func NewSimMetrics() (*SimMetrics, error) {
	meter := otel.Meter("verai/sandbox")

	tickCounter, err := meter.Int64Counter(
		"verai.sim.ticks",
		metric.WithDescription("Simulation ticks processed"),
	)
	if err != nil {
		return nil, err
	}

	tickDuration, err := meter.Float64Histogram(
		"verai.sim.tick.duration",
		metric.WithDescription("Wall time per simulation tick"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	battleCounter, err := meter.Int64Counter(
		"verai.combat.battles",
		metric.WithDescription("Battles by lifecycle phase"),
	)
	if err != nil {
		return nil, err
	}

	socialCounter, err := meter.Int64Counter(
		"verai.social.interactions",
		metric.WithDescription("Social interactions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	memoryCounter, err := meter.Int64Counter(
		"verai.memory.operations",
		metric.WithDescription("Memory operations by kind"),
	)
	if err != nil {
		return nil, err
	}

	agentGauge, err := meter.Int64Gauge(
		"verai.agents.active",
		metric.WithDescription("Agents currently active in the sandbox"),
	)
	if err != nil {
		return nil, err
	}

	dialogueCounter, err := meter.Int64Counter(
		"verai.dialogue.requests",
		metric.WithDescription("Dialogue generations by provider"),
	)
	if err != nil {
		return nil, err
	}

	return &SimMetrics{
		tickCounter:     tickCounter,
		tickDuration:    tickDuration,
		battleCounter:   battleCounter,
		socialCounter:   socialCounter,
		memoryCounter:   memoryCounter,
		agentGauge:      agentGauge,
		dialogueCounter: dialogueCounter,
	}, nil
}

// RecordTick records one processed tick and its duration in milliseconds.
func (m *SimMetrics) RecordTick(ctx context.Context, durationMs float64) {
	if m == nil {
		return
	}
	m.tickCounter.Add(ctx, 1)
	m.tickDuration.Record(ctx, durationMs)
}

// RecordBattle records a battle lifecycle transition (created, finished, ...).
func (m *SimMetrics) RecordBattle(ctx context.Context, phase string) {
	if m == nil {
		return
	}
	m.battleCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("phase", phase)))
}

// RecordInteraction records a social interaction outcome.
func (m *SimMetrics) RecordInteraction(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.socialCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordMemoryOp records a memory operation (store, recall, consolidate, forget).
func (m *SimMetrics) RecordMemoryOp(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.memoryCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordActiveAgents records the current active agent count.
func (m *SimMetrics) RecordActiveAgents(ctx context.Context, count int64) {
	if m == nil {
		return
	}
	m.agentGauge.Record(ctx, count)
}

// RecordDialogue records a dialogue generation attempt.
func (m *SimMetrics) RecordDialogue(ctx context.Context, provider string, ok bool) {
	if m == nil {
		return
	}
	m.dialogueCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("ok", ok),
	))
}
