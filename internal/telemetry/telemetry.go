// Package telemetry wraps the otel tracer and meter handed to the
// dispatcher and car processes. The teacher stack wires a multi-backend
// exporter fan-out (DataDog/Elastic/OTLP/Prometheus); that is out of scope
// here since this simulation has no external telemetry backend to export
// to, so this package keeps the otel API surface itself (tracer/meter
// handles used by call-site instrumentation) without a concrete exporter,
// leaving global no-op providers installed until an operator wires one in.
package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Provider exposes the tracer and meter used by a single process.
type Provider struct {
	tracer trace.Tracer
	meter  metric.Meter
}

// New returns a Provider backed by the globally registered otel providers,
// named for the component that will use it (e.g. "dispatcher", "car").
func New(component string) *Provider {
	return &Provider{
		tracer: otel.Tracer(component),
		meter:  otel.Meter(component),
	}
}

// Tracer returns the component's tracer.
func (p *Provider) Tracer() trace.Tracer { return p.tracer }

// Meter returns the component's meter.
func (p *Provider) Meter() metric.Meter { return p.meter }
