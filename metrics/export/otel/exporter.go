package otel

import (
	"context"
	"errors"
	"fmt"

	medcore "github.com/mededlabs/medcore"
	"github.com/mededlabs/medcore/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() medcore.MetricsSnapshot
	AuditDropped() uint64
}

// OTelExporter bridges the engine's in-process two-factor counters into
// OpenTelemetry observable instruments. Every collection pulls one snapshot,
// so verify totals and their latency buckets stay mutually consistent within
// a single scrape.
type OTelExporter struct {
	registration metric.Registration
}

// counterInstrument ties one engine counter to its observable.
type counterInstrument struct {
	id         medcore.MetricID
	observable metric.Int64ObservableCounter
}

// histogramInstrument flattens one latency histogram into per-bound gauges.
// OTel observable histograms cannot be fed from pre-bucketed data, so each
// cumulative bucket and the sample count become their own gauge.
type histogramInstrument struct {
	id      medcore.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// NewOTelExporter registers observable instruments for every engine metric
// on the given meter, reading from the given [medcore.Engine].
func NewOTelExporter(meter metric.Meter, engine *medcore.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource is NewOTelExporter for a custom metrics source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	var observables []metric.Observable

	counters, err := buildCounters(meter, &observables)
	if err != nil {
		return nil, err
	}
	histograms, err := buildHistograms(meter, &observables)
	if err != nil {
		return nil, err
	}
	dropped, err := meter.Int64ObservableCounter(
		"medcore_audit_dropped_total",
		metric.WithDescription("Audit events dropped by the dispatcher under backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	observables = append(observables, dropped)

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := source.MetricsSnapshot()
		for _, c := range counters {
			observer.ObserveInt64(c.observable, int64(snapshot.Counters[c.id]))
		}
		for _, h := range histograms {
			cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
			for i := range cumulative {
				observer.ObserveInt64(h.buckets[i], int64(cumulative[i]))
			}
			observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
		}
		observer.ObserveInt64(dropped, int64(source.AuditDropped()))
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	return &OTelExporter{registration: registration}, nil
}

func buildCounters(meter metric.Meter, observables *[]metric.Observable) ([]counterInstrument, error) {
	counters := make([]counterInstrument, 0, len(internaldefs.CounterDefs))
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		counters = append(counters, counterInstrument{id: def.ID, observable: ins})
		*observables = append(*observables, ins)
	}
	return counters, nil
}

func buildHistograms(meter metric.Meter, observables *[]metric.Observable) ([]histogramInstrument, error) {
	histograms := make([]histogramInstrument, 0, len(internaldefs.HistogramDefs))
	for _, def := range internaldefs.HistogramDefs {
		h := histogramInstrument{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := def.Name + "_bucket_le_" + suffix
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative verification latency bucket."))
			if err != nil {
				return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			*observables = append(*observables, ins)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Verification latency sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", def.Name+"_count", err)
		}
		h.count = count
		*observables = append(*observables, count)
		histograms = append(histograms, h)
	}
	return histograms, nil
}

// Close unregisters the collection callback. The meter keeps the instrument
// definitions; they simply stop reporting.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
