package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	medcore "github.com/mededlabs/medcore"
	"github.com/mededlabs/medcore/metrics/export/internaldefs"
)

// The dispatcher drop counter lives outside the snapshot, so the exporter
// renders it as its own family.
const (
	droppedName = "medcore_audit_dropped_total"
	droppedHelp = "Audit events dropped by the dispatcher under backpressure."
)

type metricsSource interface {
	MetricsSnapshot() medcore.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter renders two-factor engine metrics in Prometheus text
// exposition format. It reads a fresh snapshot per scrape and never registers
// anything globally; callers mount the Handler wherever they serve metrics.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates a Prometheus exporter that reads from the given [medcore.Engine].
func NewPrometheusExporter(engine *medcore.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource creates a Prometheus exporter from a
// custom metrics source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics in Prometheus text exposition format.
// An engine with metrics disabled renders an empty body.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var body promText
	body.grow(8192)

	for _, def := range internaldefs.CounterDefs {
		body.family(def.Name, "counter", def.Help)
		body.sample(def.Name, snapshot.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
		body.family(def.Name, "histogram", def.Help)
		for i, le := range internaldefs.HistogramBounds {
			body.bucket(def.Name, le, buckets[i])
		}
		body.sample(def.Name+"_count", buckets[len(buckets)-1])
		// No sum in core snapshots; a constant zero keeps the family well-formed.
		body.sample(def.Name+"_sum", 0)
	}

	body.family(droppedName, "counter", droppedHelp)
	body.sample(droppedName, dropped)

	return body.String()
}

// promText accumulates exposition lines. HELP text gets the two escapes the
// format requires (backslash and newline).
type promText struct {
	b strings.Builder
}

func (t *promText) grow(n int) { t.b.Grow(n) }

func (t *promText) family(name, kind, help string) {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")

	t.b.WriteString("# HELP ")
	t.b.WriteString(name)
	t.b.WriteByte(' ')
	t.b.WriteString(help)
	t.b.WriteString("\n# TYPE ")
	t.b.WriteString(name)
	t.b.WriteByte(' ')
	t.b.WriteString(kind)
	t.b.WriteByte('\n')
}

func (t *promText) sample(name string, value uint64) {
	t.b.WriteString(name)
	t.b.WriteByte(' ')
	t.b.WriteString(strconv.FormatUint(value, 10))
	t.b.WriteByte('\n')
}

func (t *promText) bucket(name, le string, value uint64) {
	t.b.WriteString(name)
	t.b.WriteString(`_bucket{le="`)
	t.b.WriteString(le)
	t.b.WriteString(`"} `)
	t.b.WriteString(strconv.FormatUint(value, 10))
	t.b.WriteByte('\n')
}

func (t *promText) String() string { return t.b.String() }
