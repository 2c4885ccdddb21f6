// Package metrics counts scene builds, patches and commands on a private
// prometheus registry so several engines can coexist in one process.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

type Metrics struct {
	reg *prometheus.Registry

	builds        prometheus.Counter
	buildFailures prometheus.Counter
	primitives    prometheus.Gauge
	buildSeconds  prometheus.Histogram
	patchOps      *prometheus.CounterVec
	commands      *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		builds: f.NewCounter(prometheus.CounterOpts{
			Name: "scene_builds_total",
			Help: "Scene models derived",
		}),
		buildFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "scene_build_failures_total",
			Help: "Scene builds that failed and were rejected",
		}),
		primitives: f.NewGauge(prometheus.GaugeOpts{
			Name: "scene_primitives",
			Help: "Primitives in the current scene",
		}),
		buildSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "scene_build_seconds",
			Help:    "Duration of scene builds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
		}),
		patchOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scene_patch_ops_total",
			Help: "Patch operations sent to the renderer",
		}, []string{"op"}),
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "commands_total",
			Help: "Commands executed",
		}, []string{"result"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) ObserveBuild(d time.Duration, prims int, err error) {
	if err != nil {
		m.buildFailures.Inc()
		return
	}
	m.builds.Inc()
	m.buildSeconds.Observe(d.Seconds())
	m.primitives.Set(float64(prims))
}

// ObservePatch adds per-kind operation counts, keyed by op name.
func (m *Metrics) ObservePatch(counts map[string]int) {
	for op, n := range counts {
		m.patchOps.WithLabelValues(op).Add(float64(n))
	}
}

func (m *Metrics) ObserveCommand(err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.commands.WithLabelValues(result).Inc()
}

// Snapshot flattens the registry into name{labels} -> value. Histograms
// contribute their sample count and sum.
func (m *Metrics) Snapshot() (map[string]float64, error) {
	families, err := m.reg.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName() + labels(metric)
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out[key] = metric.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				out[key] = metric.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				h := metric.GetHistogram()
				out[key+"_count"] = float64(h.GetSampleCount())
				out[key+"_sum"] = h.GetSampleSum()
			}
		}
	}
	return out, nil
}

func labels(metric *dto.Metric) string {
	pairs := metric.GetLabel()
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s=%q", p.GetName(), p.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Format renders a snapshot one metric per line, sorted by name.
func Format(snap map[string]float64) string {
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s %g\n", k, snap[k])
	}
	return b.String()
}
