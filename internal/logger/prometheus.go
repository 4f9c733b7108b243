package logger

import (
	"fmt"
	"io"
	"sort"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// metricPrefix namespaces every exported metric.
const metricPrefix = "rota_merge_"

// WritePrometheus writes the current metrics in the Prometheus text exposition format.
//
// Counters become counters, gauges become gauges, and each timing becomes a summary
// in seconds (count and sum) plus two gauges for its min and max.
func (m *Metrics) WritePrometheus(w io.Writer) error {
	for _, mf := range m.families() {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// families converts a snapshot into metric families sorted by name.
func (m *Metrics) families() []*dto.MetricFamily {
	snap := m.Snapshot()
	var families []*dto.MetricFamily

	for name, v := range snap.Counters {
		families = append(families, &dto.MetricFamily{
			Name: ptr(metricName(name) + "_total"),
			Help: ptr("Counter " + name),
			Type: dto.MetricType_COUNTER.Enum(),
			Metric: []*dto.Metric{{
				Counter: &dto.Counter{Value: ptr(float64(v))},
			}},
		})
	}

	for name, v := range snap.Gauges {
		families = append(families, gaugeFamily(metricName(name), "Gauge "+name, v))
	}

	for name, s := range snap.Timings {
		base := metricName(name) + "_seconds"
		families = append(families,
			&dto.MetricFamily{
				Name: ptr(base),
				Help: ptr("Timing " + name),
				Type: dto.MetricType_SUMMARY.Enum(),
				Metric: []*dto.Metric{{
					Summary: &dto.Summary{
						SampleCount: ptr(uint64(s.Count)),
						SampleSum:   ptr(s.Total.Seconds()),
					},
				}},
			},
			gaugeFamily(base+"_min", "Minimum "+name, s.Min.Seconds()),
			gaugeFamily(base+"_max", "Maximum "+name, s.Max.Seconds()),
		)
	}

	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	return families
}

func gaugeFamily(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: ptr(name),
		Help: ptr(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{
			Gauge: &dto.Gauge{Value: ptr(v)},
		}},
	}
}

// metricName turns "fetch.duration" into "rota_merge_fetch_duration".
func metricName(name string) string {
	var b strings.Builder
	b.WriteString(metricPrefix)
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func ptr[T any](v T) *T {
	return &v
}
