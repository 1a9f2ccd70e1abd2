package observability

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// A small Prometheus text-format registry. Families render in registration
// order; series within a family render sorted by label string.

type family interface {
	writeTo(w io.Writer) error
}

type registry struct {
	mu       sync.Mutex
	families []family
}

type meta struct {
	name   string
	help   string
	kind   string
	labels []string
}

func (m meta) header(w io.Writer) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", m.name, m.help, m.name, m.kind)
	return err
}

func (r *registry) register(f family) {
	r.mu.Lock()
	r.families = append(r.families, f)
	r.mu.Unlock()
}

func (r *registry) counter(name, help string, labels ...string) *vec {
	v := &vec{meta: meta{name, help, "counter", labels}, values: map[string]float64{}}
	r.register(v)
	return v
}

func (r *registry) gauge(name, help string, labels ...string) *vec {
	v := &vec{meta: meta{name, help, "gauge", labels}, values: map[string]float64{}}
	r.register(v)
	return v
}

func (r *registry) histogram(name, help string, buckets []float64, labels ...string) *histVec {
	h := &histVec{meta: meta{name, help, "histogram", labels}, buckets: buckets, series: map[string]*histSeries{}}
	r.register(h)
	return h
}

func (r *registry) writeTo(w io.Writer) error {
	r.mu.Lock()
	fams := slices.Clone(r.families)
	r.mu.Unlock()
	for _, f := range fams {
		if err := f.writeTo(w); err != nil {
			return err
		}
	}
	return nil
}

// vec backs counters and gauges.
type vec struct {
	meta
	mu     sync.RWMutex
	values map[string]float64
}

func (v *vec) Add(delta float64, lv ...string) {
	key := labelString(v.labels, lv)
	v.mu.Lock()
	v.values[key] += delta
	v.mu.Unlock()
}

func (v *vec) Inc(lv ...string) { v.Add(1, lv...) }

func (v *vec) Set(val float64, lv ...string) {
	key := labelString(v.labels, lv)
	v.mu.Lock()
	v.values[key] = val
	v.mu.Unlock()
}

func (v *vec) Value(lv ...string) float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[labelString(v.labels, lv)]
}

func (v *vec) writeTo(w io.Writer) error {
	if err := v.header(w); err != nil {
		return err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, key := range slices.Sorted(maps.Keys(v.values)) {
		if _, err := fmt.Fprintf(w, "%s%s %s\n", v.name, key, formatFloat(v.values[key])); err != nil {
			return err
		}
	}
	return nil
}

type histSeries struct {
	counts []uint64
	sum    float64
	total  uint64
}

type histVec struct {
	meta
	buckets []float64
	mu      sync.RWMutex
	series  map[string]*histSeries
}

func (h *histVec) Observe(val float64, lv ...string) {
	key := labelString(h.labels, lv)
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.series[key]
	if s == nil {
		s = &histSeries{counts: make([]uint64, len(h.buckets))}
		h.series[key] = s
	}
	s.sum += val
	s.total++
	for i, upper := range h.buckets {
		if val <= upper {
			s.counts[i]++
		}
	}
}

func (h *histVec) Count(lv ...string) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if s := h.series[labelString(h.labels, lv)]; s != nil {
		return s.total
	}
	return 0
}

func (h *histVec) writeTo(w io.Writer) error {
	if err := h.header(w); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, key := range slices.Sorted(maps.Keys(h.series)) {
		s := h.series[key]
		var b strings.Builder
		for i, upper := range h.buckets {
			fmt.Fprintf(&b, "%s_bucket%s %d\n", h.name, withLe(key, formatFloat(upper)), s.counts[i])
		}
		fmt.Fprintf(&b, "%s_bucket%s %d\n", h.name, withLe(key, "+Inf"), s.total)
		fmt.Fprintf(&b, "%s_sum%s %s\n%s_count%s %d\n", h.name, key, formatFloat(s.sum), h.name, key, s.total)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// labelString renders {a="x",b="y"}. Missing values render as "unknown".
func labelString(names, values []string) string {
	if len(names) == 0 {
		return ""
	}
	pairs := make([]string, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		pairs[i] = name + `="` + escapeLabel(val) + `"`
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(v string) string { return labelEscaper.Replace(v) }

func withLe(labels, le string) string {
	le = `le="` + escapeLabel(le) + `"`
	if labels == "" {
		return "{" + le + "}"
	}
	return strings.TrimSuffix(labels, "}") + "," + le + "}"
}
