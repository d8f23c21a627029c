package metrics

import (
	"io"
	"sort"
	"strings"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Registry holds labelled counters and renders them in the Prometheus text format.
// The zero value is not usable; call NewRegistry.
type Registry struct {
	mu       sync.Mutex
	counters map[string]*counterFamily
}

type counterFamily struct {
	help   string
	label  string
	values map[string]float64
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]*counterFamily)}
}

// Describe registers a counter family with an optional single label name.
// Calling it again for the same name is a no-op.
func (r *Registry) Describe(name, help, label string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.counters[name]; ok {
		return
	}
	r.counters[name] = &counterFamily{help: help, label: label, values: make(map[string]float64)}
}

// Inc adds one to the counter identified by name and label value.
func (r *Registry) Inc(name, labelValue string) {
	r.Add(name, labelValue, 1)
}

// Add increases a counter. Unknown families are created without help text.
func (r *Registry) Add(name, labelValue string, delta float64) {
	if r == nil || delta < 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fam, ok := r.counters[name]
	if !ok {
		fam = &counterFamily{values: make(map[string]float64)}
		r.counters[name] = fam
	}
	fam.values[labelValue] += delta
}

// Value reports the current value of a counter.
func (r *Registry) Value(name, labelValue string) float64 {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fam, ok := r.counters[name]
	if !ok {
		return 0
	}
	return fam.values[labelValue]
}

// Write encodes every counter family to w using the text exposition format.
func (r *Registry) Write(w io.Writer) error {
	enc := expfmt.NewEncoder(w, ContentType())
	for _, mf := range r.gather() {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// ContentType is the exposition format served by Write.
func ContentType() expfmt.Format {
	return expfmt.NewFormat(expfmt.TypeTextPlain)
}

func (r *Registry) gather() []*dto.MetricFamily {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.counters))
	for name := range r.counters {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*dto.MetricFamily, 0, len(names))
	for _, name := range names {
		fam := r.counters[name]
		if len(fam.values) == 0 {
			continue
		}
		mf := &dto.MetricFamily{
			Name: ptr(name),
			Type: dto.MetricType_COUNTER.Enum(),
		}
		if strings.TrimSpace(fam.help) != "" {
			mf.Help = ptr(fam.help)
		}
		labels := make([]string, 0, len(fam.values))
		for lv := range fam.values {
			labels = append(labels, lv)
		}
		sort.Strings(labels)
		for _, lv := range labels {
			m := &dto.Metric{Counter: &dto.Counter{Value: ptr(fam.values[lv])}}
			if fam.label != "" {
				m.Label = []*dto.LabelPair{{Name: ptr(fam.label), Value: ptr(lv)}}
			}
			mf.Metric = append(mf.Metric, m)
		}
		out = append(out, mf)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
