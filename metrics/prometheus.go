package metrics

import "github.com/prometheus/client_golang/prometheus"

// PromProvider adapts Provider onto github.com/prometheus/client_golang,
// the metrics stack the rest of the retrieval corpus (raft-recovery,
// kubernaut) already standardizes on. Instruments are created on first
// use per name, registered against reg, and reused across calls the
// same way BasicProvider reuses its in-memory instruments.
type PromProvider struct {
	reg prometheus.Registerer

	counters   map[string]*prometheus.CounterVec
	updowns    map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPromProvider builds a Provider backed by reg. Passing
// prometheus.DefaultRegisterer wires it into the process-wide default
// registry; a fresh prometheus.NewRegistry() isolates it for tests.
func NewPromProvider(reg prometheus.Registerer) *PromProvider {
	return &PromProvider{
		reg:        reg,
		counters:   make(map[string]*prometheus.CounterVec),
		updowns:    make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func labelsOf(cfg InstrumentConfig) ([]string, prometheus.Labels) {
	if len(cfg.Attributes) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(cfg.Attributes))
	values := make(prometheus.Labels, len(cfg.Attributes))
	for k, v := range cfg.Attributes {
		names = append(names, k)
		values[k] = v
	}
	return names, values
}

func (p *PromProvider) Counter(name string, opts ...InstrumentOption) Counter {
	cfg := applyOptions(opts)
	labelNames, labels := labelsOf(cfg)

	v, ok := p.counters[name]
	if !ok {
		v = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: name,
			Help: cfg.Description,
		}, labelNames)
		p.reg.MustRegister(v)
		p.counters[name] = v
	}
	return promCounter{c: v.With(labels)}
}

func (p *PromProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	cfg := applyOptions(opts)
	labelNames, labels := labelsOf(cfg)

	v, ok := p.updowns[name]
	if !ok {
		v = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: name,
			Help: cfg.Description,
		}, labelNames)
		p.reg.MustRegister(v)
		p.updowns[name] = v
	}
	return promUpDownCounter{g: v.With(labels)}
}

func (p *PromProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	cfg := applyOptions(opts)
	labelNames, labels := labelsOf(cfg)

	v, ok := p.histograms[name]
	if !ok {
		v = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: name,
			Help: cfg.Description,
		}, labelNames)
		p.reg.MustRegister(v)
		p.histograms[name] = v
	}
	return promHistogram{h: v.With(labels)}
}

type promCounter struct{ c prometheus.Counter }

func (p promCounter) Add(n int64) { p.c.Add(float64(n)) }

type promUpDownCounter struct{ g prometheus.Gauge }

func (p promUpDownCounter) Add(n int64) { p.g.Add(float64(n)) }

type promHistogram struct{ h prometheus.Observer }

func (p promHistogram) Record(v float64) { p.h.Observe(v) }
