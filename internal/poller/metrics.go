package poller

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	fetches     *prometheus.CounterVec
	inflight    prometheus.Gauge
	records     prometheus.Gauge
	lastSuccess prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "localesdash_poll_fetches_total",
			Help: "Emitter fetches by result (success, error, discarded).",
		}, []string{"result"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "localesdash_poll_inflight",
			Help: "Emitter fetches currently in flight.",
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "localesdash_poll_records",
			Help: "Records in the last delivered fetch.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "localesdash_poll_last_success_timestamp_seconds",
			Help: "Unix time of the last delivered fetch.",
		}),
	}
}

func (m *metrics) register(reg prometheus.Registerer) {
	reg.MustRegister(m.fetches, m.inflight, m.records, m.lastSuccess)
}
