// Package metrics expõe contadores Prometheus do serviço de aprovação.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa os instrumentos registrados do serviço.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	transicoesTotal  *prometheus.CounterVec
	conflitosEtapa   prometheus.Counter
	assinaturasTotal *prometheus.CounterVec
	estampaDuration  prometheus.Histogram
}

// New cria o registro e os instrumentos do serviço informado.
func New(service string) *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aprovacao",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total de requisições HTTP processadas.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aprovacao",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duração das requisições HTTP em segundos.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aprovacao",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Requisições HTTP em andamento.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	transicoesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aprovacao",
			Subsystem: "fluxo",
			Name:      "transicoes_total",
			Help:      "Total de transições de etapa por etapa de destino.",
		},
		[]string{"service", "para"},
	)
	conflitosEtapa := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aprovacao",
			Subsystem: "fluxo",
			Name:      "conflitos_etapa_total",
			Help:      "Transições recusadas por etapa desatualizada.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	assinaturasTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aprovacao",
			Subsystem: "assinatura",
			Name:      "aplicadas_total",
			Help:      "Total de assinaturas aplicadas por origem do binário.",
		},
		[]string{"service", "origem"},
	)
	estampaDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aprovacao",
			Subsystem: "assinatura",
			Name:      "estampa_duration_seconds",
			Help:      "Duração da gravação da imagem no documento.",
			Buckets:   prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		transicoesTotal,
		conflitosEtapa,
		assinaturasTotal,
		estampaDuration,
	)

	return &Metrics{
		registry:         registry,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		transicoesTotal:  transicoesTotal,
		conflitosEtapa:   conflitosEtapa,
		assinaturasTotal: assinaturasTotal,
		estampaDuration:  estampaDuration,
	}
}

// Handler serve o endpoint de scrape.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware instrumenta cada requisição HTTP.
func (m *Metrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath colapsa IDs de rota para conter a cardinalidade das labels.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documentos/"):
		resto := strings.TrimPrefix(path, "/v1/documentos/")
		if i := strings.IndexByte(resto, '/'); i >= 0 {
			return "/v1/documentos/{id}" + resto[i:]
		}
		return "/v1/documentos/{id}"
	case strings.HasPrefix(path, "/v1/auditoria/"):
		return "/v1/auditoria/{id}"
	default:
		return path
	}
}

// RecordTransicao contabiliza uma transição confirmada.
func (m *Metrics) RecordTransicao(service, para string) {
	m.transicoesTotal.WithLabelValues(service, para).Inc()
}

// RecordConflitoEtapa contabiliza uma gravação perdida para outro ator.
func (m *Metrics) RecordConflitoEtapa() {
	m.conflitosEtapa.Inc()
}

// RecordAssinatura contabiliza uma assinatura aplicada. Origem é "servidor"
// para embutidas aqui e "cliente" para binários recebidos prontos.
func (m *Metrics) RecordAssinatura(service, origem string) {
	if origem == "" {
		origem = "servidor"
	}
	m.assinaturasTotal.WithLabelValues(service, origem).Inc()
}

// RecordEstampa observa a duração de uma gravação de imagem.
func (m *Metrics) RecordEstampa(duration time.Duration) {
	m.estampaDuration.Observe(duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
