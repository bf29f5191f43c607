package metrics

import "github.com/prometheus/client_golang/prometheus"

// Question-answering pipeline metrics.
var (
	QuestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookinsight",
			Name:      "questions_total",
			Help:      "Questions answered, labeled by the path that produced the answer",
		},
		[]string{"path"}, // "primary" / "template" / "generic" / "error"
	)

	QuestionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bookinsight",
			Name:      "question_duration_seconds",
			Help:      "End-to-end question answering duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookinsight",
			Name:      "generation_requests_total",
			Help:      "Total number of generation requests",
		},
		[]string{"provider", "model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookinsight",
			Name:      "generation_request_duration_seconds",
			Help:      "Generation request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)
)

var qaMetricsRegistered bool

// RegisterQAMetrics registers question-answering metrics. Must be called once from main.
func RegisterQAMetrics() {
	if qaMetricsRegistered {
		return
	}
	prometheus.MustRegister(QuestionsTotal)
	prometheus.MustRegister(QuestionLatency)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	qaMetricsRegistered = true
}
