package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	AnswersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_answers_total",
			Help: "Answers submitted, by correctness and next steering signal",
		},
		[]string{"correct", "steering"},
	)

	MasteryEstimates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_mastery_estimates_total",
			Help: "Mastery estimates, by source (model, baseline, none)",
		},
		[]string{"source"},
	)

	ClassifierFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tutor_classifier_failures_total",
			Help: "Classifier predictions that failed and fell back to the baseline",
		},
	)

	SelectorOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_selector_outcomes_total",
			Help: "Next-exercise selections, by outcome (strict, relaxed, exhausted)",
		},
		[]string{"outcome"},
	)

	ModelReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_model_reloads_total",
			Help: "Classifier artifact loads, by result",
		},
		[]string{"result"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(AnswersSubmitted)
		prometheus.MustRegister(MasteryEstimates)
		prometheus.MustRegister(ClassifierFailures)
		prometheus.MustRegister(SelectorOutcomes)
		prometheus.MustRegister(ModelReloads)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
