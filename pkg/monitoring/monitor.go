package monitoring

import (
	"strconv"
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

	AttemptCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basebuilder_attempts_total",
			Help: "Recorded learning attempts by correctness",
		},
		[]string{"correct"},
	)

	SessionTerminations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basebuilder_session_terminations_total",
			Help: "Session terminations by reason",
		},
		[]string{"reason"},
	)

	// 判题字段不一致的遗留条目，等待数据清洗
	AnswerFieldMismatch = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "basebuilder_answer_field_mismatch_total",
			Help: "Items whose canonical answer fields disagree",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(AttemptCounter)
	prometheus.MustRegister(SessionTerminations)
	prometheus.MustRegister(AnswerFieldMismatch)
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
