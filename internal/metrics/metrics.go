// Package metrics provides Prometheus metrics for filedeck.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	refreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_refreshes_total",
			Help: "Total number of file list refreshes",
		},
		[]string{"status"},
	)

	actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_actions_total",
			Help: "Total number of user actions by outcome",
		},
		[]string{"action", "status"},
	)

	listedFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filedeck_listed_files",
			Help: "Number of files in the most recent listing",
		},
	)

	uploadedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filedeck_uploaded_bytes_total",
			Help: "Total bytes sent to the file server",
		},
	)
)

// RecordRefresh records the outcome of a list refresh.
func RecordRefresh(err error, files int) {
	if err != nil {
		refreshesTotal.WithLabelValues("error").Inc()
		return
	}
	refreshesTotal.WithLabelValues("ok").Inc()
	listedFiles.Set(float64(files))
}

// RecordAction records the outcome of an upload, delete or preview.
func RecordAction(action, status string) {
	actionsTotal.WithLabelValues(action, status).Inc()
}

// RecordUpload records bytes sent in an upload.
func RecordUpload(n int64) {
	uploadedBytes.Add(float64(n))
}

// Middleware counts requests by matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
