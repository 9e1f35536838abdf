package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// APIStats receives per-request counts and latency. *observability.Metrics
// implements it.
type APIStats interface {
	APIInflightInc()
	APIInflightDec()
	ObserveAPI(method, route, status string, dur time.Duration)
}

// probePaths are polled by orchestrators and scrapers; counting them would
// swamp the request series.
var probePaths = map[string]bool{
	"/healthcheck": true,
	"/readyz":      true,
	"/metrics":     true,
}

// Metrics records per-route request counts and latency. Requests that match
// no route are labelled "unmatched" so arbitrary paths cannot grow the label
// set.
func Metrics(stats APIStats) gin.HandlerFunc {
	if stats == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if probePaths[c.Request.URL.Path] {
			c.Next()
			return
		}
		start := time.Now()
		stats.APIInflightInc()
		defer stats.APIInflightDec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		stats.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
