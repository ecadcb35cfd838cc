package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/voyago-travel/voyago-backend/pkg/metrics"
)

// Metrics records request duration and count per method/route/status.
func Metrics(httpMetrics *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if httpMetrics == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			httpMetrics.Observe(r.Method, routePattern(r), strconv.Itoa(status), time.Since(start))
		})
	}
}
