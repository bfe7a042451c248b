package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vintagestore",
		Name:      "cache_requests_total",
		Help:      "Cache lookups by key family and result (hit|miss).",
	}, []string{"family", "result"})

	DBQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vintagestore",
		Name:      "db_queries_total",
		Help:      "SQL statements issued through the retrying wrapper.",
	}, []string{"op"})

	DBRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vintagestore",
		Name:      "db_retries_total",
		Help:      "Retries after transient connection errors.",
	})

	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vintagestore",
		Name:      "image_uploads_total",
		Help:      "Calls to the image upload service by kind and result.",
	}, []string{"kind", "result"})

	TrackingEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vintagestore",
		Name:      "tracking_events_total",
		Help:      "Conversion events relayed by name and result.",
	}, []string{"event", "result"})
)

// KeyFamily maps "product:12" to "product" and "products:all" to "products:all"
// so label cardinality stays bounded.
func KeyFamily(key string) string {
	if strings.HasPrefix(key, "products:") {
		return key
	}
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

func Handler() http.Handler { return promhttp.Handler() }
