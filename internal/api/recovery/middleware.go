package recovery

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	respond "github.com/mycelian/travelmap/internal/api/respond"
)

var panicsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "travelmap",
		Subsystem: "http",
		Name:      "panics_total",
		Help:      "Handler panics turned into 500 responses, by route template.",
	},
	[]string{"route"},
)

// New returns middleware that turns a handler panic into a 500 JSON error.
// http.ErrAbortHandler is re-raised so the server can abort the connection.
func New(log zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				route := routeOf(r)
				panicsTotal.WithLabelValues(route).Inc()
				log.Error().
					Str("panic", fmt.Sprint(rec)).
					Str("method", r.Method).
					Str("route", route).
					Str("memory_id", mux.Vars(r)["memoryId"]).
					Bytes("stack", debug.Stack()).
					Msg("handler panic recovered")
				respond.WriteInternalError(w, "unexpected failure handling "+route)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func routeOf(r *http.Request) string {
	if cur := mux.CurrentRoute(r); cur != nil {
		if tpl, err := cur.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
