package health

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var componentUp = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "travelmap",
		Subsystem: "health",
		Name:      "component_up",
		Help:      "1 when the component's last probe succeeded.",
	},
	[]string{"component"},
)

// HealthChecker is implemented by component-level checkers such as the
// journal's storage slot.
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker folds component checkers into the journal's readiness.
// The journal is ready only while every component is healthy.
type ServiceHealthChecker struct {
	deps []HealthChecker
	log  zerolog.Logger

	mu    sync.RWMutex
	ready bool
	down  []string
	since time.Time
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	return &ServiceHealthChecker{deps: deps, log: log}
}

// IsHealthy returns the readiness computed by the last evaluation.
func (h *ServiceHealthChecker) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// Down lists the components that failed the last evaluation.
func (h *ServiceHealthChecker) Down() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.down...)
}

// Since is when readiness last changed. Zero before the first evaluation.
func (h *ServiceHealthChecker) Since() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.since
}

// Components returns the cached health of every component by name.
func (h *ServiceHealthChecker) Components() map[string]bool {
	out := make(map[string]bool, len(h.deps))
	for _, c := range h.deps {
		out[c.Name()] = c.IsHealthy()
	}
	return out
}

func (h *ServiceHealthChecker) evaluate(now time.Time) {
	var down []string
	for _, c := range h.deps {
		up := c.IsHealthy()
		if up {
			componentUp.WithLabelValues(c.Name()).Set(1)
		} else {
			componentUp.WithLabelValues(c.Name()).Set(0)
			down = append(down, c.Name())
		}
	}
	ready := len(down) == 0

	h.mu.Lock()
	changed := h.since.IsZero() || ready != h.ready
	h.ready = ready
	h.down = down
	if changed {
		h.since = now
	}
	h.mu.Unlock()

	if !changed {
		return
	}
	if ready {
		h.log.Info().Msg("journal ready: all components healthy")
	} else {
		h.log.Error().Str("down", strings.Join(down, ",")).Msg("journal not ready")
	}
}

// Start evaluates readiness immediately and then every interval until ctx is done.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.evaluate(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.evaluate(now)
		}
	}
}
