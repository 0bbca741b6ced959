package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/terrainnova-ai/server/internal/model"
	logx "github.com/terrainnova-ai/server/pkg/logger"
)

const defaultProbeTimeout = 2 * time.Second

// Checker is implemented by every adapter the service depends on.
type Checker interface {
	IsConfigured() bool
	Ping(ctx context.Context) error
}

// Probe adapts a ping function into a Checker.
type Probe struct {
	Configured bool
	PingFunc   func(ctx context.Context) error
}

func (p Probe) IsConfigured() bool {
	return p.Configured && p.PingFunc != nil
}

func (p Probe) Ping(ctx context.Context) error {
	return p.PingFunc(ctx)
}

// Dependency is one entry of the health report.
type Dependency struct {
	Name    string
	Checker Checker
	// Required dependencies make the service unhealthy when not usable.
	Required bool
	// Passive dependencies report "configured" instead of being pinged.
	Passive bool
}

type Aggregator struct {
	deps    []Dependency
	timeout time.Duration
	now     func() time.Time
}

func NewAggregator(timeout time.Duration, deps ...Dependency) *Aggregator {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &Aggregator{deps: deps, timeout: timeout, now: time.Now}
}

// Check probes every dependency concurrently, each bounded by the probe timeout,
// and folds the results into a composite status. It never fails.
func (a *Aggregator) Check(ctx context.Context) model.HealthReport {
	var mu sync.Mutex
	services := make(map[string]model.HealthStatus, len(a.deps))

	g, gctx := errgroup.WithContext(ctx)
	for _, dep := range a.deps {
		g.Go(func() error {
			status := a.probe(gctx, dep)
			mu.Lock()
			services[dep.Name] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return model.HealthReport{
		Status:    a.composite(services),
		Services:  services,
		CheckedAt: a.now().UTC(),
	}
}

func (a *Aggregator) probe(ctx context.Context, dep Dependency) model.HealthStatus {
	if dep.Checker == nil || !dep.Checker.IsConfigured() {
		return model.StatusNotConfigured
	}
	if dep.Passive {
		return model.StatusConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := dep.Checker.Ping(ctx); err != nil {
		logx.Warn().Err(err).Str("service", dep.Name).Msg("health probe failed")
		return model.StatusUnhealthy
	}
	return model.StatusHealthy
}

func (a *Aggregator) composite(services map[string]model.HealthStatus) model.CompositeStatus {
	status := model.CompositeHealthy
	for _, dep := range a.deps {
		if services[dep.Name].Usable() {
			continue
		}
		if dep.Required {
			return model.CompositeUnhealthy
		}
		status = model.CompositeDegraded
	}
	return status
}
