package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/terrainnova-ai/server/internal/model"
)

type fakeChecker struct {
	configured bool
	err        error
	delay      time.Duration
	pings      atomic.Int32
}

func (f *fakeChecker) IsConfigured() bool { return f.configured }

func (f *fakeChecker) Ping(ctx context.Context) error {
	f.pings.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func up() *fakeChecker { return &fakeChecker{configured: true} }

func down() *fakeChecker {
	return &fakeChecker{configured: true, err: errors.New("connection refused")}
}

func checker(f *fakeChecker) Checker {
	if f == nil {
		return nil
	}
	return f
}

func newAggregator(cache, db, vector, llm, messaging *fakeChecker) *Aggregator {
	a := NewAggregator(100*time.Millisecond,
		Dependency{Name: model.ServiceCache, Checker: checker(cache), Required: true},
		Dependency{Name: model.ServiceDatabase, Checker: checker(db), Required: true},
		Dependency{Name: model.ServiceVectorIndex, Checker: checker(vector)},
		Dependency{Name: model.ServiceModel, Checker: checker(llm), Passive: true},
		Dependency{Name: model.ServiceMessaging, Checker: checker(messaging), Passive: true},
	)
	a.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return a
}

func TestCheckAllHealthy(t *testing.T) {
	r := newAggregator(up(), up(), up(), up(), up()).Check(context.Background())

	assert.Equal(t, model.CompositeHealthy, r.Status)
	assert.Equal(t, model.StatusHealthy, r.Services[model.ServiceCache])
	assert.Equal(t, model.StatusHealthy, r.Services[model.ServiceVectorIndex])
	assert.Equal(t, model.StatusConfigured, r.Services[model.ServiceModel])
	assert.Equal(t, model.StatusConfigured, r.Services[model.ServiceMessaging])
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), r.CheckedAt)
}

func TestCheckVectorIndexDownIsDegraded(t *testing.T) {
	r := newAggregator(up(), up(), down(), up(), up()).Check(context.Background())

	assert.Equal(t, model.CompositeDegraded, r.Status)
	assert.Equal(t, model.StatusUnhealthy, r.Services[model.ServiceVectorIndex])
}

func TestCheckRequiredDownIsUnhealthy(t *testing.T) {
	r := newAggregator(up(), down(), up(), up(), up()).Check(context.Background())
	assert.Equal(t, model.CompositeUnhealthy, r.Status)

	r = newAggregator(&fakeChecker{}, up(), up(), up(), up()).Check(context.Background())
	assert.Equal(t, model.CompositeUnhealthy, r.Status)
	assert.Equal(t, model.StatusNotConfigured, r.Services[model.ServiceCache])
}

func TestCheckNotConfiguredMakesNoCall(t *testing.T) {
	vector := &fakeChecker{}
	llm := &fakeChecker{}
	r := newAggregator(up(), up(), vector, llm, nil).Check(context.Background())

	assert.Equal(t, model.CompositeDegraded, r.Status)
	assert.Equal(t, model.StatusNotConfigured, r.Services[model.ServiceVectorIndex])
	assert.Equal(t, model.StatusNotConfigured, r.Services[model.ServiceModel])
	assert.Equal(t, model.StatusNotConfigured, r.Services[model.ServiceMessaging])
	assert.Zero(t, vector.pings.Load())
	assert.Zero(t, llm.pings.Load())
}

func TestCheckPassiveMakesNoCall(t *testing.T) {
	llm := up()
	newAggregator(up(), up(), up(), llm, up()).Check(context.Background())
	assert.Zero(t, llm.pings.Load())
}

func TestCheckProbeTimeout(t *testing.T) {
	slow := &fakeChecker{configured: true, delay: time.Second}
	start := time.Now()
	r := newAggregator(up(), up(), slow, up(), up()).Check(context.Background())

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, model.StatusUnhealthy, r.Services[model.ServiceVectorIndex])
	assert.Equal(t, model.CompositeDegraded, r.Status)
}

func TestProbe(t *testing.T) {
	assert.False(t, Probe{Configured: true}.IsConfigured())
	assert.False(t, Probe{PingFunc: func(context.Context) error { return nil }}.IsConfigured())

	p := Probe{Configured: true, PingFunc: func(context.Context) error { return errors.New("boom") }}
	assert.True(t, p.IsConfigured())
	assert.EqualError(t, p.Ping(context.Background()), "boom")
}
