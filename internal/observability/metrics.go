package observability

import (
	"sync"
	"sync/atomic"

	"github.com/yungbote/kydy-backend/internal/utils"
)

// Metrics is the process-wide counter set. Call sites go through Current()
// and tolerate a nil instance, so disabling metrics costs nothing.
type Metrics struct {
	resolveCached   atomic.Int64
	resolveExternal atomic.Int64
	resolveFallback atomic.Int64

	externalAttempts atomic.Int64
	externalFailures atomic.Int64

	cacheWriteErrors atomic.Int64

	compileFull  atomic.Int64
	compileEmbed atomic.Int64

	lessonsAssembled atomic.Int64
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return utils.GetEnvAsBool("METRICS_ENABLED", true, nil)
}

func Init() {
	initOnce.Do(func() {
		if Enabled() {
			instance = &Metrics{}
		}
	})
}

func Current() *Metrics {
	return instance
}

func (m *Metrics) ObserveResolution(provenance string) {
	switch provenance {
	case "cached":
		m.resolveCached.Add(1)
	case "external":
		m.resolveExternal.Add(1)
	case "fallback":
		m.resolveFallback.Add(1)
	}
}

func (m *Metrics) ObserveExternalAttempt() { m.externalAttempts.Add(1) }
func (m *Metrics) ObserveExternalFailure() { m.externalFailures.Add(1) }
func (m *Metrics) ObserveCacheWriteError() { m.cacheWriteErrors.Add(1) }
func (m *Metrics) ObserveLessonAssembled() { m.lessonsAssembled.Add(1) }

func (m *Metrics) ObserveCompile(mode string) {
	if mode == "embed" {
		m.compileEmbed.Add(1)
		return
	}
	m.compileFull.Add(1)
}

func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"resolve_cached":     m.resolveCached.Load(),
		"resolve_external":   m.resolveExternal.Load(),
		"resolve_fallback":   m.resolveFallback.Load(),
		"external_attempts":  m.externalAttempts.Load(),
		"external_failures":  m.externalFailures.Load(),
		"cache_write_errors": m.cacheWriteErrors.Load(),
		"compile_full":       m.compileFull.Load(),
		"compile_embed":      m.compileEmbed.Load(),
		"lessons_assembled":  m.lessonsAssembled.Load(),
	}
}
