package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/kydy-backend/internal/logger"
	"github.com/yungbote/kydy-backend/internal/observability"
	"github.com/yungbote/kydy-backend/internal/primcache"
	"github.com/yungbote/kydy-backend/internal/svg"
	"github.com/yungbote/kydy-backend/internal/types"
	"github.com/yungbote/kydy-backend/internal/utils"
)

// Resolution is the outcome of resolving one primitive: the sanitized body,
// where it came from, and why earlier strategies in the chain fell through.
type Resolution struct {
	SVG            string
	Provenance     types.Provenance
	CacheKey       string
	Width          int
	Height         int
	ExternalReason string
}

// PrimitiveResolver turns a requested primitive into a sanitized SVG. It
// never fails: the chain cache → external generator → parametric fallback
// always terminates with a value.
type PrimitiveResolver interface {
	Resolve(ctx context.Context, kind string, params map[string]any, prompt string) Resolution
}

type primitiveResolver struct {
	log       *logger.Logger
	cache     *primcache.Cache
	generator VectorGenerator
	version   string
}

func NewPrimitiveResolver(cache *primcache.Cache, generator VectorGenerator, log *logger.Logger) PrimitiveResolver {
	return &primitiveResolver{
		log:       log.With("service", "PrimitiveResolver"),
		cache:     cache,
		generator: generator,
		version:   utils.GetEnv("PRIMITIVE_GENERATOR_VERSION", "v1", nil),
	}
}

func (r *primitiveResolver) Resolve(ctx context.Context, kind string, params map[string]any, prompt string) Resolution {
	key := primcache.Key(kind, params, r.version)

	// Once a key is cached the answer is stable for the life of the store,
	// even if external generation becomes available later.
	if entry, ok := r.cache.Get(key); ok {
		width, height := svg.Dimensions(entry.SVG)
		if m := observability.Current(); m != nil {
			m.ObserveResolution(string(types.ProvenanceCached))
		}
		return Resolution{SVG: entry.SVG, Provenance: types.ProvenanceCached, CacheKey: key, Width: width, Height: height}
	}

	body, provenance, externalReason := r.generate(ctx, kind, params, prompt)
	body = svg.Sanitize(body)

	entry := primcache.Entry{SVG: body, Provenance: provenance, CreatedAt: time.Now().UTC()}
	if err := r.cache.Put(ctx, key, entry); err != nil {
		// Durability is lost for this entry only; the caller still gets
		// the in-memory result.
		r.log.Error("Cache write failed", "kind", kind, "key", key[:12], "error", err)
		if m := observability.Current(); m != nil {
			m.ObserveCacheWriteError()
		}
	}

	width, height := svg.Dimensions(body)
	if m := observability.Current(); m != nil {
		m.ObserveResolution(string(provenance))
	}
	return Resolution{
		SVG:            body,
		Provenance:     provenance,
		CacheKey:       key,
		Width:          width,
		Height:         height,
		ExternalReason: externalReason,
	}
}

// generate runs the external generator when configured, falling through to
// the parametric generator on any failure. The fall-through reason comes back
// as data rather than an error so callers can report degraded provenance.
func (r *primitiveResolver) generate(ctx context.Context, kind string, params map[string]any, prompt string) (string, types.Provenance, string) {
	if prompt == "" {
		prompt = buildPrimitivePrompt(kind, params)
	}

	if m := observability.Current(); m != nil && r.generator.Configured() {
		m.ObserveExternalAttempt()
	}
	body, err := r.generator.GenerateSVG(ctx, prompt)
	if err == nil {
		return body, types.ProvenanceExternal, ""
	}

	switch {
	case errors.Is(err, ErrUnconfigured):
		// Expected in keyless deployments; debug only.
		r.log.Debug("External generator unconfigured, using parametric fallback", "kind", kind)
	default:
		r.log.Warn("External generation failed, using parametric fallback", "kind", kind, "error", err)
		if m := observability.Current(); m != nil {
			m.ObserveExternalFailure()
		}
	}

	return svg.GenerateFallback(kind, params), types.ProvenanceFallback, err.Error()
}

func buildPrimitivePrompt(kind string, params map[string]any) string {
	prompt := fmt.Sprintf("Generate an SVG illustration of %s", kind)
	if len(params) > 0 {
		if encoded, err := json.Marshal(params); err == nil {
			prompt += fmt.Sprintf(" with parameters: %s", encoded)
		}
	}
	return prompt
}
