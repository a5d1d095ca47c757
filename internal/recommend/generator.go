// Package recommend turns a user profile into catalog-backed smartphone
// recommendations, trying a primary provider and then a fallback.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"shoppa-backend/internal/catalog"
	"shoppa-backend/internal/events"
	"shoppa-backend/internal/llm"
	"shoppa-backend/internal/prefilter"
	"shoppa-backend/internal/shared/metrics"
	"shoppa-backend/internal/shared/resilience"
	"shoppa-backend/internal/shared/telemetry"
	"shoppa-backend/internal/shared/util"
)

const (
	StagePrimary  = "primary"
	StageFallback = "fallback"

	defaultTemperature = 0.4
)

// Catalog is the read-only device source.
type Catalog interface {
	Devices() ([]catalog.Device, error)
}

// Provider is one model backend. Timeout bounds each call made to it.
type Provider struct {
	Name    string
	Client  llm.Client
	Model   string
	Timeout time.Duration
}

// Generator orchestrates a primary and a fallback provider over the same
// instructions and schema. Breaker, when set, guards the primary only.
type Generator struct {
	Catalog  Catalog
	Primary  Provider
	Fallback Provider
	Breaker  *resilience.Breaker
	Events   events.Publisher
}

type task struct {
	profile    string
	count      int
	rank       int
	candidates []catalog.Device
	// exclude names devices already chosen for other ranks.
	exclude []string
}

// Generate returns exactly three recommendations for profile.
func (g *Generator) Generate(ctx context.Context, profile string) (Outcome, error) {
	t, err := g.prepare(profile)
	if err != nil {
		return Outcome{}, err
	}
	t.count = BatchSize
	return g.generate(ctx, t)
}

// GenerateAt returns exactly one recommendation for the given funnel rank.
func (g *Generator) GenerateAt(ctx context.Context, profile string, rank int) (Outcome, error) {
	if rank < MinRank || rank > MaxRank {
		return Outcome{}, ErrInvalidRank
	}
	t, err := g.prepare(profile)
	if err != nil {
		return Outcome{}, err
	}
	t.count = 1
	t.rank = rank
	return g.generate(ctx, t)
}

// GenerateRanked runs the three single-rank generations concurrently. Each
// rank is independent: a failing rank does not cancel the others. onResult is
// called once per accepted rank and never concurrently. The returned slice is
// indexed by rank-1; failed ranks are left zero.
//
// No device appears in two ranks. A rank that lands on a device already taken
// by a rank that finished earlier is regenerated once after the concurrent
// round, with every taken device removed from its candidates and named in its
// prompt. If that retry fails the rank is reported as failed.
func (g *Generator) GenerateRanked(ctx context.Context, profile string, onResult func(Outcome)) ([]Result, error) {
	t, err := g.prepare(profile)
	if err != nil {
		return nil, err
	}
	return g.generateRanked(ctx, t, onResult)
}

func (g *Generator) generateRanked(ctx context.Context, base task, onResult func(Outcome)) ([]Result, error) {
	var (
		mu      sync.Mutex
		results = make([]Result, BatchSize)
		errs    = make([]error, BatchSize)
		taken   = make(map[string]bool, BatchSize)
		repeats []int
		grp     errgroup.Group
	)
	// accept requires mu or a finished group.
	accept := func(out Outcome) {
		r := out.Results[0]
		results[r.Rank-1] = r
		taken[r.DeviceID] = true
		if onResult != nil {
			onResult(out)
		}
	}
	for rank := MinRank; rank <= MaxRank; rank++ {
		t := base
		t.count = 1
		t.rank = rank
		grp.Go(func() error {
			out, err := g.generate(ctx, t)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				errs[t.rank-1] = fmt.Errorf("rank %d: %w", t.rank, err)
			case taken[out.Results[0].DeviceID]:
				telemetry.Warn("recommendation.rank_repeated", map[string]any{
					"rank":      t.rank,
					"device_id": out.Results[0].DeviceID,
				})
				repeats = append(repeats, t.rank)
			default:
				accept(out)
			}
			return nil
		})
	}
	_ = grp.Wait()

	sort.Ints(repeats)
	for _, rank := range repeats {
		t := base
		t.count = 1
		t.rank = rank
		t.candidates, t.exclude = withoutTaken(base.candidates, taken, results)
		if len(t.candidates) == 0 {
			errs[rank-1] = fmt.Errorf("rank %d: %w", rank, ErrNoDistinctDevice)
			continue
		}
		out, err := g.generate(ctx, t)
		if err != nil {
			errs[rank-1] = fmt.Errorf("rank %d: %w", rank, err)
			continue
		}
		accept(out)
	}

	if err := errors.Join(errs...); err != nil {
		return results, err
	}
	return results, nil
}

// withoutTaken drops taken devices from candidates and returns their names in
// rank order for the prompt.
func withoutTaken(candidates []catalog.Device, taken map[string]bool, chosen []Result) ([]catalog.Device, []string) {
	rest := make([]catalog.Device, 0, len(candidates))
	for _, d := range candidates {
		if !taken[d.ID] {
			rest = append(rest, d)
		}
	}
	names := make([]string, 0, len(chosen))
	for _, r := range chosen {
		if r.Rank != 0 {
			names = append(names, r.ProductName)
		}
	}
	return rest, names
}

// prepare reads the catalog and narrows it for this profile. The candidate
// slice is a private copy owned by the request.
func (g *Generator) prepare(profile string) (task, error) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return task{}, ErrEmptyProfile
	}
	if g.Catalog == nil {
		return task{}, ErrCatalogUnavailable
	}
	devices, err := g.Catalog.Devices()
	if err != nil {
		return task{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if len(devices) == 0 {
		return task{}, ErrCatalogUnavailable
	}
	return task{profile: profile, candidates: prefilter.Filter(profile, devices)}, nil
}

func (g *Generator) generate(ctx context.Context, t task) (Outcome, error) {
	start := time.Now()
	metrics.IncRecommendationRequests()
	fields := map[string]any{
		"request_id":   telemetry.RequestID(ctx),
		"profile_hash": util.HashKey(t.profile),
		"count":        t.count,
		"rank":         t.rank,
		"candidates":   len(t.candidates),
	}

	var results []Result
	primaryErr := g.Breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		results, err = g.run(ctx, g.Primary, t)
		return err
	})
	if primaryErr == nil {
		return g.succeed(ctx, t, g.Primary, false, results, start, fields), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Outcome{}, ctxErr
	}

	telemetry.Warn("recommendation.provider_failed", withFields(fields, map[string]any{
		"provider": g.Primary.Name,
		"model":    g.Primary.Model,
		"stage":    StagePrimary,
		"error":    primaryErr,
	}))
	metrics.IncRecommendationFallback()
	events.Emit(ctx, g.Events, events.New(events.TypeRecommendationFallback, util.HashKey(t.profile), map[string]any{
		"provider": g.Fallback.Name,
		"reason":   primaryErr.Error(),
		"rank":     t.rank,
	}))

	results, fallbackErr := g.run(ctx, g.Fallback, t)
	if fallbackErr == nil {
		return g.succeed(ctx, t, g.Fallback, true, results, start, fields), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Outcome{}, ctxErr
	}

	metrics.IncRecommendationFailed()
	metrics.ObserveRecommendationDurationMs(float64(time.Since(start).Milliseconds()))
	telemetry.Error("recommendation.failed", withFields(fields, map[string]any{
		"provider":      g.Fallback.Name,
		"model":         g.Fallback.Model,
		"stage":         StageFallback,
		"error":         fallbackErr,
		"primary_error": primaryErr,
		"duration_ms":   time.Since(start).Milliseconds(),
	}))
	events.Emit(ctx, g.Events, events.New(events.TypeRecommendationFailed, util.HashKey(t.profile), map[string]any{
		"rank":           t.rank,
		"primary_error":  primaryErr.Error(),
		"fallback_error": fallbackErr.Error(),
	}))
	return Outcome{}, fmt.Errorf("%w: primary: %v; fallback: %v", ErrGenerationFailed, primaryErr, fallbackErr)
}

func (g *Generator) succeed(ctx context.Context, t task, p Provider, fallback bool, results []Result, start time.Time, fields map[string]any) Outcome {
	elapsed := time.Since(start).Milliseconds()
	metrics.IncRecommendationCompleted()
	metrics.ObserveRecommendationDurationMs(float64(elapsed))
	telemetry.Info("recommendation.generated", withFields(fields, map[string]any{
		"provider":      p.Name,
		"model":         p.Model,
		"fallback_used": fallback,
		"duration_ms":   elapsed,
	}))

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.DeviceID)
	}
	events.Emit(ctx, g.Events, events.New(events.TypeRecommendationGenerated, util.HashKey(t.profile), map[string]any{
		"provider":      p.Name,
		"fallback_used": fallback,
		"rank":          t.rank,
		"devices":       ids,
		"duration_ms":   elapsed,
	}))

	return Outcome{
		Results:      results,
		Provider:     p.Name,
		Model:        p.Model,
		FallbackUsed: fallback,
		Candidates:   len(t.candidates),
	}
}

// run is the single orchestration step shared by both providers.
func (g *Generator) run(ctx context.Context, p Provider, t task) ([]Result, error) {
	if p.Client == nil {
		return nil, fmt.Errorf("%s: %w", p.Name, errNoProvider)
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	resp, err := p.Client.Generate(ctx, llm.Request{
		System:       systemPrompt(t),
		User:         userPrompt(t),
		Schema:       schemaFor(t.count),
		Tools:        []llm.Tool{catalogTool(t.candidates)},
		RequiredTool: catalogToolName,
		Temperature:  llm.Float(defaultTemperature),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	results, err := decode(resp.Content, t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	return results, nil
}

func withFields(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
