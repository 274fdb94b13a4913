package recommendations

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"streetfood-backend/internal/knowledge"
	"streetfood-backend/internal/llm"
	"streetfood-backend/internal/query"
	"streetfood-backend/internal/recommendations/schema"
	"streetfood-backend/internal/shared/metrics"
	"streetfood-backend/internal/shared/telemetry"
)

const (
	maxSyntheticRecommendations = 3
	maxAlternativeAreas         = 3
)

// DefaultAreas is served by Areas when the knowledge document cannot be loaded.
var DefaultAreas = []string{
	"Connaught Place", "Lajpat Nagar", "Chandni Chowk",
	"Karol Bagh", "Greater Kailash", "Alaknanda",
}

// ErrNotConfigured is reported when a Service is used without a store or gateway.
var ErrNotConfigured = errors.New("recommendation service is not configured")

// Inference is the gateway surface the service depends on.
type Inference interface {
	Query(ctx context.Context, payload string) schema.RecommendationSet
	ClearCache()
	HealthCheck(ctx context.Context) error
}

// Service orchestrates one recommendation request end to end: load the
// knowledge document, normalize the query, compose the payload, query the
// gateway and post-process the reply.
type Service struct {
	Store      *knowledge.Store
	Normalizer *query.Normalizer
	Gateway    Inference
}

// NewService constructs a Service.
func NewService(store *knowledge.Store, gw Inference) *Service {
	return &Service{
		Store:      store,
		Normalizer: query.NewNormalizer(),
		Gateway:    gw,
	}
}

// AreaInfo summarises what the knowledge document holds for one area.
type AreaInfo struct {
	Area         string                            `json:"area"`
	Available    bool                              `json:"available"`
	FoodOptions  []knowledge.FoodItem              `json:"food_options"`
	TimeGuidance map[string]knowledge.TimeGuidance `json:"time_recommendations"`
	Error        string                            `json:"error,omitempty"`
}

// GetRecommendations never fails: any pipeline error, panics included, yields
// schema.ErrorSet for the requested area.
func (s *Service) GetRecommendations(ctx context.Context, raw query.Raw) (set schema.RecommendationSet) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			metrics.IncRecommendation("error")
			metrics.ObserveRecommendationDuration(time.Since(start))
			telemetry.Error("recommendations.panic", map[string]any{
				"area":  raw.Area,
				"error": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			})
			set = schema.ErrorSet(raw.Area, fmt.Sprint(rec))
		}
	}()

	set, outcome, err := s.recommend(ctx, raw)
	metrics.IncRecommendation(outcome)
	metrics.ObserveRecommendationDuration(time.Since(start))
	if err != nil {
		telemetry.Error("recommendations.error", map[string]any{
			"area":  raw.Area,
			"error": err.Error(),
		})
		return schema.ErrorSet(raw.Area, err.Error())
	}
	telemetry.Info("recommendations.complete", map[string]any{
		"area":            set.Area,
		"outcome":         outcome,
		"recommendations": len(set.Recommendations),
		"duration_ms":     time.Since(start).Milliseconds(),
	})
	return set
}

func (s *Service) recommend(ctx context.Context, raw query.Raw) (schema.RecommendationSet, string, error) {
	if s.Store == nil || s.Gateway == nil {
		return schema.RecommendationSet{}, "error", ErrNotConfigured
	}
	normalizer := s.Normalizer
	if normalizer == nil {
		normalizer = query.NewNormalizer()
	}
	doc, err := s.Store.Load()
	if err != nil {
		return schema.RecommendationSet{}, "error", err
	}
	q, err := normalizer.Normalize(raw, doc)
	if err != nil {
		return schema.RecommendationSet{}, "error", err
	}
	payload, err := llm.Compose(doc, q)
	if err != nil {
		return schema.RecommendationSet{}, "error", err
	}

	reply := s.Gateway.Query(ctx, payload)
	outcome := "ok"
	if reply.Area == schema.ErrorArea {
		outcome = "fallback"
	}
	return postProcess(reply, q, doc), outcome, nil
}

// postProcess guarantees at least one recommendation, re-applies the field
// defaults and pins the area to the normalized query.
func postProcess(reply schema.RecommendationSet, q query.Normalized, doc *knowledge.Document) schema.RecommendationSet {
	if len(reply.Recommendations) == 0 {
		return syntheticSet(q, doc)
	}
	out := reply.Clone()
	for i, rec := range out.Recommendations {
		out.Recommendations[i] = rec.Repaired()
	}
	if q.Area != "" {
		out.Area = q.Area
	} else if strings.TrimSpace(out.Area) == "" {
		out.Area = schema.DefaultArea
	}
	if len(out.AlternativeAreas) == 0 {
		out.AlternativeAreas = alternativeAreas(out.Area, doc)
	}
	if strings.TrimSpace(out.LocalContext) == "" {
		out.LocalContext = schema.DefaultLocalContext
	}
	return out
}

// syntheticSet builds recommendations from the knowledge document alone.
func syntheticSet(q query.Normalized, doc *knowledge.Document) schema.RecommendationSet {
	foods := doc.Foods(q.Area)
	if len(foods) > maxSyntheticRecommendations {
		foods = foods[:maxSyntheticRecommendations]
	}
	recs := make([]schema.FoodRecommendation, 0, len(foods))
	for _, f := range foods {
		tip := f.Details
		if strings.TrimSpace(tip) == "" {
			tip = "A local favorite!"
		}
		recs = append(recs, schema.FoodRecommendation{
			FoodName:      f.Name,
			Location:      fmt.Sprintf("%s area", q.Area),
			PriceRange:    f.Price,
			CrowdInfo:     fmt.Sprintf("Popular during %s", strings.ToLower(string(q.TimePreference))),
			LocalTip:      tip,
			HygieneRating: schema.Yellow,
		}.Repaired())
	}
	if len(recs) == 0 {
		recs = append(recs, schema.FoodRecommendation{
			FoodName:      "Local Street Food",
			Location:      fmt.Sprintf("%s market area", q.Area),
			PriceRange:    "₹50-150",
			CrowdInfo:     "Check local timings",
			LocalTip:      "Ask locals for the best spots in this area",
			HygieneRating: schema.Yellow,
		})
	}
	return schema.RecommendationSet{
		Area:             q.Area,
		Recommendations:  recs,
		AlternativeAreas: alternativeAreas(q.Area, doc),
		LocalContext:     fmt.Sprintf("Limited information available for %s. These are general recommendations.", q.Area),
	}
}

func alternativeAreas(current string, doc *knowledge.Document) []string {
	out := make([]string, 0, maxAlternativeAreas)
	for _, a := range doc.Areas {
		if a == current {
			continue
		}
		out = append(out, a)
		if len(out) == maxAlternativeAreas {
			break
		}
	}
	return out
}

// Validate is the strict user-facing check. A knowledge load failure is
// reported under the general key.
func (s *Service) Validate(raw query.Raw) query.ValidationErrors {
	doc, err := s.Store.Load()
	if err != nil {
		return query.ValidationErrors{"general": "Validation error: " + err.Error()}
	}
	return s.Normalizer.Validate(raw, doc)
}

// Areas lists the known areas, or DefaultAreas when the document is unavailable.
func (s *Service) Areas() []string {
	areas, err := s.Store.Areas()
	if err != nil {
		telemetry.Warn("knowledge.areas_default", map[string]any{"error": err.Error()})
		return append([]string(nil), DefaultAreas...)
	}
	return areas
}

// AreaInfo never fails; a load error is reported in the Error field.
func (s *Service) AreaInfo(area string) AreaInfo {
	doc, err := s.Store.Load()
	if err != nil {
		return AreaInfo{
			Area:         area,
			FoodOptions:  []knowledge.FoodItem{},
			TimeGuidance: map[string]knowledge.TimeGuidance{},
			Error:        err.Error(),
		}
	}
	return AreaInfo{
		Area:         area,
		Available:    doc.HasArea(area),
		FoodOptions:  doc.Foods(area),
		TimeGuidance: doc.GuidanceByPeriod(),
	}
}

// Refresh drops the cached knowledge document and every cached reply.
func (s *Service) Refresh() {
	s.Store.Invalidate()
	s.Gateway.ClearCache()
	telemetry.Info("recommendations.refresh", nil)
}

// HealthCheck probes the inference transport.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.Gateway.HealthCheck(ctx)
}
