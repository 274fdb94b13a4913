package recommendations

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"streetfood-backend/internal/gateway"
	"streetfood-backend/internal/knowledge"
	"streetfood-backend/internal/llm/remote"
	"streetfood-backend/internal/query"
	"streetfood-backend/internal/recommendations/schema"
)

const fixturePath = "../knowledge/testdata/product.md"

type stubGateway struct {
	mu        sync.Mutex
	reply     schema.RecommendationSet
	payloads  []string
	cleared   int
	healthErr error
}

func (s *stubGateway) Query(ctx context.Context, payload string) schema.RecommendationSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	return s.reply.Clone()
}

func (s *stubGateway) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
}

func (s *stubGateway) HealthCheck(ctx context.Context) error {
	return s.healthErr
}

func (s *stubGateway) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func offlineService() *Service {
	return NewService(knowledge.NewStore(fixturePath), gateway.New(remote.NewClient(remote.Config{}), gateway.Config{}))
}

func TestGetRecommendationsOfflineConnaughtPlace(t *testing.T) {
	svc := offlineService()
	set := svc.GetRecommendations(context.Background(), query.Raw{
		Area:            "Connaught Place",
		TimePreference:  "Evening",
		FoodPreferences: "momos",
		BudgetCategory:  "Budget-friendly",
	})
	if set.Area != "Connaught Place" {
		t.Fatalf("unexpected area %q", set.Area)
	}
	if len(set.Recommendations) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(set.Recommendations))
	}
	first := set.Recommendations[0]
	if first.FoodName != "Momos" || first.HygieneRating != schema.Green || first.PriceRange != "₹70-90" {
		t.Fatalf("unexpected first recommendation: %+v", first)
	}
	if !reflect.DeepEqual(set.AlternativeAreas, []string{"Karol Bagh", "Lajpat Nagar"}) {
		t.Fatalf("unexpected alternatives: %v", set.AlternativeAreas)
	}
}

func TestGetRecommendationsResolvesArea(t *testing.T) {
	stub := &stubGateway{reply: schema.OfflineSet("whatever")}
	svc := NewService(knowledge.NewStore(fixturePath), stub)

	set := svc.GetRecommendations(context.Background(), query.Raw{Area: "lajpat"})
	if set.Area != "Lajpat Nagar" {
		t.Fatalf("expected resolved area, got %q", set.Area)
	}
	if stub.calls() != 1 {
		t.Fatalf("expected one gateway call, got %d", stub.calls())
	}
	payload := stub.payloads[0]
	for _, want := range []string{"Area: Lajpat Nagar", "Time: Evening", "Budget: Mid-range"} {
		if !strings.Contains(payload, want) {
			t.Fatalf("payload missing %q", want)
		}
	}
}

func TestGetRecommendationsEmptyArea(t *testing.T) {
	stub := &stubGateway{reply: schema.OfflineSet("x")}
	svc := NewService(knowledge.NewStore(fixturePath), stub)

	set := svc.GetRecommendations(context.Background(), query.Raw{Area: "", TimePreference: "Evening"})
	if len(set.Recommendations) != 1 || set.Recommendations[0].HygieneRating != schema.Red {
		t.Fatalf("expected error set, got %+v", set)
	}
	if !strings.Contains(set.Recommendations[0].LocalTip, "area") {
		t.Fatalf("expected area error in tip, got %q", set.Recommendations[0].LocalTip)
	}
	if stub.calls() != 0 {
		t.Fatalf("gateway must not be called without an area")
	}
}

func TestGetRecommendationsErrorPaths(t *testing.T) {
	tests := []struct {
		name  string
		store *knowledge.Store
		raw   query.Raw
	}{
		{
			name:  "missing knowledge",
			store: knowledge.NewStore(filepath.Join(t.TempDir(), "missing.md")),
			raw:   query.Raw{Area: "Karol Bagh"},
		},
		{
			name:  "invalid time",
			store: knowledge.NewStore(fixturePath),
			raw:   query.Raw{Area: "Karol Bagh", TimePreference: "Brunch"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.store, &stubGateway{})
			set := svc.GetRecommendations(context.Background(), tt.raw)
			if set.Area != tt.raw.Area {
				t.Fatalf("expected raw area, got %q", set.Area)
			}
			if len(set.Recommendations) != 1 || set.Recommendations[0].HygieneRating != schema.Red {
				t.Fatalf("expected uniform error set, got %+v", set)
			}
			if set.LocalContext != "Sorry, we're having technical difficulties. Please try again later." {
				t.Fatalf("unexpected local context %q", set.LocalContext)
			}
		})
	}
}

func TestGetRecommendationsSynthesizesFromKnowledge(t *testing.T) {
	stub := &stubGateway{reply: schema.RecommendationSet{Area: "Connaught Place", Recommendations: []schema.FoodRecommendation{}}}
	svc := NewService(knowledge.NewStore(fixturePath), stub)

	set := svc.GetRecommendations(context.Background(), query.Raw{Area: "Connaught Place", TimePreference: "Late Night"})
	if len(set.Recommendations) != 3 {
		t.Fatalf("expected 3 synthesized recommendations, got %d", len(set.Recommendations))
	}
	for _, rec := range set.Recommendations {
		if rec.Location != "Connaught Place area" || rec.CrowdInfo != "Popular during late night" || rec.HygieneRating != schema.Yellow {
			t.Fatalf("unexpected synthesized entry: %+v", rec)
		}
	}
	if set.Recommendations[0].FoodName != "Momos" || set.Recommendations[0].PriceRange != "₹70-90" {
		t.Fatalf("unexpected first entry: %+v", set.Recommendations[0])
	}
	want := []string{"Alaknanda", "Chandni Chowk", "Greater Kailash"}
	if !reflect.DeepEqual(set.AlternativeAreas, want) {
		t.Fatalf("alternatives = %v, want %v", set.AlternativeAreas, want)
	}
	if !strings.HasPrefix(set.LocalContext, "Limited information available for Connaught Place") {
		t.Fatalf("unexpected local context %q", set.LocalContext)
	}
}

func TestGetRecommendationsGenericWhenNoFoods(t *testing.T) {
	stub := &stubGateway{reply: schema.RecommendationSet{}}
	svc := NewService(knowledge.NewStore(fixturePath), stub)

	set := svc.GetRecommendations(context.Background(), query.Raw{Area: "Pitampura"})
	if len(set.Recommendations) != 1 {
		t.Fatalf("expected exactly one generic recommendation, got %d", len(set.Recommendations))
	}
	rec := set.Recommendations[0]
	if rec.FoodName != "Local Street Food" || rec.Location != "Pitampura market area" {
		t.Fatalf("unexpected generic entry: %+v", rec)
	}
	if set.Area != "Pitampura" {
		t.Fatalf("unexpected area %q", set.Area)
	}
}

func TestGetRecommendationsRepairsAndPinsArea(t *testing.T) {
	stub := &stubGateway{reply: schema.RecommendationSet{
		Area: schema.DefaultArea,
		Recommendations: []schema.FoodRecommendation{
			{FoodName: "Chole Kulche", HygieneRating: "Purple"},
			{FoodName: " ", Location: "Gate 3", HygieneRating: schema.Red},
		},
	}}
	svc := NewService(knowledge.NewStore(fixturePath), stub)

	set := svc.GetRecommendations(context.Background(), query.Raw{Area: "Karol Bagh"})
	if set.Area != "Karol Bagh" {
		t.Fatalf("expected area pinned to query, got %q", set.Area)
	}
	first, second := set.Recommendations[0], set.Recommendations[1]
	if first.HygieneRating != schema.Yellow || first.Location != schema.DefaultLocation || first.LocalTip != schema.DefaultLocalTip {
		t.Fatalf("unexpected repaired first entry: %+v", first)
	}
	if second.FoodName != schema.DefaultFoodName || second.Location != "Gate 3" || second.HygieneRating != schema.Red {
		t.Fatalf("unexpected repaired second entry: %+v", second)
	}
	if len(set.AlternativeAreas) != 3 {
		t.Fatalf("expected 3 alternatives, got %v", set.AlternativeAreas)
	}
	for _, a := range set.AlternativeAreas {
		if a == "Karol Bagh" {
			t.Fatalf("alternatives must exclude the current area: %v", set.AlternativeAreas)
		}
	}
	if set.LocalContext != schema.DefaultLocalContext {
		t.Fatalf("unexpected local context %q", set.LocalContext)
	}
}

func TestGetRecommendationsAlwaysAnswersRequestedArea(t *testing.T) {
	replies := []schema.RecommendationSet{
		schema.FallbackSet("upstream down"),
		{Area: "", Recommendations: []schema.FoodRecommendation{{FoodName: "Rolls"}}},
		{Area: "Somewhere Else", Recommendations: []schema.FoodRecommendation{{FoodName: "Rolls"}}},
		{},
	}
	areas := []string{"Connaught Place", "Alaknanda", "Hauz Khas"}
	for _, reply := range replies {
		for _, area := range areas {
			svc := NewService(knowledge.NewStore(fixturePath), &stubGateway{reply: reply})
			set := svc.GetRecommendations(context.Background(), query.Raw{Area: area})
			if set.Area != area {
				t.Fatalf("reply %q for %q: area = %q", reply.Area, area, set.Area)
			}
			if len(set.Recommendations) == 0 {
				t.Fatalf("reply %q for %q: no recommendations", reply.Area, area)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	svc := offlineService()
	errs := svc.Validate(query.Raw{Area: "Lajpat ngr", TimePreference: "Evening", BudgetCategory: "Mid-range"})
	if !strings.Contains(errs["area"], "Lajpat Nagar") {
		t.Fatalf("expected suggestion, got %v", errs)
	}
	if errs := svc.Validate(query.Raw{Area: "Karol Bagh", TimePreference: "Morning", BudgetCategory: "Premium"}); len(errs) != 0 {
		t.Fatalf("expected valid query, got %v", errs)
	}

	missing := NewService(knowledge.NewStore(filepath.Join(t.TempDir(), "missing.md")), &stubGateway{})
	errs = missing.Validate(query.Raw{Area: "Karol Bagh", TimePreference: "Morning", BudgetCategory: "Premium"})
	if !strings.HasPrefix(errs["general"], "Validation error:") {
		t.Fatalf("expected general error, got %v", errs)
	}
}

func TestAreasAndAreaInfo(t *testing.T) {
	svc := offlineService()
	if got := svc.Areas(); len(got) != 8 || got[0] != "Alaknanda" {
		t.Fatalf("unexpected areas %v", got)
	}

	info := svc.AreaInfo("Lajpat Nagar")
	if !info.Available || len(info.FoodOptions) != 2 || info.Error != "" {
		t.Fatalf("unexpected area info %+v", info)
	}
	if _, ok := info.TimeGuidance["evening"]; !ok {
		t.Fatalf("expected evening guidance, got %v", info.TimeGuidance)
	}
	if info := svc.AreaInfo("Mumbai"); info.Available || len(info.FoodOptions) != 0 {
		t.Fatalf("unexpected info for unknown area %+v", info)
	}

	missing := NewService(knowledge.NewStore(filepath.Join(t.TempDir(), "missing.md")), &stubGateway{})
	if got := missing.Areas(); !reflect.DeepEqual(got, DefaultAreas) {
		t.Fatalf("expected default areas, got %v", got)
	}
	info = missing.AreaInfo("Karol Bagh")
	if info.Available || info.Error == "" || info.FoodOptions == nil {
		t.Fatalf("expected error info, got %+v", info)
	}
}

func TestRefreshAndHealth(t *testing.T) {
	stub := &stubGateway{healthErr: errors.New("down")}
	svc := NewService(knowledge.NewStore(fixturePath), stub)
	svc.Refresh()
	if stub.cleared != 1 {
		t.Fatalf("expected cache clear, got %d", stub.cleared)
	}
	if err := svc.HealthCheck(context.Background()); err == nil {
		t.Fatalf("expected health error")
	}
}

type panickingGateway struct{}

func (panickingGateway) Query(ctx context.Context, payload string) schema.RecommendationSet {
	var byPayload map[string]int
	byPayload[payload]++
	return schema.RecommendationSet{}
}

func (panickingGateway) ClearCache() {}

func (panickingGateway) HealthCheck(ctx context.Context) error { return nil }

func TestGetRecommendationsRecoversFromPanics(t *testing.T) {
	tests := []struct {
		name    string
		svc     *Service
		wantTip string
	}{
		{
			name:    "gateway panics",
			svc:     NewService(knowledge.NewStore(fixturePath), panickingGateway{}),
			wantTip: "assignment to entry in nil map",
		},
		{
			name:    "missing gateway",
			svc:     &Service{Store: knowledge.NewStore(fixturePath)},
			wantTip: ErrNotConfigured.Error(),
		},
		{
			name:    "zero value",
			svc:     &Service{},
			wantTip: ErrNotConfigured.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := tt.svc.GetRecommendations(context.Background(), query.Raw{Area: "Karol Bagh"})
			if set.Area != "Karol Bagh" || len(set.Recommendations) != 1 {
				t.Fatalf("expected error set, got %+v", set)
			}
			rec := set.Recommendations[0]
			if rec.HygieneRating != schema.Red || !strings.Contains(rec.LocalTip, tt.wantTip) {
				t.Fatalf("unexpected error entry %+v", rec)
			}
		})
	}
}

func TestGetRecommendationsWithoutNormalizer(t *testing.T) {
	svc := offlineService()
	svc.Normalizer = nil
	set := svc.GetRecommendations(context.Background(), query.Raw{Area: "lajpat nagar"})
	if set.Area != "Lajpat Nagar" || set.Recommendations[0].HygieneRating == schema.Red {
		t.Fatalf("expected normal set, got %+v", set)
	}
}
