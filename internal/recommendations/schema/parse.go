package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

var (
	ErrMalformedReply  = errors.New("malformed reply")
	ErrSchemaViolation = errors.New("reply is not an object")
)

// Parse interprets a raw reply. A surrounding code fence is removed first.
// Entries in recommendations that are not objects are dropped; every missing
// field is defaulted independently.
func Parse(raw string) (RecommendationSet, error) {
	cleaned := stripFence(raw)
	if cleaned == "" {
		return RecommendationSet{}, fmt.Errorf("%w: empty reply", ErrMalformedReply)
	}

	var decoded any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return RecommendationSet{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	top, ok := decoded.(map[string]any)
	if !ok {
		return RecommendationSet{}, fmt.Errorf("%w: got %T", ErrSchemaViolation, decoded)
	}

	set := RecommendationSet{
		Area:             orDefault(stringField(top, "area"), DefaultArea),
		Recommendations:  []FoodRecommendation{},
		AlternativeAreas: stringList(top["alternative_areas"]),
		LocalContext:     orDefault(stringField(top, "local_context"), DefaultLocalContext),
	}
	if entries, ok := top["recommendations"].([]any); ok {
		for _, entry := range entries {
			obj, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			set.Recommendations = append(set.Recommendations, FoodRecommendation{
				FoodName:      stringField(obj, "food_name"),
				Location:      stringField(obj, "location"),
				PriceRange:    stringField(obj, "price_range"),
				CrowdInfo:     stringField(obj, "crowd_info"),
				LocalTip:      stringField(obj, "local_tip"),
				HygieneRating: HygieneRating(stringField(obj, "hygiene_rating")),
			}.Repaired())
		}
	}
	return set, nil
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// stringField treats non-string values as missing.
func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
