package schema

import "strings"

// HygieneRating is a coarse food-safety signal.
type HygieneRating string

const (
	Green  HygieneRating = "Green"
	Yellow HygieneRating = "Yellow"
	Red    HygieneRating = "Red"
)

// Field defaults applied when a reply omits a value.
const (
	DefaultFoodName     = "Unknown Food"
	DefaultLocation     = "Location not specified"
	DefaultPriceRange   = "Price varies"
	DefaultCrowdInfo    = "Crowd info not available"
	DefaultLocalTip     = "No specific tips"
	DefaultHygiene      = Yellow
	DefaultArea         = "Unknown Area"
	DefaultLocalContext = "No additional context provided"
)

// ParseHygiene maps raw onto the rating enum. Anything that is not exactly one
// of the three members after trimming becomes Yellow.
func ParseHygiene(raw string) HygieneRating {
	switch r := HygieneRating(strings.TrimSpace(raw)); r {
	case Green, Yellow, Red:
		return r
	default:
		return DefaultHygiene
	}
}

// FoodRecommendation is one suggested dish.
type FoodRecommendation struct {
	FoodName      string        `json:"food_name"`
	Location      string        `json:"location"`
	PriceRange    string        `json:"price_range"`
	CrowdInfo     string        `json:"crowd_info"`
	LocalTip      string        `json:"local_tip"`
	HygieneRating HygieneRating `json:"hygiene_rating"`
}

// Repaired returns a copy with every blank field defaulted and the hygiene
// rating coerced into the enum.
func (r FoodRecommendation) Repaired() FoodRecommendation {
	return FoodRecommendation{
		FoodName:      orDefault(r.FoodName, DefaultFoodName),
		Location:      orDefault(r.Location, DefaultLocation),
		PriceRange:    orDefault(r.PriceRange, DefaultPriceRange),
		CrowdInfo:     orDefault(r.CrowdInfo, DefaultCrowdInfo),
		LocalTip:      orDefault(r.LocalTip, DefaultLocalTip),
		HygieneRating: ParseHygiene(string(r.HygieneRating)),
	}
}

// ToMap returns the plain key/value form used by callers that do not want
// the typed struct.
func (r FoodRecommendation) ToMap() map[string]any {
	return map[string]any{
		"food_name":      r.FoodName,
		"location":       r.Location,
		"price_range":    r.PriceRange,
		"crowd_info":     r.CrowdInfo,
		"local_tip":      r.LocalTip,
		"hygiene_rating": string(r.HygieneRating),
	}
}

// RecommendationSet is the complete answer for one query.
type RecommendationSet struct {
	Area             string               `json:"area"`
	Recommendations  []FoodRecommendation `json:"recommendations"`
	AlternativeAreas []string             `json:"alternative_areas"`
	LocalContext     string               `json:"local_context"`
}

// Clone returns a deep copy so cached sets are never shared with callers.
func (s RecommendationSet) Clone() RecommendationSet {
	out := s
	out.Recommendations = append([]FoodRecommendation(nil), s.Recommendations...)
	out.AlternativeAreas = append([]string{}, s.AlternativeAreas...)
	return out
}

// ToMap returns the plain key/value form with recommendations as field maps.
func (s RecommendationSet) ToMap() map[string]any {
	recs := make([]map[string]any, 0, len(s.Recommendations))
	for _, r := range s.Recommendations {
		recs = append(recs, r.ToMap())
	}
	alts := s.AlternativeAreas
	if alts == nil {
		alts = []string{}
	}
	return map[string]any{
		"area":              s.Area,
		"recommendations":   recs,
		"alternative_areas": alts,
		"local_context":     s.LocalContext,
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
