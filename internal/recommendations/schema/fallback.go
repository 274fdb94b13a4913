package schema

import "fmt"

// ErrorArea marks a set produced because the inference path failed.
const ErrorArea = "Error"

// FallbackSet is returned by the gateway in place of any transport or
// interpretation failure.
func FallbackSet(message string) RecommendationSet {
	return RecommendationSet{
		Area: ErrorArea,
		Recommendations: []FoodRecommendation{{
			FoodName:      "Service Temporarily Unavailable",
			Location:      "Please try again later",
			PriceRange:    "N/A",
			CrowdInfo:     "Our AI expert is taking a chai break",
			LocalTip:      "Error: " + message,
			HygieneRating: Yellow,
		}},
		AlternativeAreas: []string{},
		LocalContext:     "Sorry yaar, our Delhi expert AI is having some technical issues. Please try again in a few minutes!",
	}
}

// ErrorSet is the uniform pipeline failure answer for area.
func ErrorSet(area, message string) RecommendationSet {
	return RecommendationSet{
		Area: area,
		Recommendations: []FoodRecommendation{{
			FoodName:      "Error",
			Location:      "Service unavailable",
			PriceRange:    "N/A",
			CrowdInfo:     "Please try again",
			LocalTip:      "Error: " + message,
			HygieneRating: Red,
		}},
		AlternativeAreas: []string{},
		LocalContext:     "Sorry, we're having technical difficulties. Please try again later.",
	}
}

// OfflineSet is the fixed demo answer served when no inference credential is
// configured.
func OfflineSet(area string) RecommendationSet {
	return RecommendationSet{
		Area: area,
		Recommendations: []FoodRecommendation{
			{
				FoodName:      "Momos",
				Location:      "Janpath Lane",
				PriceRange:    "₹70-90",
				CrowdInfo:     "High after 6 PM, best before 7 PM",
				LocalTip:      "Avoid the stalls right at metro exit, walk a bit inside for better quality",
				HygieneRating: Green,
			},
			{
				FoodName:      "Chaat",
				Location:      "Palika Bazaar area",
				PriceRange:    "₹60-120",
				CrowdInfo:     "Busy throughout evening",
				LocalTip:      "Try the bhel puri, it's fresh and tasty",
				HygieneRating: Yellow,
			},
			{
				FoodName:      "Kulfi",
				Location:      "Connaught Circus",
				PriceRange:    "₹40-80",
				CrowdInfo:     "Popular after dinner",
				LocalTip:      "Perfect for ending your street food tour",
				HygieneRating: Green,
			},
		},
		AlternativeAreas: []string{"Karol Bagh", "Lajpat Nagar"},
		LocalContext:     fmt.Sprintf("Bhai, %s is great for street food! Evening time is perfect, just watch out for the crowds. The momos here are famous among locals.", area),
	}
}
