package knowledge

import "strings"

// TimePeriods are the recognised time-of-day section headings, in display order.
var TimePeriods = []string{"Morning", "Afternoon", "Evening", "Late Night"}

// FoodItem is one bullet listed under an area heading.
type FoodItem struct {
	Name    string `json:"name"`
	Details string `json:"details"`
	Price   string `json:"price"`
}

// TimeGuidance is what a time-of-day section says.
type TimeGuidance struct {
	BestAreas        string `json:"best_areas"`
	RecommendedFoods string `json:"recommended_foods"`
	RawSection       string `json:"raw_section"`
}

// BudgetBand describes one budget section.
type BudgetBand struct {
	PriceRange string `json:"price_range"`
	Details    string `json:"details"`
}

// Document is the structured form of the knowledge document. It is built once
// per load and never mutated afterwards; a reload replaces it wholesale.
type Document struct {
	RawText      string
	Areas        []string
	FoodsByArea  map[string][]FoodItem
	TimeGuidance map[string]TimeGuidance
	BudgetBands  map[string]BudgetBand
	Guidelines   []string
	Tips         []string
}

// HasArea reports whether area is one of the extracted area names.
func (d *Document) HasArea(area string) bool {
	for _, a := range d.Areas {
		if a == area {
			return true
		}
	}
	return false
}

// Foods returns a copy of the items listed for area.
func (d *Document) Foods(area string) []FoodItem {
	items := d.FoodsByArea[area]
	out := make([]FoodItem, len(items))
	copy(out, items)
	return out
}

// Guidance returns the section for a time period, matched case-insensitively.
func (d *Document) Guidance(period string) (TimeGuidance, bool) {
	g, ok := d.TimeGuidance[periodKey(period)]
	return g, ok
}

// Budget returns the band whose heading matches category case-insensitively.
func (d *Document) Budget(category string) (BudgetBand, bool) {
	b, ok := d.BudgetBands[strings.ToLower(strings.TrimSpace(category))]
	return b, ok
}

// GuidanceByPeriod returns a copy of all time sections keyed by lower-case period.
func (d *Document) GuidanceByPeriod() map[string]TimeGuidance {
	out := make(map[string]TimeGuidance, len(d.TimeGuidance))
	for k, v := range d.TimeGuidance {
		out[k] = v
	}
	return out
}

func periodKey(period string) string {
	return strings.ToLower(strings.TrimSpace(period))
}
