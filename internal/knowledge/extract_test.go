package knowledge

import (
	"errors"
	"os"
	"reflect"
	"sort"
	"testing"
)

func loadFixture(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile("testdata/product.md")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(raw)
}

func TestParseFixture(t *testing.T) {
	doc, err := Parse(loadFixture(t))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	wantAreas := []string{
		"Alaknanda", "Chandni Chowk", "Connaught Place", "Greater Kailash",
		"Karol Bagh", "Lajpat Nagar", "Pitampura", "Rajouri Garden",
	}
	if !reflect.DeepEqual(doc.Areas, wantAreas) {
		t.Fatalf("areas = %v, want %v", doc.Areas, wantAreas)
	}

	cp := doc.Foods("Connaught Place")
	if len(cp) != 3 {
		t.Fatalf("expected 3 Connaught Place foods, got %d", len(cp))
	}
	if cp[0].Name != "Momos" || cp[0].Price != "₹70-90" {
		t.Fatalf("unexpected first item: %+v", cp[0])
	}
	if alk := doc.Foods("Alaknanda"); len(alk) != 1 || alk[0].Price != "Price varies" {
		t.Fatalf("expected price placeholder for Alaknanda rolls, got %+v", alk)
	}

	evening, ok := doc.Guidance("Evening")
	if !ok {
		t.Fatalf("expected evening guidance")
	}
	if evening.BestAreas != "Connaught Place, Lajpat Nagar, Greater Kailash" {
		t.Fatalf("unexpected best areas: %q", evening.BestAreas)
	}
	if evening.RecommendedFoods != "Momos, Chaat, Shawarma" {
		t.Fatalf("unexpected recommended: %q", evening.RecommendedFoods)
	}
	if _, ok := doc.Guidance("late night"); !ok {
		t.Fatalf("expected case-insensitive late night lookup")
	}

	if band, ok := doc.Budget("Mid-range"); !ok || band.PriceRange != "₹100-250" {
		t.Fatalf("unexpected mid-range band: %+v ok=%v", band, ok)
	}
	if len(doc.BudgetBands) != 3 {
		t.Fatalf("expected 3 budget bands, got %d", len(doc.BudgetBands))
	}

	if len(doc.Guidelines) != 4 {
		t.Fatalf("expected 4 guidelines, got %d: %v", len(doc.Guidelines), doc.Guidelines)
	}
	wantTips := []string{
		"Avoid the stalls right at the metro exit, walk a bit inside for better quality",
		"Lanes are narrow and extremely crowded, watch your belongings",
		"Parking is tough in the evening, take the metro",
		"Eat where the locals queue, turnover keeps food fresh",
	}
	if !reflect.DeepEqual(doc.Tips, wantTips) {
		t.Fatalf("tips = %v, want %v", doc.Tips, wantTips)
	}
}

func TestParseAreasSortedAndUnique(t *testing.T) {
	content := "### Zeta\n### Alpha\n**Alpha**: again\n### Mid\n**Beta**: x\n## Response Guidelines\n- be nice\n"
	doc, err := Parse(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !sort.StringsAreSorted(doc.Areas) {
		t.Fatalf("areas not sorted: %v", doc.Areas)
	}
	want := []string{"Alpha", "Beta", "Mid", "Zeta"}
	if !reflect.DeepEqual(doc.Areas, want) {
		t.Fatalf("areas = %v, want %v", doc.Areas, want)
	}
}

func TestParseFoodsFollowMostRecentHeading(t *testing.T) {
	content := `### First
- **Samosa**: corner stall, ₹20-30
### Second
- **Kachori**: near the gate Rs.40
- **Lassi**: no price listed
## Response Guidelines
- keep it local
`
	doc, err := Parse(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.Foods("First"); len(got) != 1 || got[0].Name != "Samosa" {
		t.Fatalf("unexpected First foods: %+v", got)
	}
	second := doc.Foods("Second")
	if len(second) != 2 {
		t.Fatalf("expected 2 Second foods, got %+v", second)
	}
	if second[0].Price != "Rs.40" {
		t.Fatalf("expected Rs.40, got %q", second[0].Price)
	}
	if second[1].Price != "Price varies" {
		t.Fatalf("expected placeholder price, got %q", second[1].Price)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "empty", content: "", want: ErrEmptySource},
		{name: "blank", content: "  \n\t\n", want: ErrEmptySource},
		{name: "no areas", content: "## Response Guidelines\n- be nice\n", want: ErrSchemaViolation},
		{name: "no guidelines", content: "### Connaught Place\n- **Momos**: ₹70-90\n", want: ErrSchemaViolation},
		{name: "guidelines without bullets", content: "### Connaught Place\n## Response Guidelines\nplain text\n", want: ErrSchemaViolation},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.content)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHeading(t *testing.T) {
	tests := []struct {
		line  string
		level int
		title string
	}{
		{line: "### Connaught Place", level: 3, title: "Connaught Place"},
		{line: "  ## Response Guidelines  ", level: 2, title: "Response Guidelines"},
		{line: "###NoSpace", level: 0},
		{line: "###", level: 0},
		{line: "plain", level: 0},
	}
	for _, tt := range tests {
		level, title := heading(tt.line)
		if level != tt.level || title != tt.title {
			t.Fatalf("heading(%q) = %d,%q want %d,%q", tt.line, level, title, tt.level, tt.title)
		}
	}
}

func TestParseHeadingClassification(t *testing.T) {
	content := `### Orange Market
- **Aloo Tikki**: by the fountain, ₹40-60
### Evening Bazaar
- **Kathi Roll**: lane two, ₹80
### Evening (5PM-9PM)
**Best Areas**: Orange Market
**Recommended**: Kathi Roll
### Mid-range
Most plates ₹150-300
## Response Guidelines
- keep it local
`
	doc, err := Parse(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"Evening Bazaar", "Orange Market"}
	if !reflect.DeepEqual(doc.Areas, want) {
		t.Fatalf("areas = %v, want %v", doc.Areas, want)
	}
	evening, ok := doc.Guidance("Evening")
	if !ok || evening.BestAreas != "Orange Market" {
		t.Fatalf("unexpected evening guidance %+v ok=%v", evening, ok)
	}
	if _, ok := doc.Budget("mid-range"); !ok {
		t.Fatalf("expected mid-range budget band, got %v", doc.BudgetBands)
	}
	if _, ok := doc.Budget("orange market"); ok {
		t.Fatalf("Orange Market must not be a budget band")
	}
}

func TestHeadingClassifiers(t *testing.T) {
	tests := []struct {
		title  string
		period string
		budget bool
	}{
		{title: "Evening", period: "Evening"},
		{title: "Late Night (after 10PM)", period: "Late Night"},
		{title: "Morning: breakfast", period: "Morning"},
		{title: "Evening Bazaar"},
		{title: "Budget-friendly", budget: true},
		{title: "Mid-range", budget: true},
		{title: "Premium", budget: true},
		{title: "Orange Market"},
		{title: "Premiumville"},
	}
	for _, tt := range tests {
		if got := timePeriod(tt.title); got != tt.period {
			t.Fatalf("timePeriod(%q) = %q, want %q", tt.title, got, tt.period)
		}
		if got := isBudgetHeading(tt.title); got != tt.budget {
			t.Fatalf("isBudgetHeading(%q) = %v, want %v", tt.title, got, tt.budget)
		}
	}
}
