package knowledge

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	guidelinesHeading = "Response Guidelines"
	priceUnknown      = "Price varies"
)

var (
	foodLinePattern  = regexp.MustCompile(`^-\s+\*\*([^*]+)\*\*:\s*(.*)$`)
	boldLabelPattern = regexp.MustCompile(`^\*\*([^*]+)\*\*:`)
	pricePattern     = regexp.MustCompile(`(?:₹|Rs\.?\s?)\d+(?:\s*[-–]\s*(?:₹|Rs\.?\s?)?\d+)?`)
	bestAreasPattern = regexp.MustCompile(`\*\*Best Areas\*\*:\s*(.+)`)
	recommendPattern = regexp.MustCompile(`\*\*Recommended\*\*:\s*(.+)`)

	budgetWordPattern = regexp.MustCompile(`(?i)\b(?:budget|range|premium)\b`)

	// A period name alone or followed by an annotation such as "(5PM-9PM)".
	timeHeadingPattern = regexp.MustCompile(`^(Morning|Afternoon|Evening|Late Night)(?:\s*[(:\-–].*)?$`)

	tipMarkers  = []string{"Tip", "Warning", "Note", "Best Practice"}
	tipPatterns = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, 0, len(tipMarkers))
		for _, m := range tipMarkers {
			out = append(out, regexp.MustCompile(`\*`+regexp.QuoteMeta(m)+`\*:\s*(.+)`))
		}
		return out
	}()

	// Labels used inside time sections; never area names.
	reservedLabels = map[string]struct{}{
		"Best Areas":  {},
		"Recommended": {},
	}
)

type section struct {
	level int
	title string
	body  []string
}

func (s section) text() string {
	return strings.TrimSpace(strings.Join(s.body, "\n"))
}

// Parse extracts a Document from the raw knowledge text.
func Parse(content string) (*Document, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptySource
	}
	lines := splitLines(content)
	sections := splitSections(lines)

	doc := &Document{
		RawText:      content,
		FoodsByArea:  extractFoods(lines),
		TimeGuidance: extractTimeGuidance(sections),
		BudgetBands:  extractBudgetBands(sections),
		Guidelines:   extractGuidelines(sections),
		Tips:         extractTips(lines),
	}
	doc.Areas = extractAreas(lines, sections)

	if err := validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func validate(doc *Document) error {
	if len(doc.Areas) == 0 {
		return fmt.Errorf("%w: no areas found", ErrSchemaViolation)
	}
	if len(doc.Guidelines) == 0 {
		return fmt.Errorf("%w: no response guidelines found", ErrSchemaViolation)
	}
	return nil
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.Split(content, "\n")
}

// heading returns the markdown heading level and title of line, or 0.
func heading(line string) (int, string) {
	trimmed := strings.TrimSpace(line)
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level >= len(trimmed) || trimmed[level] != ' ' {
		return 0, ""
	}
	return level, strings.TrimSpace(trimmed[level:])
}

func splitSections(lines []string) []section {
	var out []section
	current := -1
	for _, line := range lines {
		if level, title := heading(line); level > 0 {
			out = append(out, section{level: level, title: title})
			current = len(out) - 1
			continue
		}
		if current >= 0 {
			out[current].body = append(out[current].body, line)
		}
	}
	return out
}

// extractAreas merges level-3 headings that are not time or budget sections
// with bold-label lines, deduplicated and sorted.
func extractAreas(lines []string, sections []section) []string {
	seen := make(map[string]struct{})
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		seen[name] = struct{}{}
	}

	for _, s := range sections {
		if s.level != 3 || isTimeHeading(s.title) || isBudgetHeading(s.title) {
			continue
		}
		add(s.title)
	}
	for _, line := range lines {
		m := boldLabelPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		label := strings.TrimSpace(m[1])
		if _, reserved := reservedLabels[label]; reserved {
			continue
		}
		add(label)
	}

	areas := make([]string, 0, len(seen))
	for a := range seen {
		areas = append(areas, a)
	}
	sort.Strings(areas)
	return areas
}

// extractFoods walks the document in order, attributing each food bullet to
// the most recent level-3 heading.
func extractFoods(lines []string) map[string][]FoodItem {
	foods := make(map[string][]FoodItem)
	currentArea := ""
	for _, line := range lines {
		if level, title := heading(line); level == 3 {
			currentArea = title
			if _, ok := foods[currentArea]; !ok {
				foods[currentArea] = []FoodItem{}
			}
			continue
		}
		if currentArea == "" {
			continue
		}
		m := foodLinePattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		details := strings.TrimSpace(m[2])
		foods[currentArea] = append(foods[currentArea], FoodItem{
			Name:    strings.TrimSpace(m[1]),
			Details: details,
			Price:   extractPrice(details, priceUnknown),
		})
	}
	return foods
}

func extractPrice(text, fallback string) string {
	if m := pricePattern.FindString(text); m != "" {
		return m
	}
	return fallback
}

func extractTimeGuidance(sections []section) map[string]TimeGuidance {
	out := make(map[string]TimeGuidance)
	for _, period := range TimePeriods {
		for _, s := range sections {
			if s.level != 3 || timePeriod(s.title) != period {
				continue
			}
			body := s.text()
			out[periodKey(period)] = TimeGuidance{
				BestAreas:        firstGroup(bestAreasPattern, body),
				RecommendedFoods: firstGroup(recommendPattern, body),
				RawSection:       body,
			}
			break
		}
	}
	return out
}

func extractBudgetBands(sections []section) map[string]BudgetBand {
	out := make(map[string]BudgetBand)
	for _, s := range sections {
		if s.level != 3 || !isBudgetHeading(s.title) {
			continue
		}
		body := s.text()
		out[strings.ToLower(s.title)] = BudgetBand{
			PriceRange: extractPrice(body, ""),
			Details:    body,
		}
	}
	return out
}

func extractGuidelines(sections []section) []string {
	var out []string
	for _, s := range sections {
		if s.level != 2 || s.title != guidelinesHeading {
			continue
		}
		for _, line := range s.body {
			trimmed := strings.TrimSpace(line)
			if item, ok := strings.CutPrefix(trimmed, "- "); ok {
				if item = strings.TrimSpace(item); item != "" {
					out = append(out, item)
				}
			}
		}
		break
	}
	return out
}

// extractTips collects tips grouped by marker, in document order within each marker.
func extractTips(lines []string) []string {
	var out []string
	for _, p := range tipPatterns {
		for _, line := range lines {
			for _, m := range p.FindAllStringSubmatch(line, -1) {
				if tip := strings.TrimSpace(m[1]); tip != "" {
					out = append(out, tip)
				}
			}
		}
	}
	return out
}

// timePeriod returns the period a heading introduces, or "" for other headings.
func timePeriod(title string) string {
	m := timeHeadingPattern.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	return m[1]
}

func isTimeHeading(title string) bool {
	return timePeriod(title) != ""
}

// isBudgetHeading matches whole words so names like "Orange Market" stay areas.
func isBudgetHeading(title string) bool {
	return budgetWordPattern.MatchString(title)
}

func firstGroup(p *regexp.Regexp, text string) string {
	m := p.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
