package query

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"streetfood-backend/internal/knowledge"
)

const maxSuggestions = 3

// Normalizer validates and canonicalises raw user input against the
// knowledge document.
type Normalizer struct {
	validate *validator.Validate
}

// NewNormalizer constructs a Normalizer.
func NewNormalizer() *Normalizer {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Normalizer{validate: v}
}

// Normalize is the pipeline entry point. Blank time and budget fall back to
// Evening and Mid-range; an unknown or blank area is passed through unchanged
// so later stages can address it. Invalid time or budget literals are errors.
func (n *Normalizer) Normalize(raw Raw, doc *knowledge.Document) (Normalized, error) {
	raw = trimRaw(raw)
	if raw.TimePreference == "" {
		raw.TimePreference = string(DefaultTime)
	}
	if raw.BudgetCategory == "" {
		raw.BudgetCategory = string(DefaultBudget)
	}

	errs := n.fieldErrors(raw)
	delete(errs, "area")
	if len(errs) > 0 {
		return Normalized{}, errs
	}

	var areas []string
	if doc != nil {
		areas = doc.Areas
	}
	return Normalized{
		Area:            ResolveArea(raw.Area, areas),
		TimePreference:  TimePreference(raw.TimePreference),
		FoodPreferences: raw.FoodPreferences,
		BudgetCategory:  BudgetCategory(raw.BudgetCategory),
	}, nil
}

// Validate is the strict, user-facing entry point: the area must be one of the
// document's areas exactly, and every enumerated field must be set.
func (n *Normalizer) Validate(raw Raw, doc *knowledge.Document) ValidationErrors {
	raw = trimRaw(raw)
	errs := n.fieldErrors(raw)
	if _, failed := errs["area"]; !failed && doc != nil && !doc.HasArea(raw.Area) {
		if similar := SuggestAreas(raw.Area, doc.Areas, maxSuggestions); len(similar) > 0 {
			errs["area"] = fmt.Sprintf("Area '%s' not found. Did you mean: %s?", raw.Area, strings.Join(similar, ", "))
		} else {
			errs["area"] = fmt.Sprintf("Area '%s' not available in our database", raw.Area)
		}
	}
	return errs
}

func (n *Normalizer) fieldErrors(raw Raw) ValidationErrors {
	errs := ValidationErrors{}
	err := n.validate.Struct(raw)
	if err == nil {
		return errs
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs["general"] = "Validation error: " + err.Error()
		return errs
	}
	for _, fe := range fieldErrs {
		errs[fe.Field()] = messageFor(fe)
	}
	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Field() {
	case "area":
		return "Please select an area"
	case "time_preference":
		return "Time preference must be one of: " + timeLiterals()
	case "budget_category":
		return "Budget category must be one of: " + budgetLiterals()
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func trimRaw(raw Raw) Raw {
	raw.Area = strings.TrimSpace(raw.Area)
	raw.TimePreference = strings.TrimSpace(raw.TimePreference)
	raw.BudgetCategory = strings.TrimSpace(raw.BudgetCategory)
	return raw
}

// ResolveArea maps raw onto a known area: exact, then case-insensitive, then
// substring in either direction. With no match raw is returned unchanged.
func ResolveArea(raw string, areas []string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	for _, a := range areas {
		if a == raw {
			return a
		}
	}
	lower := strings.ToLower(raw)
	for _, a := range areas {
		if strings.ToLower(a) == lower {
			return a
		}
	}
	for _, a := range areas {
		al := strings.ToLower(a)
		if strings.Contains(al, lower) || strings.Contains(lower, al) {
			return a
		}
	}
	return raw
}

// SuggestAreas returns up to limit areas similar to raw. An area qualifies when
// one name contains the other or when it contains any word of raw; substring
// matches rank first, then by number of shared words, then document order.
func SuggestAreas(raw string, areas []string, limit int) []string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" || limit <= 0 {
		return nil
	}
	words := strings.Fields(lower)

	type scored struct {
		area  string
		score int
		index int
	}
	var matches []scored
	for i, a := range areas {
		al := strings.ToLower(a)
		score := 0
		if strings.Contains(al, lower) || strings.Contains(lower, al) {
			score += 100
		}
		for _, w := range words {
			if strings.Contains(al, w) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{area: a, score: score, index: i})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].index < matches[j].index
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.area)
	}
	return out
}
