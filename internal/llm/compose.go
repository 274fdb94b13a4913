package llm

import (
	"errors"
	"fmt"
	"strings"

	"streetfood-backend/internal/knowledge"
	"streetfood-backend/internal/query"
	"streetfood-backend/internal/shared/util"
)

const maxQuickTips = 5

var (
	// ErrAreaRequired is returned when a payload is composed without an area.
	ErrAreaRequired = errors.New("query must include an area")
	// ErrNoContext is returned when no knowledge document is supplied.
	ErrNoContext = errors.New("knowledge document is required")
)

// Compose renders the request payload for doc and q. The output is a pure
// function of its inputs so its Fingerprint can key the response cache.
func Compose(doc *knowledge.Document, q query.Normalized) (string, error) {
	if doc == nil {
		return "", ErrNoContext
	}
	if strings.TrimSpace(q.Area) == "" {
		return "", ErrAreaRequired
	}
	parts := []string{
		"SYSTEM INSTRUCTIONS:\n" + SystemInstructions(),
		contextSection(doc),
		querySection(q),
		"RESPONSE FORMAT:\n" + ResponseFormat(),
	}
	return strings.Join(parts, "\n\n"), nil
}

// ComposeSimple composes a payload for an area and optional preference using
// the Evening and Mid-range defaults.
func ComposeSimple(doc *knowledge.Document, area, preferences string) (string, error) {
	return Compose(doc, query.Normalized{
		Area:            area,
		TimePreference:  query.DefaultTime,
		FoodPreferences: preferences,
		BudgetCategory:  query.DefaultBudget,
	})
}

// Fingerprint returns the cache key for a composed payload.
func Fingerprint(payload string) string {
	return util.Fingerprint(payload)
}

func contextSection(doc *knowledge.Document) string {
	lines := []string{
		"=== COMPLETE LOCAL KNOWLEDGE BASE ===",
		doc.RawText,
		"\n=== QUICK REFERENCE ===",
	}
	if len(doc.Areas) > 0 {
		lines = append(lines, "Available Areas: "+strings.Join(doc.Areas, ", "))
	}
	if len(doc.Guidelines) > 0 {
		lines = append(lines, "Response Guidelines:")
		for _, g := range doc.Guidelines {
			lines = append(lines, "- "+g)
		}
	}
	if len(doc.Tips) > 0 {
		lines = append(lines, "Local Tips:")
		tips := doc.Tips
		if len(tips) > maxQuickTips {
			tips = tips[:maxQuickTips]
		}
		for _, tip := range tips {
			lines = append(lines, "- "+tip)
		}
	}
	return "CONTEXT:\n" + strings.Join(lines, "\n")
}

func querySection(q query.Normalized) string {
	return strings.Join([]string{
		"USER QUERY:",
		"Area: " + q.Area,
		"Time: " + string(q.TimePreference),
		"Food Preferences: " + q.FoodPreferences,
		"Budget: " + string(q.BudgetCategory),
		"Natural Query: " + naturalQuery(q),
	}, "\n")
}

func naturalQuery(q query.Normalized) string {
	var clauses []string
	switch {
	case q.Area != "" && q.TimePreference != "":
		clauses = append(clauses, fmt.Sprintf("Street food recommendations for %s during %s", q.Area, strings.ToLower(string(q.TimePreference))))
	case q.Area != "":
		clauses = append(clauses, "Street food recommendations for "+q.Area)
	}
	if q.FoodPreferences != "" {
		clauses = append(clauses, "looking for "+q.FoodPreferences)
	}
	if q.BudgetCategory != "" {
		clauses = append(clauses, fmt.Sprintf("with %s budget", strings.ToLower(string(q.BudgetCategory))))
	}
	if len(clauses) == 0 {
		return "General street food recommendations"
	}
	return strings.Join(clauses, ", ")
}
