package query

import (
	"fmt"
	"sort"
	"strings"
)

// TimePreference is the time-of-day a user wants to eat.
type TimePreference string

const (
	Morning   TimePreference = "Morning"
	Afternoon TimePreference = "Afternoon"
	Evening   TimePreference = "Evening"
	LateNight TimePreference = "Late Night"
)

// TimePreferences lists the accepted literals in display order.
var TimePreferences = []TimePreference{Morning, Afternoon, Evening, LateNight}

// BudgetCategory is the user's spending band.
type BudgetCategory string

const (
	BudgetFriendly BudgetCategory = "Budget-friendly"
	MidRange       BudgetCategory = "Mid-range"
	Premium        BudgetCategory = "Premium"
)

// BudgetCategories lists the accepted literals in display order.
var BudgetCategories = []BudgetCategory{BudgetFriendly, MidRange, Premium}

// Defaults applied by the recommendation pipeline when a field is left blank.
const (
	DefaultTime   = Evening
	DefaultBudget = MidRange
)

// Raw is the unvalidated caller input.
type Raw struct {
	Area            string `json:"area" validate:"required"`
	TimePreference  string `json:"time_preference" validate:"oneof='Morning' 'Afternoon' 'Evening' 'Late Night'"`
	FoodPreferences string `json:"food_preferences"`
	BudgetCategory  string `json:"budget_category" validate:"oneof='Budget-friendly' 'Mid-range' 'Premium'"`
}

// Normalized is a validated, canonical query. It is immutable by convention.
type Normalized struct {
	Area            string
	TimePreference  TimePreference
	FoodPreferences string
	BudgetCategory  BudgetCategory
}

// ValidationErrors maps a field name to a user-facing message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, v[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func timeLiterals() string {
	out := make([]string, 0, len(TimePreferences))
	for _, t := range TimePreferences {
		out = append(out, string(t))
	}
	return strings.Join(out, ", ")
}

func budgetLiterals() string {
	out := make([]string, 0, len(BudgetCategories))
	for _, b := range BudgetCategories {
		out = append(out, string(b))
	}
	return strings.Join(out, ", ")
}
