// Package quality scores directory records for completeness so operators
// can prioritize which charities need attention. Each field carries a
// weight; validated presence earns the weight, placeholders and junk
// values earn a fraction of it.
package quality

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Category groups fields for per-category sub-scores.
type Category string

const (
	CategoryCore       Category = "core_required"
	CategoryLocation   Category = "location"
	CategoryContact    Category = "contact"
	CategoryService    Category = "service_info"
	CategoryAdditional Category = "additional"
)

// FieldDef describes one scored field.
type FieldDef struct {
	Name     string
	Category Category
	Weight   float64
	Required bool
	Pattern  *regexp.Regexp
}

// Score is the result of scoring one record.
type Score struct {
	Overall         float64              `json:"overall_score"`
	PerCategory     map[Category]float64 `json:"category_scores"`
	FieldScores     map[string]float64   `json:"field_scores"`
	MissingRequired []string             `json:"missing_required"`
	EmptyFields     []string             `json:"empty_fields"`
	TotalFields     int                  `json:"total_fields"`
	FilledFields    int                  `json:"filled_fields"`
	Completeness    float64              `json:"completeness"`

	// Organization-only: rollup of its sites.
	AvgSiteScore float64 `json:"avg_site_score,omitempty"`
	SiteCount    int     `json:"site_count,omitempty"`
}

var (
	phoneRE   = regexp.MustCompile(`^\+?[\d\s\-\(\)\.]+$`)
	emailRE   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	websiteRE = regexp.MustCompile(`^https?://\S+$`)
	einRE     = regexp.MustCompile(`^\d{2}-?\d{7}$`)
)

var siteFields = []FieldDef{
	{Name: "id", Category: CategoryCore, Weight: 1.0, Required: true},
	{Name: "name", Category: CategoryCore, Weight: 1.0, Required: true},

	{Name: "street_address", Category: CategoryLocation, Weight: 0.9, Required: true},
	{Name: "city", Category: CategoryLocation, Weight: 0.9, Required: true},
	{Name: "state", Category: CategoryLocation, Weight: 0.9, Required: true},
	{Name: "zip", Category: CategoryLocation, Weight: 0.8, Required: true},

	{Name: "public_phone", Category: CategoryContact, Weight: 0.8, Pattern: phoneRE},
	{Name: "public_email", Category: CategoryContact, Weight: 0.8, Pattern: emailRE},
	{Name: "website", Category: CategoryContact, Weight: 0.7, Pattern: websiteRE},

	{Name: "description", Category: CategoryService, Weight: 0.6},
	{Name: "service_area", Category: CategoryService, Weight: 0.5},
	{Name: "status", Category: CategoryService, Weight: 0.8},

	{Name: "ein", Category: CategoryAdditional, Weight: 0.6, Pattern: einRE},
}

var organizationFields = []FieldDef{
	{Name: "id", Category: CategoryCore, Weight: 1.0, Required: true},
	{Name: "name", Category: CategoryCore, Weight: 0.9},

	{Name: "street_address", Category: CategoryLocation, Weight: 0.7},
	{Name: "city", Category: CategoryLocation, Weight: 0.7},
	{Name: "state", Category: CategoryLocation, Weight: 0.7},
	{Name: "zip", Category: CategoryLocation, Weight: 0.6},

	{Name: "public_phone", Category: CategoryContact, Weight: 0.8, Pattern: phoneRE},
	{Name: "public_email", Category: CategoryContact, Weight: 0.8, Pattern: emailRE},
	{Name: "website", Category: CategoryContact, Weight: 0.7, Pattern: websiteRE},

	{Name: "description", Category: CategoryAdditional, Weight: 0.5},
	{Name: "ein", Category: CategoryAdditional, Weight: 0.8, Pattern: einRE},
}

var placeholders = []string{"n/a", "none", "unknown", "tbd", "todo"}

// fieldScore scores one value in [0, 1]. A valid value earns 1.0, with a
// length bonus for prose fields, a heavy penalty for placeholder text,
// and a lighter one for values too short to be real.
func fieldScore(name, value string, def FieldDef) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	if def.Pattern != nil && !def.Pattern.MatchString(value) {
		return 0
	}

	multiplier := 1.0
	if name == "description" || name == "service_area" {
		multiplier += math.Min(float64(len(trimmed))/100, 0.3)
	}

	lower := strings.ToLower(value)
	for _, p := range placeholders {
		if strings.Contains(lower, p) {
			return 0.3
		}
	}
	if len(trimmed) < 3 {
		return 0.5
	}
	return math.Min(multiplier, 1.0)
}

// scoreRecord computes the weighted score of a field-value map against a
// definition table. A 10% penalty applies per missing required field.
func scoreRecord(values map[string]string, defs []FieldDef) Score {
	score := Score{
		PerCategory: make(map[Category]float64),
		FieldScores: make(map[string]float64, len(defs)),
		TotalFields: len(defs),
	}

	categoryTotal := make(map[Category]float64)
	categoryWeight := make(map[Category]float64)
	var totalScore, totalWeight float64

	for _, def := range defs {
		fs := fieldScore(def.Name, values[def.Name], def)
		score.FieldScores[def.Name] = round3(fs)

		categoryTotal[def.Category] += fs * def.Weight
		categoryWeight[def.Category] += def.Weight
		totalScore += fs * def.Weight
		totalWeight += def.Weight

		if fs == 0 {
			score.EmptyFields = append(score.EmptyFields, def.Name)
			if def.Required {
				score.MissingRequired = append(score.MissingRequired, def.Name)
			}
		} else {
			score.FilledFields++
		}
	}

	for cat, w := range categoryWeight {
		if w > 0 {
			score.PerCategory[cat] = round3(categoryTotal[cat] / w)
		}
	}
	sort.Strings(score.EmptyFields)
	sort.Strings(score.MissingRequired)

	overall := 0.0
	if totalWeight > 0 {
		overall = totalScore / totalWeight
	}
	overall -= float64(len(score.MissingRequired)) * 0.1
	score.Overall = round3(math.Max(0, overall))
	score.Completeness = round3(float64(score.FilledFields) / float64(len(defs)))
	return score
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
