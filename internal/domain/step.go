package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DefaultPackagedKeywords mark categories sold by the package.
var DefaultPackagedKeywords = []string{"cups", "стакан"}

// StepRule decides how far one increase or decrease moves a quantity.
type StepRule struct {
	keywords []string
}

// NewStepRule builds a rule from category keywords, matched as lowercase
// substrings. An empty list falls back to DefaultPackagedKeywords.
func NewStepRule(keywords []string) StepRule {
	normalized := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			normalized = append(normalized, k)
		}
	}
	if len(normalized) == 0 {
		normalized = append(normalized, DefaultPackagedKeywords...)
	}
	return StepRule{keywords: normalized}
}

// IsPackaged reports whether category is sold by the package.
func (r StepRule) IsPackaged(category string) bool {
	c := strings.ToLower(category)
	for _, k := range r.keywordsOrDefault() {
		if strings.Contains(c, k) {
			return true
		}
	}
	return false
}

// Step returns max(1, packageSize) for packaged categories and 1 otherwise.
func (r StepRule) Step(category string, packageSize int) int {
	if !r.IsPackaged(category) || packageSize < 1 {
		return 1
	}
	return packageSize
}

func (r StepRule) keywordsOrDefault() []string {
	if len(r.keywords) == 0 {
		return DefaultPackagedKeywords
	}
	return r.keywords
}

// NormalizePackageSize coerces a raw package size from the catalog or a
// stored record into a positive integer. Missing, non-positive, fractional
// or unparsable values become 1.
func NormalizePackageSize(v any) int {
	var n float64
	switch x := v.(type) {
	case nil:
		return 1
	case int:
		n = float64(x)
	case int32:
		n = float64(x)
	case int64:
		n = float64(x)
	case float32:
		n = float64(x)
	case float64:
		n = x
	case *int:
		if x == nil {
			return 1
		}
		n = float64(*x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 1
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 1
		}
		n = f
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(x, &decoded); err != nil {
			return 1
		}
		return NormalizePackageSize(decoded)
	default:
		return 1
	}

	if math.IsNaN(n) || n < 1 || n != math.Trunc(n) || n > math.MaxInt32 {
		return 1
	}
	return int(n)
}
