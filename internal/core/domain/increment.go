package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Increment is one selectable monetary step a bidder adds to the current price.
type Increment struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// IncrementSet is the ordered, deployment-configured menu of steps.
type IncrementSet []Increment

// ParseIncrements reads "label=value;label=value" or bare "value;value".
// Bare values get a "+1,000" style label. Values must be positive and unique.
func ParseIncrements(raw string) (IncrementSet, error) {
	var set IncrementSet
	seen := make(map[string]struct{})

	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		label, value := "", part
		if i := strings.LastIndex(part, "="); i >= 0 {
			label, value = strings.TrimSpace(part[:i]), strings.TrimSpace(part[i+1:])
		}

		d, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("increment %q: %w", part, err)
		}
		if !d.IsPositive() {
			return nil, fmt.Errorf("increment %q: must be positive", part)
		}
		if _, dup := seen[d.String()]; dup {
			return nil, fmt.Errorf("increment %q: duplicate value", part)
		}
		seen[d.String()] = struct{}{}

		if label == "" {
			label = "+" + groupThousands(d)
		}
		set = append(set, Increment{Label: label, Value: d})
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("increment set is empty")
	}
	return set, nil
}

// Match returns the configured increment equal to value.
func (s IncrementSet) Match(value decimal.Decimal) (Increment, bool) {
	for _, inc := range s {
		if inc.Value.Equal(value) {
			return inc, true
		}
	}
	return Increment{}, false
}

func groupThousands(d decimal.Decimal) string {
	s := d.String()
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String() + frac
}
