package chainbean

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Field identifies one rewritable directive field. The set is closed: rule
// configurations referring to anything else are rejected at load time.
type Field int

const (
	FieldAccount Field = iota
	FieldAmount
	FieldSymbol
	FieldCost
	FieldPrice
)

func (f Field) String() string {
	switch f {
	case FieldAccount:
		return "account"
	case FieldAmount:
		return "amount"
	case FieldSymbol:
		return "symbol"
	case FieldCost:
		return "cost"
	case FieldPrice:
		return "price"
	default:
		return "unknown"
	}
}

// ParseField parses a configuration field name into a Field.
func ParseField(s string) (Field, error) {
	switch s {
	case "account":
		return FieldAccount, nil
	case "amount":
		return FieldAmount, nil
	case "symbol":
		return FieldSymbol, nil
	case "cost":
		return FieldCost, nil
	case "price":
		return FieldPrice, nil
	default:
		return 0, fmt.Errorf("unknown directive field: %q", s)
	}
}

// field returns the directive's value for f, as compared by rule patterns.
func (d *Directive) field(f Field) string {
	switch f {
	case FieldAccount:
		return d.Account
	case FieldAmount:
		return d.Amount.String()
	case FieldSymbol:
		return d.Symbol
	case FieldCost:
		return d.Cost
	case FieldPrice:
		return d.Price
	default:
		return ""
	}
}

// setField overwrites the directive's value for f. Amount values were
// validated as decimals at config load.
func (d *Directive) setField(f Field, value string) {
	switch f {
	case FieldAccount:
		d.Account = value
	case FieldAmount:
		if v, err := decimal.NewFromString(value); err == nil {
			d.Amount = v
		}
	case FieldSymbol:
		d.Symbol = value
	case FieldCost:
		d.Cost = value
	case FieldPrice:
		d.Price = value
	}
}

// FieldValue pairs a field with a value, for both patterns and transforms.
type FieldValue struct {
	Field Field
	Value string
}

// Rule rewrites directive fields. A rule matches a directive when any single
// pattern field equals the directive's corresponding field; all transforms of
// a matching rule then apply in listed order.
type Rule struct {
	Pattern   []FieldValue
	Transform []FieldValue
}

// Matches reports whether any pattern field equals the directive's field.
func (r Rule) Matches(d *Directive) bool {
	for _, p := range r.Pattern {
		if d.field(p.Field) == p.Value {
			return true
		}
	}
	return false
}

// Apply rewrites the directive with the rule's transforms, in order.
// A symbol transform first replaces the trailing symbol suffix of the account
// before overwriting the symbol field itself.
func (r Rule) Apply(d *Directive) {
	for _, t := range r.Transform {
		if t.Field == FieldSymbol && strings.HasSuffix(d.Account, d.Symbol) {
			d.Account = strings.TrimSuffix(d.Account, d.Symbol) + t.Value
		}
		d.setField(t.Field, t.Value)
	}
}

// ApplyRules evaluates every rule, in configured order, against every
// directive of every entry. There is no short-circuit: all matching rules
// apply their transforms.
func ApplyRules(rules []Rule, entries []*Entry) {
	for _, e := range entries {
		for _, d := range e.Directives {
			for _, r := range rules {
				if r.Matches(d) {
					r.Apply(d)
				}
			}
		}
	}
}

// UnmarshalJSON reads the configuration form of a rule: a pattern object
// mapping field names to expected values, and an ordered transform list.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw struct {
		Pattern   map[string]string `json:"pattern"`
		Transform []struct {
			Field string `json:"field"`
			Value string `json:"value"`
		} `json:"transform"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Pattern = r.Pattern[:0]
	// Pattern keys are sorted for a deterministic representation; matching is
	// any-of, so the order carries no meaning.
	for _, k := range slices.Sorted(maps.Keys(raw.Pattern)) {
		f, err := ParseField(k)
		if err != nil {
			return fmt.Errorf("rule pattern: %w", err)
		}
		r.Pattern = append(r.Pattern, FieldValue{Field: f, Value: raw.Pattern[k]})
	}
	r.Transform = r.Transform[:0]
	for _, t := range raw.Transform {
		f, err := ParseField(t.Field)
		if err != nil {
			return fmt.Errorf("rule transform: %w", err)
		}
		if f == FieldAmount {
			if _, err := decimal.NewFromString(t.Value); err != nil {
				return fmt.Errorf("rule transform amount %q is not a number: %w", t.Value, err)
			}
		}
		r.Transform = append(r.Transform, FieldValue{Field: f, Value: t.Value})
	}
	return nil
}
