// Package validation implements client-side required-field validation:
// rule tables evaluated against a draft, producing a field-keyed error
// map. Validation failures block submission before any network call.
package validation

import "regexp"

// Shared patterns. The mobile pattern matches Indian mobile numbers,
// as the agency's customer base requires.
var (
	MobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	EmailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	DatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	NumberPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// Source provides draft values by nested path ("personalDetails.email").
type Source interface {
	Value(path string) string
}

// Errors is a field-keyed error map. The "general" key carries
// server-side failures surfaced after submission.
type Errors map[string]string

// Any reports whether any error is present.
func (e Errors) Any() bool { return len(e) > 0 }

// Rule validates one draft field.
type Rule struct {
	Field   string // nested path into the draft
	Label   string // user-facing name for messages
	Pattern *regexp.Regexp
	Message string // pattern-failure message; defaults to "<Label> is invalid"
	When    func(s Source) bool
}

// RuleSet is an ordered list of rules for one entity form.
type RuleSet []Rule

// Validate evaluates every applicable rule. An empty value fails as
// required; a present value failing the pattern fails with the rule's
// message. First error per field wins.
func (rs RuleSet) Validate(s Source) Errors {
	errs := Errors{}
	for _, r := range rs {
		if r.When != nil && !r.When(s) {
			continue
		}
		if _, seen := errs[r.Field]; seen {
			continue
		}
		v := s.Value(r.Field)
		if v == "" {
			errs[r.Field] = r.Label + " is required"
			continue
		}
		if r.Pattern != nil && !r.Pattern.MatchString(v) {
			msg := r.Message
			if msg == "" {
				msg = r.Label + " is invalid"
			}
			errs[r.Field] = msg
		}
	}
	return errs
}
