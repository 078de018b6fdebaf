package form

// Option is one {value, label} pair for a foreign-key dropdown.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// MergeOptions merges the guaranteed-selected option (the customer
// already assigned to the entity in edit mode) ahead of the fetched
// dropdown list, de-duplicating by id. The assigned customer must stay
// selectable even when pagination or filters would exclude it from the
// fetched list.
func MergeOptions(selected *Option, fetched []Option) []Option {
	if selected == nil || selected.Value == "" {
		return fetched
	}
	out := make([]Option, 0, len(fetched)+1)
	out = append(out, *selected)
	for _, o := range fetched {
		if o.Value == selected.Value {
			continue
		}
		out = append(out, o)
	}
	return out
}
