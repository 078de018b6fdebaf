package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
)

// columnSpec maps one table column onto a list-item field.
type columnSpec struct {
	Title string
	Width int
	Value func(item map[string]interface{}) string
}

func str(item map[string]interface{}, path ...string) string {
	cur := item
	for i, p := range path {
		if i == len(path)-1 {
			switch v := cur[p].(type) {
			case string:
				return v
			case float64:
				return fmt.Sprintf("%g", v)
			case bool:
				if v {
					return "yes"
				}
				return "no"
			case nil:
				return ""
			default:
				return fmt.Sprintf("%v", v)
			}
		}
		next, ok := cur[p].(map[string]interface{})
		if !ok {
			return ""
		}
		cur = next
	}
	return ""
}

func customerColumns() []columnSpec {
	return []columnSpec{
		{Title: "ID", Width: 12, Value: func(m map[string]interface{}) string { return str(m, "customerId") }},
		{Title: "Name", Width: 24, Value: func(m map[string]interface{}) string {
			if name := str(m, "personalDetails", "firstName"); name != "" {
				return name + " " + str(m, "personalDetails", "lastName")
			}
			return str(m, "name")
		}},
		{Title: "Type", Width: 11, Value: func(m map[string]interface{}) string { return str(m, "customerType") }},
		{Title: "Mobile", Width: 12, Value: func(m map[string]interface{}) string { return str(m, "personalDetails", "mobileNumber") }},
		{Title: "Active", Width: 7, Value: func(m map[string]interface{}) string { return str(m, "isActive") }},
	}
}

func policyColumns() []columnSpec {
	return []columnSpec{
		{Title: "Policy #", Width: 16, Value: func(m map[string]interface{}) string { return str(m, "insuranceDetails", "policyNumber") }},
		{Title: "Customer", Width: 20, Value: func(m map[string]interface{}) string {
			if name := str(m, "clientDetails", "customer", "name"); name != "" {
				return name
			}
			return str(m, "clientDetails", "customer")
		}},
		{Title: "Company", Width: 18, Value: func(m map[string]interface{}) string { return str(m, "insuranceDetails", "insuranceCompany") }},
		{Title: "Start", Width: 11, Value: func(m map[string]interface{}) string { return str(m, "insuranceDetails", "startDate") }},
		{Title: "End", Width: 11, Value: func(m map[string]interface{}) string { return str(m, "insuranceDetails", "endDate") }},
	}
}

// columnsFor returns the table layout for an entity.
func columnsFor(entity string) []columnSpec {
	if entity == "customer" {
		return customerColumns()
	}
	return policyColumns()
}

func tableColumns(specs []columnSpec) []table.Column {
	cols := make([]table.Column, len(specs))
	for i, s := range specs {
		cols[i] = table.Column{Title: s.Title, Width: s.Width}
	}
	return cols
}
