package context

import "strings"

// ResourceFields maps route parameters to the identifiers logged and traced
// for a request. Preshipment and entry group routes share ":id", so the
// route prefix decides which one it is.
func ResourceFields(route string, param func(string) string) map[string]string {
	fields := map[string]string{}
	if id := strings.TrimSpace(param("id")); id != "" {
		switch {
		case strings.HasPrefix(route, "/api/preshipments"):
			fields["preshipment_id"] = id
		case strings.HasPrefix(route, "/api/entry-groups"):
			fields["entry_group_id"] = id
		}
	}
	if number := strings.TrimSpace(param("number")); number != "" {
		fields["entry_summary_number"] = number
	}
	return fields
}
