package rbac

import "strings"

// Decide renders the authorization decision: allow iff the caller holds at
// least one of the required permissions (ANY-match, logical OR). An empty
// required set declares no restriction and always allows. Deny is a normal
// return value, never an error.
func Decide(required, granted []string) bool {
	required = Normalize(required)
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	for _, p := range required {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}

// Normalize lower-cases, trims, and deduplicates a permission list.
func Normalize(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	return normalized
}
