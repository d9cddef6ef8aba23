package shared

import "strings"

// SplitScopes parses the comma separated scope column into a clean slice.
func SplitScopes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	scopes := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			scopes = append(scopes, p)
		}
	}
	return scopes
}

// JoinScopes renders a scope slice back to its storage form.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, ",")
}
