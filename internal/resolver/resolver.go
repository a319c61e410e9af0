// Package resolver turns GraphQL field arguments into content queries and
// mutation arguments into element changes.
package resolver

import (
	"strings"
)

// PrepareArguments splits comma-separated string values of the arrayable
// arguments into lists and collapses any ["*"] into "*". The input map is
// not modified.
func PrepareArguments(args map[string]any, arrayable []string) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	for _, name := range arrayable {
		s, ok := out[name].(string)
		if !ok || s == "" {
			continue
		}
		var tokens []any
		for _, tok := range strings.Split(s, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				tokens = append(tokens, tok)
			}
		}
		if len(tokens) > 1 {
			out[name] = tokens
		}
	}
	for k, v := range out {
		if list, ok := v.([]any); ok && len(list) == 1 && list[0] == "*" {
			out[k] = "*"
		}
	}
	return out
}
