package claude

import "strings"

// ExtractJSON returns the JSON payload of a model response, stripping the
// Markdown code fences the model sometimes wraps around it even when asked
// not to.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	if i := strings.Index(s, "```json"); i != -1 {
		s = s[i+len("```json"):]
		if j := strings.Index(s, "```"); j != -1 {
			s = s[:j]
		}
		return strings.TrimSpace(s)
	}

	if i := strings.Index(s, "```"); i != -1 {
		s = s[i+len("```"):]
		if j := strings.Index(s, "```"); j != -1 {
			s = s[:j]
		}
		return strings.TrimSpace(s)
	}

	return s
}
