package intake

import "strings"

// Accepts reports whether a file with the given display name and
// declared media type passes the configured type rules. An empty rule
// set accepts every file.
//
// Parameters:
//   - name: display name of the file, matched against extension rules
//   - mime: declared media type, matched against media-type rules
//
// Returns:
//   - bool: true if any rule matches, or if no rules are configured
func (c Config) Accepts(name, mime string) bool {
	if len(c.AcceptedTypes) == 0 {
		return true
	}
	lowName, lowMIME := strings.ToLower(name), strings.ToLower(mime)
	for _, r := range c.AcceptedTypes {
		if ruleMatches(r, lowName, lowMIME) {
			return true
		}
	}
	return false
}

// ruleMatches evaluates a single rule, one of three forms: a
// dot-prefixed extension (".pdf"), a media-type wildcard ("image/*"),
// or an exact media type ("application/pdf"). Anything else matches
// nothing.
func ruleMatches(rule, lowName, lowMIME string) bool {
	switch {
	case strings.HasPrefix(rule, "."):
		return strings.HasSuffix(lowName, strings.ToLower(rule))
	case strings.HasSuffix(rule, "/*"):
		return strings.HasPrefix(lowMIME, strings.ToLower(strings.TrimSuffix(rule, "*")))
	case strings.Contains(rule, "/"):
		return lowMIME == strings.ToLower(rule)
	default:
		return false
	}
}
