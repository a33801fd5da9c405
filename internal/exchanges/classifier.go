package exchanges

import "strings"

// Classifier decides whether a venue is centralized (CEX) or decentralized
// (DEX) from its identifier and display name. Lookup tables are fixed at
// construction; the decision is deterministic and never errors.
//
// Precedence, first match wins:
//  1. allow-list of known CEX names (substring, case-insensitive) → CEX
//  2. DEX keyword list (substring, case-insensitive) → DEX
//  3. the source's own flag, when supplied
//  4. default CEX
type Classifier struct {
	allowList []string
	keywords  []string
}

// NewClassifier returns a classifier using the built-in lookup tables.
func NewClassifier() *Classifier {
	return NewClassifierWithTables(centralizedAllowList, decentralizedKeywords)
}

// NewClassifierWithTables returns a classifier over custom tables.
// Entries are matched lowercased.
func NewClassifierWithTables(allowList, keywords []string) *Classifier {
	return &Classifier{
		allowList: lowerAll(allowList),
		keywords:  lowerAll(keywords),
	}
}

// Classify reports whether the venue is centralized. sourceFlag is the
// upstream catalog's own hint and is only consulted when neither table
// matches; nil means no hint, which defaults to centralized.
func (c *Classifier) Classify(identifier, displayName string, sourceFlag *bool) bool {
	id := strings.ToLower(identifier)
	name := strings.ToLower(displayName)

	if matchAny(c.allowList, id, name) {
		return true
	}
	if matchAny(c.keywords, id, name) {
		return false
	}
	if sourceFlag != nil {
		return *sourceFlag
	}
	return true
}

// IsKeywordDecentralized reports whether the keyword rule alone would mark
// the venue decentralized, respecting allow-list precedence. Used by the
// identifier map builder to force request-time keyword evidence over
// catalog-derived entries.
func (c *Classifier) IsKeywordDecentralized(identifier, displayName string) bool {
	return !c.Classify(identifier, displayName, nil)
}

func matchAny(entries []string, id, name string) bool {
	for _, entry := range entries {
		if entry == "" {
			continue
		}
		if strings.Contains(id, entry) || strings.Contains(name, entry) {
			return true
		}
	}
	return false
}

func lowerAll(entries []string) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = strings.ToLower(e)
	}
	return out
}
