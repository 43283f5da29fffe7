package service

import "sort"

// synonymTable maps a keyword to related terms added during expansion. The
// values never appear as keys, so expansion is idempotent.
var synonymTable = map[string][]string{
	"累":  {"疲憊", "疲倦", "好累", "累死", "不行了"},
	"生氣": {"氣", "不爽", "火大", "憤怒"},
	"開心": {"高興", "快樂", "爽", "愉快"},
	"難過": {"傷心", "悲傷", "失落", "沮喪"},
}

// Expander widens a keyword set with known synonyms.
type Expander struct{}

// NewExpander creates a keyword expander.
func NewExpander() *Expander {
	return &Expander{}
}

// Expand returns the union of the input keywords and the synonyms of any
// keyword present in the table, sorted for stable output.
func (e *Expander) Expand(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		seen[kw] = struct{}{}
		for _, syn := range synonymTable[kw] {
			seen[syn] = struct{}{}
		}
	}

	expanded := make([]string, 0, len(seen))
	for kw := range seen {
		expanded = append(expanded, kw)
	}
	sort.Strings(expanded)
	return expanded
}
