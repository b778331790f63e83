package cssom

// StyleSheet is an interface to abstract away a stylesheet-implementation.
// The projector generates CSS text; to inspect what has been written into
// a document, clients read the text back through an implementation of this
// interface (e.g., see package douceuradapter).
//
// See interface Rule.
type StyleSheet interface {
	AppendRules(StyleSheet) // append rules from another stylesheet
	Empty() bool            // does this stylesheet contain any rules?
	Rules() []Rule          // all the rules of a stylesheet
}

// Rule is the type stylesheets consists of.
//
// See interface StyleSheet.
type Rule interface {
	Selector() string        // the prelude / selectors of the rule
	Properties() []string    // property keys, e.g. "min-width"
	Value(string) string     // property value for key, e.g. "min(88%, 40rem)"
	IsImportant(string) bool // is property key marked as important?
}

// RulesFor returns all rules of sheet whose prelude equals selector, in
// source order.
func RulesFor(sheet StyleSheet, selector string) []Rule {
	var rules []Rule
	for _, r := range sheet.Rules() {
		if r.Selector() == selector {
			rules = append(rules, r)
		}
	}
	return rules
}
