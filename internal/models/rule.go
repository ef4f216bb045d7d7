package models

// RuleKind discriminates the fixed vocabulary of cross-argument rules.
type RuleKind string

// The rule kinds, in the order the resolver enforces them.
const (
	RuleRequires          RuleKind = "requires"
	RuleMutuallyExclusive RuleKind = "mutually_exclusive"
	RuleAllOrNone         RuleKind = "all_or_none"
	RuleOneOfRequired     RuleKind = "one_of_required"
)

// ValidRuleKind reports whether k names a known rule kind.
func ValidRuleKind(k RuleKind) bool {
	switch k {
	case RuleRequires, RuleMutuallyExclusive, RuleAllOrNone, RuleOneOfRequired:
		return true
	}
	return false
}

// Rule is a cross-argument constraint over a list of argument-or-group
// references. A group reference expands to all arguments sharing that group
// name within the rule's scope.
type Rule struct {
	Kind        RuleKind
	Arguments   []string // Argument or group names, declaration order
	Description string
}
