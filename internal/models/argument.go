package models

import "strings"

// RepeatFlag describes how many times a repeating argument may occur on a
// single command line. Both bounds are at least 1 and MinOccurs <= MaxOccurs.
type RepeatFlag struct {
	MinOccurs int
	MaxOccurs int
}

// Argument represents one flagged option of the target CLI.
type Argument struct {
	Name        string      // Unique key within its scope
	Flags       []string    // Flag spellings; the first entry is canonical
	Description string      //
	Probability float64     // Inclusion probability in [0,1], default 0.5
	Group       string      // Optional group name for rule references
	DependsOn   []string    // Dependency references, possibly value-conditional; see ParseDependency
	Required    bool        // Always selected when true
	Repeat      *RepeatFlag // Nil for single-occurrence arguments
	Value       ValueSpec   // Exactly one value specification
}

// CanonicalFlag returns the first declared flag spelling.
func (a *Argument) CanonicalFlag() string {
	return a.Flags[0]
}

// Dependency is one parsed depends_on reference. A plain reference names an
// argument or group that must accompany the dependent. A conditional
// reference ("target=v1,v2") additionally restricts the target's generated
// value: the dependent is kept only when the target's value is one of the
// listed alternatives.
type Dependency struct {
	Target string
	Values []string // nil for plain references
}

// Conditional reports whether the dependency restricts the target's value.
func (d Dependency) Conditional() bool {
	return d.Values != nil
}

// Satisfied reports whether a conditional dependency's value condition holds.
// An absent value never satisfies it.
func (d Dependency) Satisfied(value string, ok bool) bool {
	if !ok {
		return false
	}
	for _, v := range d.Values {
		if v == value {
			return true
		}
	}
	return false
}

// ParseDependency splits a depends_on reference into its target and optional
// value condition. "verbose" yields a plain dependency on verbose;
// "mode=fast,slow" yields a conditional dependency on mode with the allowed
// values fast and slow.
func ParseDependency(ref string) Dependency {
	target, rest, found := strings.Cut(ref, "=")
	if !found {
		return Dependency{Target: ref}
	}
	vals := strings.Split(rest, ",")
	for i := range vals {
		vals[i] = strings.TrimSpace(vals[i])
	}
	return Dependency{Target: target, Values: vals}
}

// Positional represents an unflagged, position-ordered parameter.
type Positional struct {
	Name     string
	Position int  // Defines final command-line ordering, ascending
	Required bool //
	Variadic bool // May occur more than once in sequence
	Value    ValueSpec
}
