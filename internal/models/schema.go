// Package models defines the immutable in-memory representation of a fuzzing
// schema: the arguments, positionals, rules, and subcommands that describe a
// target CLI's argument surface.
//
// A Schema is built once by the parser package and is never mutated
// afterwards, so independent generation workers may share one instance
// without locking.
package models

// Metadata identifies the target tool described by a schema
type Metadata struct {
	ToolName    string // Name of the CLI tool being fuzzed
	Version     string // Target tool version the schema describes
	Description string // Free-form description
}

// Generation holds the schema-level generation configuration
type Generation struct {
	MinArgs               int     // Minimum argument count per case
	MaxArgs               int     // Maximum argument count per case (0 = default)
	EqualsFormProbability float64 // Probability of emitting --flag=value instead of --flag value
}

// Schema is the root entity describing a target CLI's argument surface.
// All slices preserve declaration order from the source document; draw
// order during generation depends on it.
type Schema struct {
	Metadata    Metadata
	Generation  Generation
	Arguments   []*Argument   // Root-scope arguments, declaration order
	Positionals []*Positional // Root-scope positionals, sorted by Position
	Rules       []*Rule       // Root-scope rules, declaration order
	Subcommands []*Subcommand // Declaration order
	GlobalArgs  []string      // Root argument names emitted before a subcommand token

	argsByName map[string]*Argument
	subsByName map[string]*Subcommand
	groups     map[string][]string
}

// Subcommand is a named sub-scope with its own arguments, positionals, and
// rules. Rules inside a subcommand are scoped to that subcommand only.
type Subcommand struct {
	Name        string
	Aliases     []string
	Probability float64
	Arguments   []*Argument
	Positionals []*Positional
	Rules       []*Rule

	argsByName map[string]*Argument
	groups     map[string][]string
}

// Scope is a read-only view over one rule scope: either the schema root or a
// single subcommand. The constraint resolver and selector operate on scopes.
type Scope struct {
	Subcommand  string // Empty for the root scope
	Arguments   []*Argument
	Positionals []*Positional
	Rules       []*Rule

	argsByName map[string]*Argument
	groups     map[string][]string
}

// Finalize builds the internal lookup tables. The parser calls it once after
// construction; the schema is read-only from then on.
func (s *Schema) Finalize() {
	s.argsByName = indexArguments(s.Arguments)
	s.groups = indexGroups(s.Arguments)
	s.subsByName = make(map[string]*Subcommand, len(s.Subcommands))
	for _, sub := range s.Subcommands {
		sub.argsByName = indexArguments(sub.Arguments)
		sub.groups = indexGroups(sub.Arguments)
		s.subsByName[sub.Name] = sub
	}
}

func indexArguments(args []*Argument) map[string]*Argument {
	m := make(map[string]*Argument, len(args))
	for _, a := range args {
		m[a.Name] = a
	}
	return m
}

func indexGroups(args []*Argument) map[string][]string {
	m := make(map[string][]string)
	for _, a := range args {
		if a.Group != "" {
			m[a.Group] = append(m[a.Group], a.Name)
		}
	}
	return m
}

// RootScope returns the scope for the schema root.
func (s *Schema) RootScope() *Scope {
	return &Scope{
		Arguments:   s.Arguments,
		Positionals: s.Positionals,
		Rules:       s.Rules,
		argsByName:  s.argsByName,
		groups:      s.groups,
	}
}

// SubcommandScope returns the scope for the named subcommand, or nil if the
// subcommand does not exist.
func (s *Schema) SubcommandScope(name string) *Scope {
	sub, ok := s.subsByName[name]
	if !ok {
		return nil
	}
	return &Scope{
		Subcommand:  sub.Name,
		Arguments:   sub.Arguments,
		Positionals: sub.Positionals,
		Rules:       sub.Rules,
		argsByName:  sub.argsByName,
		groups:      sub.groups,
	}
}

// Argument returns the root-scope argument with the given name, or nil.
func (s *Schema) Argument(name string) *Argument {
	return s.argsByName[name]
}

// Argument returns the argument with the given name in this scope, or nil.
func (sc *Scope) Argument(name string) *Argument {
	return sc.argsByName[name]
}

// Group returns the member argument names sharing the given group name, in
// declaration order. Returns nil when no argument declares the group.
func (sc *Scope) Group(name string) []string {
	return sc.groups[name]
}

// IsGroup reports whether name refers to a group rather than an argument.
func (sc *Scope) IsGroup(name string) bool {
	_, ok := sc.groups[name]
	return ok
}
