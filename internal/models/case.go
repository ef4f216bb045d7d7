package models

// Occurrence is one emission of an argument flag. HasValue is false for
// flag-kind arguments and for integer_optional occurrences that resolved to
// a bare flag.
type Occurrence struct {
	Value    string
	HasValue bool
}

// CaseArg is one selected argument with its generated occurrences.
type CaseArg struct {
	Arg         *Argument
	Occurrences []Occurrence
}

// CasePositional is one selected positional with its generated values
// (more than one only for variadic positionals).
type CasePositional struct {
	Positional *Positional
	Values     []string
}

// Case is the generation context for a single corpus entry: the resolved
// subcommand, the chosen arguments with their values, and the chosen
// positionals. A Case is created, filled through selection and value
// generation, optionally mutated, assembled, and then discarded; it is never
// reused across cases.
type Case struct {
	Index      int
	Subcommand string    // Empty when no subcommand is used
	Globals    []CaseArg // Root-scope global arguments emitted before the subcommand
	Args       []CaseArg // Scope arguments, schema declaration order
	Positional []CasePositional // Ascending position order

	Valid    bool
	Strategy string // Mutation strategy applied; empty for valid cases
}

// FindArg returns the index of the named argument in Args, or -1.
func (c *Case) FindArg(name string) int {
	for i := range c.Args {
		if c.Args[i].Arg.Name == name {
			return i
		}
	}
	return -1
}

// RemoveArg deletes the named argument from Args. Reports whether it was
// present.
func (c *Case) RemoveArg(name string) bool {
	i := c.FindArg(name)
	if i < 0 {
		return false
	}
	c.Args = append(c.Args[:i], c.Args[i+1:]...)
	return true
}

// SelectedNames returns the names of all selected scope arguments in order.
func (c *Case) SelectedNames() []string {
	names := make([]string, len(c.Args))
	for i := range c.Args {
		names[i] = c.Args[i].Arg.Name
	}
	return names
}
