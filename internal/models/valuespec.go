package models

// ValueKind discriminates the closed set of value specifications an argument
// or positional may carry. Unknown kinds are rejected at load time.
type ValueKind string

// The full set of value kinds.
const (
	KindFlag            ValueKind = "flag"
	KindInteger         ValueKind = "integer"
	KindIntegerOptional ValueKind = "integer_optional"
	KindFloat           ValueKind = "float"
	KindString          ValueKind = "string"
	KindEnum            ValueKind = "enum"
	KindList            ValueKind = "list"
	KindFile            ValueKind = "file"
	KindDirectory       ValueKind = "directory"
	KindCustom          ValueKind = "custom"
)

// ValidKind reports whether k names a known value kind.
func ValidKind(k ValueKind) bool {
	switch k {
	case KindFlag, KindInteger, KindIntegerOptional, KindFloat, KindString,
		KindEnum, KindList, KindFile, KindDirectory, KindCustom:
		return true
	}
	return false
}

// ListFormat selects how a generated list is rendered.
type ListFormat string

const (
	// FormatPlain joins selected items with the separator in selection order.
	FormatPlain ListFormat = "plain"
	// FormatCSVRange renders sorted integers as comma-joined runs, collapsing
	// runs of three or more consecutive values into "start-end".
	FormatCSVRange ListFormat = "csv_range"
)

// ValueSpec is the tagged union describing how to generate a value. Only the
// fields relevant to Kind are meaningful; the parser enforces per-kind
// invariants (bound ordering, count clamping) at load time.
type ValueSpec struct {
	Kind ValueKind

	// Numeric kinds (integer, integer_optional, float, and list without
	// enumerated values).
	Min float64
	Max float64

	// string, file, directory: optional regular expression the value must
	// match. For file/directory it filters scanned entries and shapes
	// synthesized names.
	Pattern string

	// enum, list.
	Values    []string
	Separator string     // List separator, default ","
	MinCount  int        // List element count lower bound
	MaxCount  int        // List element count upper bound (clamped to len(Values))
	Format    ListFormat // List rendering, default plain

	// file, directory: base path to scan for existing entries.
	Path string

	// custom.
	Generator string
	Params    map[string]any
}

// HasValue reports whether this spec produces a textual value at all.
// Flag-kind arguments signal by presence alone.
func (v *ValueSpec) HasValue() bool {
	return v.Kind != KindFlag
}

// IsNumeric reports whether the spec carries [Min,Max] integer/float bounds.
func (v *ValueSpec) IsNumeric() bool {
	switch v.Kind {
	case KindInteger, KindIntegerOptional, KindFloat:
		return true
	}
	return false
}
