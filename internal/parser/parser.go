// Package parser loads fuzzing schema documents (JSON or YAML) into the
// immutable model used by the generation core.
//
// The parser trusts the document's overall shape but enforces the model's
// own invariants: known value and rule kinds, bound ordering, count
// clamping, resolvable rule references. Problems that cannot be corrected
// by clamping are reported as models.ConfigurationError.
package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rmarinbe/argsfuzz/internal/models"
)

// Default bounds applied when a numeric spec omits them.
const (
	defaultNumericMin = 0
	defaultNumericMax = 100
	defaultListMin    = 0
	defaultListMax    = 10
	defaultMinCount   = 1
	defaultMaxCount   = 3
)

// Result carries a loaded schema plus non-fatal load warnings (clamped
// counts, clamped probabilities).
type Result struct {
	Schema   *models.Schema
	Warnings []string
}

// ParseFile reads and parses a schema document. The format is chosen by file
// extension: .yaml/.yml are decoded as YAML, everything else as JSON.
func ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return ParseYAML(data)
	}
	return ParseJSON(data)
}

// ParseJSON parses a JSON schema document.
func ParseJSON(data []byte) (*Result, error) {
	var doc schemaDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse JSON schema: %w", err)
	}
	return buildSchema(&doc)
}

// ParseYAML parses a YAML schema document.
func ParseYAML(data []byte) (*Result, error) {
	var doc schemaDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse YAML schema: %w", err)
	}
	return buildSchema(&doc)
}

// Document structs mirror the interchange format. Pointer fields distinguish
// "absent" from zero so defaults apply correctly.

type schemaDoc struct {
	Metadata    metadataDoc  `json:"metadata" yaml:"metadata"`
	Generation  *genDoc      `json:"generation,omitempty" yaml:"generation,omitempty"`
	Arguments   []argDoc     `json:"arguments" yaml:"arguments"`
	Positional  []posDoc     `json:"positional,omitempty" yaml:"positional,omitempty"`
	Rules       []ruleDoc    `json:"rules,omitempty" yaml:"rules,omitempty"`
	Subcommands []subDoc     `json:"subcommands,omitempty" yaml:"subcommands,omitempty"`
	GlobalArgs  []string     `json:"global_arguments,omitempty" yaml:"global_arguments,omitempty"`
}

type metadataDoc struct {
	ToolName    string `json:"tool_name" yaml:"tool_name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type genDoc struct {
	MinArgs               *int     `json:"min_args,omitempty" yaml:"min_args,omitempty"`
	MaxArgs               *int     `json:"max_args,omitempty" yaml:"max_args,omitempty"`
	EqualsFormProbability *float64 `json:"equals_form_probability,omitempty" yaml:"equals_form_probability,omitempty"`
}

type argDoc struct {
	Name        string         `json:"name" yaml:"name"`
	Flags       []string       `json:"flags" yaml:"flags"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Probability *float64       `json:"probability,omitempty" yaml:"probability,omitempty"`
	Group       string         `json:"group,omitempty" yaml:"group,omitempty"`
	DependsOn   []string       `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Required    bool           `json:"required,omitempty" yaml:"required,omitempty"`
	RepeatFlag  *repeatDoc     `json:"repeat_flag,omitempty" yaml:"repeat_flag,omitempty"`
	Value       valueDoc       `json:"value" yaml:"value"`
}

type repeatDoc struct {
	MinOccurs *int `json:"min_occurs,omitempty" yaml:"min_occurs,omitempty"`
	MaxOccurs *int `json:"max_occurs,omitempty" yaml:"max_occurs,omitempty"`
}

type posDoc struct {
	Name     string   `json:"name" yaml:"name"`
	Position int      `json:"position" yaml:"position"`
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Variadic bool     `json:"variadic,omitempty" yaml:"variadic,omitempty"`
	Value    valueDoc `json:"value" yaml:"value"`
}

type ruleDoc struct {
	Type        string   `json:"type" yaml:"type"`
	Arguments   []string `json:"arguments" yaml:"arguments"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

type subDoc struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Probability *float64 `json:"probability,omitempty" yaml:"probability,omitempty"`
	Arguments   []argDoc `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Positional  []posDoc `json:"positional,omitempty" yaml:"positional,omitempty"`
	Rules       []ruleDoc `json:"rules,omitempty" yaml:"rules,omitempty"`
}

type valueDoc struct {
	Kind      string         `json:"kind" yaml:"kind"`
	Min       *float64       `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64       `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern   string         `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Values    []string       `json:"values,omitempty" yaml:"values,omitempty"`
	Separator string         `json:"separator,omitempty" yaml:"separator,omitempty"`
	MinCount  *int           `json:"min_count,omitempty" yaml:"min_count,omitempty"`
	MaxCount  *int           `json:"max_count,omitempty" yaml:"max_count,omitempty"`
	Format    string         `json:"format,omitempty" yaml:"format,omitempty"`
	Path      string         `json:"path,omitempty" yaml:"path,omitempty"`
	Generator string         `json:"generator,omitempty" yaml:"generator,omitempty"`
	Params    map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// builder accumulates warnings while converting a document into the model.
type builder struct {
	warnings []string
}

func (b *builder) warnf(format string, args ...any) {
	b.warnings = append(b.warnings, fmt.Sprintf(format, args...))
}

func buildSchema(doc *schemaDoc) (*Result, error) {
	b := &builder{}

	schema := &models.Schema{
		Metadata: models.Metadata{
			ToolName:    doc.Metadata.ToolName,
			Version:     doc.Metadata.Version,
			Description: doc.Metadata.Description,
		},
		Generation: buildGeneration(doc.Generation),
		GlobalArgs: doc.GlobalArgs,
	}

	args, err := b.buildArguments("", doc.Arguments)
	if err != nil {
		return nil, err
	}
	schema.Arguments = args

	positionals, err := b.buildPositionals("", doc.Positional)
	if err != nil {
		return nil, err
	}
	schema.Positionals = positionals

	rules, err := buildRules("", doc.Rules)
	if err != nil {
		return nil, err
	}
	schema.Rules = rules

	for _, sd := range doc.Subcommands {
		sub, err := b.buildSubcommand(&sd)
		if err != nil {
			return nil, err
		}
		schema.Subcommands = append(schema.Subcommands, sub)
	}

	schema.Finalize()

	if err := checkRuleReferences(schema); err != nil {
		return nil, err
	}

	return &Result{Schema: schema, Warnings: b.warnings}, nil
}

func buildGeneration(doc *genDoc) models.Generation {
	gen := models.Generation{MinArgs: 1, MaxArgs: 20, EqualsFormProbability: 0}
	if doc == nil {
		return gen
	}
	if doc.MinArgs != nil {
		gen.MinArgs = *doc.MinArgs
	}
	if doc.MaxArgs != nil {
		gen.MaxArgs = *doc.MaxArgs
	}
	if doc.EqualsFormProbability != nil {
		gen.EqualsFormProbability = *doc.EqualsFormProbability
	}
	return gen
}

func (b *builder) buildArguments(scope string, docs []argDoc) ([]*models.Argument, error) {
	args := make([]*models.Argument, 0, len(docs))
	seen := make(map[string]bool, len(docs))

	for i := range docs {
		d := &docs[i]
		if d.Name == "" {
			return nil, models.NewConfigurationError(scope, "argument %d has no name", i)
		}
		if seen[d.Name] {
			return nil, models.NewConfigurationError(scope, "duplicate argument name %q", d.Name)
		}
		seen[d.Name] = true
		if len(d.Flags) == 0 {
			return nil, models.NewConfigurationError(scope, "argument %q declares no flags", d.Name)
		}

		prob := 0.5
		if d.Probability != nil {
			prob = *d.Probability
		}
		if prob < 0 || prob > 1 {
			b.warnf("argument %q: probability %v clamped into [0,1]", d.Name, prob)
			prob = clampFloat(prob, 0, 1)
		}

		repeat, err := buildRepeat(scope, d.Name, d.RepeatFlag)
		if err != nil {
			return nil, err
		}

		spec, err := b.buildValueSpec(scope, d.Name, &d.Value)
		if err != nil {
			return nil, err
		}

		args = append(args, &models.Argument{
			Name:        d.Name,
			Flags:       d.Flags,
			Description: d.Description,
			Probability: prob,
			Group:       d.Group,
			DependsOn:   d.DependsOn,
			Required:    d.Required,
			Repeat:      repeat,
			Value:       spec,
		})
	}

	return args, nil
}

func buildRepeat(scope, name string, doc *repeatDoc) (*models.RepeatFlag, error) {
	if doc == nil {
		return nil, nil
	}
	rf := &models.RepeatFlag{MinOccurs: 1, MaxOccurs: 1}
	if doc.MinOccurs != nil {
		rf.MinOccurs = *doc.MinOccurs
	}
	if doc.MaxOccurs != nil {
		rf.MaxOccurs = *doc.MaxOccurs
	}
	if rf.MinOccurs < 1 || rf.MaxOccurs < 1 {
		return nil, models.NewConfigurationError(scope, "argument %q: repeat_flag occurrences must be >= 1", name)
	}
	if rf.MinOccurs > rf.MaxOccurs {
		return nil, models.NewConfigurationError(scope, "argument %q: repeat_flag min_occurs %d > max_occurs %d",
			name, rf.MinOccurs, rf.MaxOccurs)
	}
	return rf, nil
}

func (b *builder) buildPositionals(scope string, docs []posDoc) ([]*models.Positional, error) {
	positionals := make([]*models.Positional, 0, len(docs))
	for i := range docs {
		d := &docs[i]
		if d.Name == "" {
			return nil, models.NewConfigurationError(scope, "positional %d has no name", i)
		}
		spec, err := b.buildValueSpec(scope, d.Name, &d.Value)
		if err != nil {
			return nil, err
		}
		positionals = append(positionals, &models.Positional{
			Name:     d.Name,
			Position: d.Position,
			Required: d.Required,
			Variadic: d.Variadic,
			Value:    spec,
		})
	}
	sort.SliceStable(positionals, func(i, j int) bool {
		return positionals[i].Position < positionals[j].Position
	})
	return positionals, nil
}

func buildRules(scope string, docs []ruleDoc) ([]*models.Rule, error) {
	rules := make([]*models.Rule, 0, len(docs))
	for i := range docs {
		d := &docs[i]
		kind := models.RuleKind(d.Type)
		if !models.ValidRuleKind(kind) {
			return nil, models.NewConfigurationError(scope, "rule %d: unknown rule type %q", i, d.Type)
		}
		if len(d.Arguments) < 1 {
			return nil, models.NewConfigurationError(scope, "rule %d (%s): no argument references", i, d.Type)
		}
		rules = append(rules, &models.Rule{
			Kind:        kind,
			Arguments:   d.Arguments,
			Description: d.Description,
		})
	}
	return rules, nil
}

func (b *builder) buildSubcommand(doc *subDoc) (*models.Subcommand, error) {
	if doc.Name == "" {
		return nil, models.NewConfigurationError("", "subcommand with no name")
	}
	prob := 0.5
	if doc.Probability != nil {
		prob = *doc.Probability
	}
	args, err := b.buildArguments(doc.Name, doc.Arguments)
	if err != nil {
		return nil, err
	}
	positionals, err := b.buildPositionals(doc.Name, doc.Positional)
	if err != nil {
		return nil, err
	}
	rules, err := buildRules(doc.Name, doc.Rules)
	if err != nil {
		return nil, err
	}
	return &models.Subcommand{
		Name:        doc.Name,
		Aliases:     doc.Aliases,
		Probability: clampFloat(prob, 0, 1),
		Arguments:   args,
		Positionals: positionals,
		Rules:       rules,
	}, nil
}

func (b *builder) buildValueSpec(scope, owner string, doc *valueDoc) (models.ValueSpec, error) {
	kind := models.ValueKind(doc.Kind)
	if !models.ValidKind(kind) {
		return models.ValueSpec{}, models.NewConfigurationError(scope, "%q: unknown value kind %q", owner, doc.Kind)
	}

	spec := models.ValueSpec{
		Kind:      kind,
		Pattern:   doc.Pattern,
		Values:    doc.Values,
		Separator: doc.Separator,
		Path:      doc.Path,
		Generator: doc.Generator,
		Params:    doc.Params,
	}
	if spec.Separator == "" {
		spec.Separator = ","
	}

	switch kind {
	case models.KindInteger, models.KindIntegerOptional, models.KindFloat:
		spec.Min, spec.Max = numericBounds(doc, defaultNumericMin, defaultNumericMax)
		if spec.Min > spec.Max {
			return models.ValueSpec{}, models.NewConfigurationError(scope,
				"%q: inverted bounds min=%v max=%v", owner, spec.Min, spec.Max)
		}

	case models.KindList:
		spec.Min, spec.Max = numericBounds(doc, defaultListMin, defaultListMax)
		if spec.Min > spec.Max {
			return models.ValueSpec{}, models.NewConfigurationError(scope,
				"%q: inverted bounds min=%v max=%v", owner, spec.Min, spec.Max)
		}
		spec.MinCount = defaultMinCount
		spec.MaxCount = defaultMaxCount
		if doc.MinCount != nil {
			spec.MinCount = *doc.MinCount
		}
		if doc.MaxCount != nil {
			spec.MaxCount = *doc.MaxCount
		}
		if spec.MinCount < 0 || spec.MaxCount < 0 {
			return models.ValueSpec{}, models.NewConfigurationError(scope,
				"%q: negative list counts", owner)
		}
		if spec.MinCount > spec.MaxCount {
			return models.ValueSpec{}, models.NewConfigurationError(scope,
				"%q: min_count %d > max_count %d", owner, spec.MinCount, spec.MaxCount)
		}
		// A finite value set caps the element count.
		if len(spec.Values) > 0 && spec.MaxCount > len(spec.Values) {
			b.warnf("%q: max_count %d clamped to %d available values", owner, spec.MaxCount, len(spec.Values))
			spec.MaxCount = len(spec.Values)
			if spec.MinCount > spec.MaxCount {
				spec.MinCount = spec.MaxCount
			}
		}
		spec.Format = models.FormatPlain
		if doc.Format != "" {
			switch models.ListFormat(doc.Format) {
			case models.FormatPlain, models.FormatCSVRange:
				spec.Format = models.ListFormat(doc.Format)
			default:
				return models.ValueSpec{}, models.NewConfigurationError(scope,
					"%q: unknown list format %q", owner, doc.Format)
			}
		}

	case models.KindEnum:
		if len(spec.Values) == 0 {
			return models.ValueSpec{}, models.NewConfigurationError(scope,
				"%q: enum kind with no values", owner)
		}

	case models.KindCustom:
		if spec.Generator == "" {
			return models.ValueSpec{}, models.NewConfigurationError(scope,
				"%q: custom kind with no generator name", owner)
		}
	}

	return spec, nil
}

func numericBounds(doc *valueDoc, defMin, defMax float64) (float64, float64) {
	min, max := defMin, defMax
	if doc.Min != nil {
		min = *doc.Min
	}
	if doc.Max != nil {
		max = *doc.Max
	}
	return min, max
}

// checkRuleReferences verifies every rule and depends_on reference resolves
// to an argument or group within its scope.
func checkRuleReferences(schema *models.Schema) error {
	if err := checkScopeReferences(schema.RootScope()); err != nil {
		return err
	}
	for _, sub := range schema.Subcommands {
		if err := checkScopeReferences(schema.SubcommandScope(sub.Name)); err != nil {
			return err
		}
	}
	return nil
}

func checkScopeReferences(scope *models.Scope) error {
	resolvable := func(ref string) bool {
		return scope.Argument(ref) != nil || scope.IsGroup(ref)
	}

	for i, rule := range scope.Rules {
		for _, ref := range rule.Arguments {
			if !resolvable(ref) {
				return models.NewConfigurationError(scope.Subcommand,
					"rule %d (%s) references unknown argument or group %q", i, rule.Kind, ref)
			}
		}
	}
	for _, arg := range scope.Arguments {
		for _, ref := range arg.DependsOn {
			dep := models.ParseDependency(ref)
			if dep.Conditional() {
				// The condition compares the target's generated value, so the
				// target must be an argument rather than a group.
				if scope.Argument(dep.Target) == nil {
					detail := "unknown argument"
					if scope.IsGroup(dep.Target) {
						detail = "group"
					}
					return models.NewConfigurationError(scope.Subcommand,
						"argument %q has conditional dependency %q on %s %q; conditions require an argument target",
						arg.Name, ref, detail, dep.Target)
				}
				continue
			}
			if !resolvable(dep.Target) {
				return models.NewConfigurationError(scope.Subcommand,
					"argument %q depends on unknown argument or group %q", arg.Name, dep.Target)
			}
		}
	}
	return nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
