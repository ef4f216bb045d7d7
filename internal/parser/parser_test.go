package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmarinbe/argsfuzz/internal/models"
)

const minimalJSON = `{
  "metadata": {"tool_name": "demo"},
  "arguments": [
    {"name": "verbose", "flags": ["-v", "--verbose"], "value": {"kind": "flag"}}
  ]
}`

// TestParseJSONMinimal verifies a minimal document and its defaults
func TestParseJSONMinimal(t *testing.T) {
	result, err := ParseJSON([]byte(minimalJSON))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	schema := result.Schema

	if schema.Metadata.ToolName != "demo" {
		t.Errorf("ToolName = %q, want demo", schema.Metadata.ToolName)
	}
	if len(schema.Arguments) != 1 {
		t.Fatalf("len(Arguments) = %d, want 1", len(schema.Arguments))
	}

	arg := schema.Arguments[0]
	if arg.Probability != 0.5 {
		t.Errorf("default Probability = %v, want 0.5", arg.Probability)
	}
	if arg.CanonicalFlag() != "-v" {
		t.Errorf("CanonicalFlag = %q, want -v", arg.CanonicalFlag())
	}

	if schema.Generation.MinArgs != 1 || schema.Generation.MaxArgs != 20 {
		t.Errorf("default generation window = [%d, %d], want [1, 20]",
			schema.Generation.MinArgs, schema.Generation.MaxArgs)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", result.Warnings)
	}
}

// TestParseYAMLFull exercises subcommands, rules, positionals, and numeric defaults
func TestParseYAMLFull(t *testing.T) {
	doc := `
metadata:
  tool_name: scanner
  version: "2.1"
generation:
  min_args: 2
  max_args: 6
  equals_form_probability: 0.25
arguments:
  - name: depth
    flags: ["-d", "--depth"]
    value:
      kind: integer
      min: 1
      max: 10
  - name: rate
    flags: ["--rate"]
    value:
      kind: float
  - name: mode
    flags: ["--mode"]
    required: true
    value:
      kind: enum
      values: [fast, slow]
positional:
  - name: target
    position: 2
    required: true
    value: {kind: string}
  - name: source
    position: 1
    value: {kind: file}
rules:
  - type: mutually_exclusive
    arguments: [depth, rate]
global_arguments: [mode]
subcommands:
  - name: scan
    probability: 0.7
    aliases: [s]
    arguments:
      - name: ports
        flags: ["-p"]
        repeat_flag:
          min_occurs: 1
          max_occurs: 3
        value:
          kind: list
          format: csv_range
          min: 1
          max: 1024
`
	result, err := ParseYAML([]byte(doc))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	schema := result.Schema

	if schema.Generation.MaxArgs != 6 {
		t.Errorf("MaxArgs = %d, want 6", schema.Generation.MaxArgs)
	}
	if schema.Generation.EqualsFormProbability != 0.25 {
		t.Errorf("EqualsFormProbability = %v, want 0.25", schema.Generation.EqualsFormProbability)
	}

	depth := schema.Argument("depth")
	if depth == nil || depth.Value.Min != 1 || depth.Value.Max != 10 {
		t.Errorf("depth bounds = %+v, want [1, 10]", depth)
	}
	rate := schema.Argument("rate")
	if rate.Value.Min != 0 || rate.Value.Max != 100 {
		t.Errorf("rate default bounds = [%v, %v], want [0, 100]", rate.Value.Min, rate.Value.Max)
	}

	// Positionals sorted ascending by position.
	if schema.Positionals[0].Name != "source" || schema.Positionals[1].Name != "target" {
		t.Errorf("positional order = [%s, %s], want [source, target]",
			schema.Positionals[0].Name, schema.Positionals[1].Name)
	}

	if len(schema.GlobalArgs) != 1 || schema.GlobalArgs[0] != "mode" {
		t.Errorf("GlobalArgs = %v, want [mode]", schema.GlobalArgs)
	}

	sub := schema.Subcommands[0]
	if sub.Name != "scan" || sub.Probability != 0.7 {
		t.Errorf("subcommand = %s/%v, want scan/0.7", sub.Name, sub.Probability)
	}
	ports := sub.Arguments[0]
	if ports.Repeat == nil || ports.Repeat.MaxOccurs != 3 {
		t.Errorf("ports repeat = %+v, want max_occurs 3", ports.Repeat)
	}
	if ports.Value.Format != models.FormatCSVRange {
		t.Errorf("ports format = %q, want csv_range", ports.Value.Format)
	}
	if ports.Value.MinCount != 1 || ports.Value.MaxCount != 3 {
		t.Errorf("ports counts = [%d, %d], want defaults [1, 3]",
			ports.Value.MinCount, ports.Value.MaxCount)
	}
	if ports.Value.Separator != "," {
		t.Errorf("ports separator = %q, want comma", ports.Value.Separator)
	}
}

// TestParseFileByExtension verifies extension-based format dispatch
func TestParseFileByExtension(t *testing.T) {
	tmpDir := t.TempDir()

	yamlPath := filepath.Join(tmpDir, "schema.yaml")
	yamlDoc := "metadata: {tool_name: ytool}\narguments:\n  - name: a\n    flags: [\"-a\"]\n    value: {kind: flag}\n"
	if err := os.WriteFile(yamlPath, []byte(yamlDoc), 0644); err != nil {
		t.Fatal(err)
	}
	jsonPath := filepath.Join(tmpDir, "schema.json")
	if err := os.WriteFile(jsonPath, []byte(minimalJSON), 0644); err != nil {
		t.Fatal(err)
	}

	yres, err := ParseFile(yamlPath)
	if err != nil {
		t.Fatalf("ParseFile(yaml) error = %v", err)
	}
	if yres.Schema.Metadata.ToolName != "ytool" {
		t.Errorf("yaml ToolName = %q", yres.Schema.Metadata.ToolName)
	}

	jres, err := ParseFile(jsonPath)
	if err != nil {
		t.Fatalf("ParseFile(json) error = %v", err)
	}
	if jres.Schema.Metadata.ToolName != "demo" {
		t.Errorf("json ToolName = %q", jres.Schema.Metadata.ToolName)
	}

	if _, err := ParseFile(filepath.Join(tmpDir, "missing.json")); err == nil {
		t.Error("ParseFile(missing) error = nil")
	}
}

// TestParseInvalidDocuments covers load-time invariant rejection
func TestParseInvalidDocuments(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantSub string
	}{
		{
			name: "inverted numeric bounds",
			doc: `{"metadata": {"tool_name": "x"}, "arguments": [
				{"name": "n", "flags": ["-n"], "value": {"kind": "integer", "min": 10, "max": 1}}]}`,
			wantSub: "inverted bounds",
		},
		{
			name: "unknown value kind",
			doc: `{"metadata": {"tool_name": "x"}, "arguments": [
				{"name": "n", "flags": ["-n"], "value": {"kind": "decimal"}}]}`,
			wantSub: "unknown value kind",
		},
		{
			name: "enum without values",
			doc: `{"metadata": {"tool_name": "x"}, "arguments": [
				{"name": "n", "flags": ["-n"], "value": {"kind": "enum"}}]}`,
			wantSub: "no values",
		},
		{
			name: "custom without generator",
			doc: `{"metadata": {"tool_name": "x"}, "arguments": [
				{"name": "n", "flags": ["-n"], "value": {"kind": "custom"}}]}`,
			wantSub: "no generator name",
		},
		{
			name: "min_count above max_count",
			doc: `{"metadata": {"tool_name": "x"}, "arguments": [
				{"name": "n", "flags": ["-n"], "value": {"kind": "list", "min_count": 5, "max_count": 2}}]}`,
			wantSub: "min_count 5 > max_count 2",
		},
		{
			name: "negative repeat bounds",
			doc: `{"metadata": {"tool_name": "x"}, "arguments": [
				{"name": "n", "flags": ["-n"], "repeat_flag": {"min_occurs": 0}, "value": {"kind": "flag"}}]}`,
			wantSub: "must be >= 1",
		},
		{
			name: "duplicate argument name",
			doc: `{"metadata": {"tool_name": "x"}, "arguments": [
				{"name": "n", "flags": ["-n"], "value": {"kind": "flag"}},
				{"name": "n", "flags": ["-m"], "value": {"kind": "flag"}}]}`,
			wantSub: "duplicate argument name",
		},
		{
			name: "argument without flags",
			doc: `{"metadata": {"tool_name": "x"}, "arguments": [
				{"name": "n", "flags": [], "value": {"kind": "flag"}}]}`,
			wantSub: "declares no flags",
		},
		{
			name: "unknown rule type",
			doc: `{"metadata": {"tool_name": "x"}, "arguments": [
				{"name": "n", "flags": ["-n"], "value": {"kind": "flag"}}],
				"rules": [{"type": "xor", "arguments": ["n"]}]}`,
			wantSub: "unknown rule type",
		},
		{
			name: "rule references unknown argument",
			doc: `{"metadata": {"tool_name": "x"}, "arguments": [
				{"name": "n", "flags": ["-n"], "value": {"kind": "flag"}}],
				"rules": [{"type": "requires", "arguments": ["n", "ghost"]}]}`,
			wantSub: "unknown argument or group",
		},
		{
			name: "depends_on references unknown argument",
			doc: `{"metadata": {"tool_name": "x"}, "arguments": [
				{"name": "n", "flags": ["-n"], "depends_on": ["ghost"], "value": {"kind": "flag"}}]}`,
			wantSub: "unknown argument or group",
		},
		{
			name: "conditional depends_on references unknown argument",
			doc: `{"metadata": {"tool_name": "x"}, "arguments": [
				{"name": "turbo", "flags": ["-t"], "depends_on": ["ghost=fast"], "value": {"kind": "flag"}}]}`,
			wantSub: `conditional dependency "ghost=fast" on unknown argument "ghost"`,
		},
		{
			name: "conditional depends_on references a group",
			doc: `{"metadata": {"tool_name": "x"}, "arguments": [
				{"name": "turbo", "flags": ["-t"], "depends_on": ["io=fast"], "value": {"kind": "flag"}},
				{"name": "out", "flags": ["-o"], "group": "io", "value": {"kind": "flag"}}]}`,
			wantSub: "conditions require an argument target",
		},
		{
			name: "unknown list format",
			doc: `{"metadata": {"tool_name": "x"}, "arguments": [
				{"name": "n", "flags": ["-n"], "value": {"kind": "list", "format": "tsv"}}]}`,
			wantSub: "unknown list format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.doc))
			if err == nil {
				t.Fatal("ParseJSON() error = nil, want configuration error")
			}
			var cfgErr *models.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error type = %T, want *models.ConfigurationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantSub)
			}
		})
	}
}

// TestParseConditionalDependency accepts value conditions in depends_on
func TestParseConditionalDependency(t *testing.T) {
	doc := `{"metadata": {"tool_name": "x"}, "arguments": [
		{"name": "mode", "flags": ["-m"], "value": {"kind": "enum", "values": ["fast", "slow"]}},
		{"name": "turbo", "flags": ["-t"], "depends_on": ["mode=fast"], "value": {"kind": "flag"}}]}`

	res, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	turbo := res.Schema.RootScope().Argument("turbo")
	if turbo == nil {
		t.Fatal("turbo not parsed")
	}
	if len(turbo.DependsOn) != 1 || turbo.DependsOn[0] != "mode=fast" {
		t.Errorf("DependsOn = %v, want [mode=fast]", turbo.DependsOn)
	}
}

// TestSubcommandScopedReferences verifies rule references resolve per scope
func TestSubcommandScopedReferences(t *testing.T) {
	doc := `{
		"metadata": {"tool_name": "x"},
		"arguments": [{"name": "root_only", "flags": ["-r"], "value": {"kind": "flag"}}],
		"subcommands": [{
			"name": "sub",
			"rules": [{"type": "one_of_required", "arguments": ["root_only"]}]
		}]
	}`
	_, err := ParseJSON([]byte(doc))
	if err == nil {
		t.Fatal("expected scope violation error")
	}
	var cfgErr *models.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Scope != "sub" {
		t.Errorf("error = %v, want configuration error scoped to sub", err)
	}
}

// TestMaxCountClampWarning verifies clamping to the available value set
func TestMaxCountClampWarning(t *testing.T) {
	doc := `{"metadata": {"tool_name": "x"}, "arguments": [
		{"name": "n", "flags": ["-n"],
		 "value": {"kind": "list", "values": ["a", "b"], "min_count": 1, "max_count": 5}}]}`
	result, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	spec := result.Schema.Arguments[0].Value
	if spec.MaxCount != 2 {
		t.Errorf("MaxCount = %d, want 2 after clamping", spec.MaxCount)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "clamped") {
		t.Errorf("Warnings = %v, want one clamp warning", result.Warnings)
	}
}

// TestProbabilityClampWarning verifies out-of-range probabilities clamp with a warning
func TestProbabilityClampWarning(t *testing.T) {
	doc := `{"metadata": {"tool_name": "x"}, "arguments": [
		{"name": "n", "flags": ["-n"], "probability": 1.5, "value": {"kind": "flag"}}]}`
	result, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if got := result.Schema.Arguments[0].Probability; got != 1 {
		t.Errorf("Probability = %v, want 1 after clamping", got)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one", result.Warnings)
	}
}
