// Package docs renders human-readable documentation of a schema's argument
// surface: what flags exist, their value kinds and bounds, the rules
// connecting them, and the subcommands.
package docs

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/rmarinbe/argsfuzz/internal/models"
)

// RenderMarkdown produces a Markdown report for the schema.
func RenderMarkdown(schema *models.Schema) string {
	var sb strings.Builder

	title := schema.Metadata.ToolName
	if title == "" {
		title = "CLI schema"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if schema.Metadata.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", schema.Metadata.Description)
	}
	if schema.Metadata.Version != "" {
		fmt.Fprintf(&sb, "Target version: %s\n\n", schema.Metadata.Version)
	}

	renderScope(&sb, "Arguments", schema.Arguments, schema.Positionals, schema.Rules)

	for _, sub := range schema.Subcommands {
		fmt.Fprintf(&sb, "## Subcommand `%s`\n\n", sub.Name)
		if len(sub.Aliases) > 0 {
			fmt.Fprintf(&sb, "Aliases: %s\n\n", strings.Join(sub.Aliases, ", "))
		}
		renderScope(&sb, fmt.Sprintf("Arguments of `%s`", sub.Name), sub.Arguments, sub.Positionals, sub.Rules)
	}

	return sb.String()
}

// RenderHTML converts the Markdown report to HTML.
func RenderHTML(schema *models.Schema) ([]byte, error) {
	var buf bytes.Buffer
	md := RenderMarkdown(schema)
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return nil, fmt.Errorf("convert schema docs to HTML: %w", err)
	}
	return buf.Bytes(), nil
}

func renderScope(sb *strings.Builder, heading string, args []*models.Argument,
	positionals []*models.Positional, rules []*models.Rule) {

	if len(args) > 0 {
		fmt.Fprintf(sb, "### %s\n\n", heading)
		sb.WriteString("| Name | Flags | Kind | Required | Notes |\n")
		sb.WriteString("|------|-------|------|----------|-------|\n")
		for _, arg := range args {
			fmt.Fprintf(sb, "| %s | `%s` | %s | %s | %s |\n",
				arg.Name,
				strings.Join(arg.Flags, "`, `"),
				arg.Value.Kind,
				yesNo(arg.Required),
				argNotes(arg))
		}
		sb.WriteString("\n")
	}

	if len(positionals) > 0 {
		sb.WriteString("### Positionals\n\n")
		sb.WriteString("| Position | Name | Kind | Required |\n")
		sb.WriteString("|----------|------|------|----------|\n")
		for _, pos := range positionals {
			fmt.Fprintf(sb, "| %d | %s | %s | %s |\n",
				pos.Position, pos.Name, pos.Value.Kind, yesNo(pos.Required))
		}
		sb.WriteString("\n")
	}

	if len(rules) > 0 {
		sb.WriteString("### Rules\n\n")
		for _, rule := range rules {
			fmt.Fprintf(sb, "- **%s**: %s", rule.Kind, strings.Join(rule.Arguments, ", "))
			if rule.Description != "" {
				fmt.Fprintf(sb, ": %s", rule.Description)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
}

func argNotes(arg *models.Argument) string {
	var notes []string
	switch arg.Value.Kind {
	case models.KindInteger, models.KindIntegerOptional, models.KindFloat:
		notes = append(notes, fmt.Sprintf("range [%v, %v]", arg.Value.Min, arg.Value.Max))
	case models.KindEnum:
		notes = append(notes, fmt.Sprintf("one of %s", strings.Join(arg.Value.Values, "/")))
	case models.KindCustom:
		notes = append(notes, fmt.Sprintf("generator %s", arg.Value.Generator))
	}
	if arg.Group != "" {
		notes = append(notes, fmt.Sprintf("group %s", arg.Group))
	}
	if len(arg.DependsOn) > 0 {
		notes = append(notes, fmt.Sprintf("depends on %s", strings.Join(arg.DependsOn, ", ")))
	}
	if arg.Repeat != nil {
		notes = append(notes, fmt.Sprintf("repeats %d-%d", arg.Repeat.MinOccurs, arg.Repeat.MaxOccurs))
	}
	return strings.Join(notes, "; ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
