// Package directive decodes the flow engine's loosely-typed callback text
// into the typed Directive model. The flow engine speaks a text protocol: a
// reply is either plain prose or a YAML mapping describing a structured
// message. Parse is total over all string inputs; a decode failure is never
// an error, it downgrades to plain text.
package directive

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"flowbridge/internal/domain"
)

// Parse decodes flow engine callback text into a directive.
//
// Decoding outcomes:
//   - YAML mapping with a recognized type → the matching directive
//   - YAML mapping with an unrecognized or missing type → Unknown (dropped)
//   - anything that is not a mapping (prose, scalars, broken YAML) → Text
//     carrying the original string verbatim
//   - a recognized mapping with a malformed structure (e.g. an interactive
//     list without usable sections) → Text fallback, same as prose
func Parse(text string) domain.Directive {
	var decoded map[string]any
	if err := yaml.Unmarshal([]byte(text), &decoded); err != nil || decoded == nil {
		return domain.Directive{Kind: domain.DirectiveText, Body: text}
	}

	switch stringField(decoded, "type") {
	case "interactive":
		d, ok := parseInteractive(decoded)
		if !ok {
			return domain.Directive{Kind: domain.DirectiveText, Body: text}
		}
		return d
	case "location":
		return domain.Directive{
			Kind: domain.DirectiveLocationRequest,
			Body: stringField(decoded, "body"),
		}
	case "image":
		return domain.Directive{Kind: domain.DirectiveImage, Body: stringField(decoded, "body")}
	case "catalog":
		return domain.Directive{Kind: domain.DirectiveCatalog, Body: stringField(decoded, "body")}
	default:
		return domain.Directive{Kind: domain.DirectiveUnknown}
	}
}

func parseInteractive(m map[string]any) (domain.Directive, bool) {
	d := domain.Directive{
		Kind:        domain.DirectiveInteractiveList,
		Header:      stringField(m, "header"),
		Body:        stringField(m, "body"),
		Footer:      stringField(m, "footer"),
		ButtonLabel: stringField(m, "button"),
	}

	rawSections, ok := m["sections"].([]any)
	if !ok {
		return domain.Directive{}, false
	}

	for _, rawSection := range rawSections {
		sm, ok := rawSection.(map[string]any)
		if !ok {
			continue
		}
		section := domain.Section{Title: stringField(sm, "title")}

		rawRows, _ := sm["rows"].([]any)
		for _, rawRow := range rawRows {
			rm, ok := rawRow.(map[string]any)
			if !ok {
				continue
			}
			section.Rows = append(section.Rows, domain.Row{
				ID:          stringField(rm, "id"),
				Title:       stringField(rm, "title"),
				Description: stringField(rm, "description"),
			})
		}
		d.Sections = append(d.Sections, section)
	}

	// A list with no sections cannot be rendered by the channel.
	if len(d.Sections) == 0 {
		return domain.Directive{}, false
	}
	return d, true
}

// stringField reads a scalar field as a string. YAML nulls and absent keys
// become the empty string; non-string scalars (row ids written as bare
// numbers) are formatted rather than dropped.
func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	switch v.(type) {
	case int, int64, uint64, float64, bool:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}
