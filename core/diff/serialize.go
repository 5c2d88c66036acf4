package diff

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// elementJSON is the wire form of one diff element. Attrs maps attribute
// name to its [old, new] pair; map keys marshal sorted, so serialization is
// byte-deterministic and safe to snapshot across runs.
type elementJSON struct {
	Type     string           `json:"type"`
	ID       string           `json:"unique_id"`
	Action   Action           `json:"action"`
	Attrs    map[string][]any `json:"attrs,omitempty"`
	Children []elementJSON    `json:"children,omitempty"`
}

// documentJSON is the wire form of a whole diff.
type documentJSON struct {
	Source      string        `json:"source"`
	Destination string        `json:"destination"`
	Elements    []elementJSON `json:"elements"`
	Anomalies   []Anomaly     `json:"anomalies,omitempty"`
}

// MarshalJSON serializes the diff tree in the stable inspection/audit form:
// {type, unique_id, action, attrs: {name: [old, new]}, children: [...]}.
func (d *Diff) MarshalJSON() ([]byte, error) {
	doc := documentJSON{
		Source:      d.Source,
		Destination: d.Destination,
		Elements:    make([]elementJSON, 0, len(d.elements)),
		Anomalies:   d.anomalies,
	}
	for _, el := range d.elements {
		doc.Elements = append(doc.Elements, toJSON(el))
	}
	return json.Marshal(doc)
}

// Serialize returns the indented JSON form of the diff, suitable for review
// and golden-file comparison.
func (d *Diff) Serialize() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

func toJSON(el *Element) elementJSON {
	out := elementJSON{
		Type:   el.typeName,
		ID:     el.uid,
		Action: el.action,
	}
	if len(el.changes) > 0 {
		out.Attrs = make(map[string][]any, len(el.changes))
		for name, change := range el.changes {
			out.Attrs[name] = []any{change.Old, change.New}
		}
	}
	for _, child := range el.children {
		out.Children = append(out.Children, toJSON(child))
	}
	return out
}

// String renders a compact human-readable report of the non-skip portions
// of the tree, for CLI output.
func (d *Diff) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s -> %s\n", d.Source, d.Destination)
	for _, el := range d.elements {
		writeElement(&b, el, 1)
	}
	for _, anomaly := range d.anomalies {
		fmt.Fprintf(&b, "  ! %s %s: %s\n", anomaly.Type, anomaly.ID, anomaly.Message)
	}
	return b.String()
}

func writeElement(b *strings.Builder, el *Element, depth int) {
	if !el.HasChanges() {
		return
	}
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s %s %s\n", indent, el.action, el.typeName, el.uid)
	if el.action == ActionUpdate {
		names := make([]string, 0, len(el.changes))
		for name := range el.changes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			change := el.changes[name]
			fmt.Fprintf(b, "%s  %s: %v -> %v\n", indent, name, change.Old, change.New)
		}
	}
	for _, child := range el.children {
		writeElement(b, child, depth+1)
	}
}
