package binding

import (
	"fmt"
	"strings"
)

// Column declares one displayed column. The empty ID is the label column,
// which shows the item's own text.
type Column struct {
	ID       string
	Label    string
	Editable bool
}

// ParseColumns reads a comma separated column list such as
// "label_, points, done:Finished". A trailing "_" on the id marks the column
// editable and an optional ":Label" sets the heading. An entry with an empty
// id (":Task" or "_:Task") declares the label column.
func ParseColumns(list string) ([]Column, error) {
	var cols []Column
	seen := map[string]bool{}
	for _, raw := range strings.Split(list, ",") {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		id, label, hasLabel := strings.Cut(entry, ":")
		id, label = strings.TrimSpace(id), strings.TrimSpace(label)

		col := Column{}
		if strings.HasSuffix(id, "_") {
			col.Editable = true
			id = strings.TrimSuffix(id, "_")
		}
		col.ID = id
		switch {
		case hasLabel && label != "":
			col.Label = label
		case id == "":
			col.Label = "Name"
		default:
			col.Label = id
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, id)
		}
		seen[id] = true
		cols = append(cols, col)
	}
	return cols, nil
}

// FormatColumns renders cols back into the ParseColumns form.
func FormatColumns(cols []Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		s := c.ID
		if c.Editable {
			s += "_"
		}
		if c.Label != c.ID && !(c.ID == "" && c.Label == "Name") {
			s += ":" + c.Label
		}
		if s == "" {
			s = ":Name"
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}
