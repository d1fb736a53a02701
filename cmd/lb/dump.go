package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/vanderheijden86/listbind/internal/datasource"
	"github.com/vanderheijden86/listbind/pkg/binding"
	"github.com/vanderheijden86/listbind/pkg/obslist"
)

// dump writes the whole bound tree as an aligned table, loading every level.
func dump(w io.Writer, b *binding.Binding) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	cols := b.Columns()

	heads := make([]string, len(cols))
	for i, c := range cols {
		heads[i] = c.Label
		if heads[i] == "" {
			heads[i] = c.ID
		}
	}
	fmt.Fprintln(tw, strings.Join(heads, "\t"))

	var walk func(l *obslist.List, depth int) error
	walk = func(l *obslist.List, depth int) error {
		for i := 0; i < l.Len(); i++ {
			item := l.At(i)
			cells := make([]string, len(cols))
			for j, c := range cols {
				v, err := b.Retrieve(item, c.ID)
				if err != nil {
					return fmt.Errorf("row %d column %q: %w", i, c.ID, err)
				}
				cells[j] = cellText(v)
				if c.ID == "" {
					cells[j] = strings.Repeat("  ", depth) + cells[j]
				}
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))

			child, err := l.Children(i)
			if err != nil {
				return err
			}
			if child != nil {
				if err := walk(child, depth+1); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(b.List(), 0); err != nil {
		return err
	}
	return tw.Flush()
}

func cellText(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "yes"
		}
		return "no"
	}
	return fmt.Sprint(v)
}

// snapshot rebuilds the node tree from the list, so rows added, removed or
// moved in the view are reflected. Levels that were never loaded keep the
// children the node already had.
func snapshot(l *obslist.List) []*datasource.Node {
	out := make([]*datasource.Node, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		n, ok := l.At(i).(*datasource.Node)
		if !ok {
			continue
		}
		if child := l.ChildAt(i); child != nil {
			n.Children = snapshot(child)
		}
		out = append(out, n)
	}
	return out
}
