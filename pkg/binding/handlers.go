package binding

import (
	"fmt"

	"github.com/vanderheijden86/listbind/pkg/debug"
	"github.com/vanderheijden86/listbind/pkg/obslist"
)

// Item returns the item shown in the row with handle h and the list that
// holds it.
func (b *Binding) Item(h obslist.Handle) (any, *obslist.List, error) {
	sub, i, err := b.list.FindByHandle(h)
	if err != nil {
		return nil, nil, err
	}
	return sub.At(i), sub, nil
}

// Expand loads the children of the row with handle h. The view receives
// them through LoadChildren.
func (b *Binding) Expand(h obslist.Handle) error {
	sub, i, err := b.list.FindByHandle(h)
	if err != nil {
		return err
	}
	return sub.LoadChildren(i)
}

// CellEdited stores an edited cell value into the row's item and refreshes
// the row. The item's loaded children are kept.
func (b *Binding) CellEdited(h obslist.Handle, col string, value any) error {
	item, sub, err := b.Item(h)
	if err != nil {
		return err
	}
	if err := b.Store(item, value, col); err != nil {
		return fmt.Errorf("edit column %q: %w", col, err)
	}
	return sub.ItemMutated(item)
}

// AddAfter inserts a new item from the factory right after the row with
// handle h, or at the top of the root list when h is nil. It returns the
// handle of the new row.
func (b *Binding) AddAfter(h obslist.Handle) (obslist.Handle, error) {
	sub, i := b.list, -1
	if h != nil {
		var err error
		if sub, i, err = b.list.FindByHandle(h); err != nil {
			return nil, err
		}
	}
	item, err := b.newItem()
	if err != nil {
		return nil, err
	}
	at, _ := sub.Insert(i+1, item)
	return sub.HandleAt(at), nil
}

// AddChild appends a new item from the factory to the children of the row
// with handle h, loading them first if needed. A nil h appends to the root
// list. It returns the handle of the new row.
func (b *Binding) AddChild(h obslist.Handle) (obslist.Handle, error) {
	target := b.list
	if h != nil {
		sub, i, err := b.list.FindByHandle(h)
		if err != nil {
			return nil, err
		}
		if target, err = sub.Children(i); err != nil {
			return nil, err
		}
		if target == nil {
			return nil, fmt.Errorf("row %v cannot have children", h)
		}
	}
	item, err := b.newItem()
	if err != nil {
		return nil, err
	}
	target.Append(item)
	return target.HandleAt(target.Len() - 1), nil
}

// RemoveRow removes the item shown in the row with handle h. A nil handle
// is ignored.
func (b *Binding) RemoveRow(h obslist.Handle) error {
	if h == nil {
		return nil
	}
	sub, i, err := b.list.FindByHandle(h)
	if err != nil {
		return err
	}
	return sub.Remove(i)
}

// MoveRow moves the root item at position from to position to. Only the
// root level can be reordered this way.
func (b *Binding) MoveRow(from, to int) error {
	if from == to {
		return nil
	}
	item, err := b.list.Pop(from)
	if err != nil {
		return err
	}
	b.list.Insert(to, item)
	debug.Log("binding: moved row %d -> %d", from, to)
	return nil
}

func (b *Binding) newItem() (any, error) {
	if b.factory == nil {
		return nil, ErrNoFactory
	}
	return b.factory()
}
