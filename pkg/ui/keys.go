package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	quit      key.Binding
	up        key.Binding
	down      key.Binding
	top       key.Binding
	bottom    key.Binding
	expand    key.Binding
	collapse  key.Binding
	mark      key.Binding
	nextCol   key.Binding
	prevCol   key.Binding
	sort      key.Binding
	restore   key.Binding
	edit      key.Binding
	addAfter  key.Binding
	addChild  key.Binding
	remove    key.Binding
	moveDown  key.Binding
	moveUp    key.Binding
	copyCell  key.Binding
	reload    key.Binding
	toggleAll key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		expand: key.NewBinding(
			key.WithKeys("enter", "right", "l"),
			key.WithHelp("→", "expand"),
		),
		collapse: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "collapse"),
		),
		mark: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "mark"),
		),
		nextCol: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next column"),
		),
		prevCol: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev column"),
		),
		sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s/1-9", "sort"),
		),
		restore: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restore sort"),
		),
		edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		addAfter: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		addChild: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "add child"),
		),
		remove: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "remove"),
		),
		moveDown: key.NewBinding(
			key.WithKeys("J"),
			key.WithHelp("J/K", "move"),
		),
		moveUp: key.NewBinding(
			key.WithKeys("K"),
		),
		copyCell: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy"),
		),
		reload: key.NewBinding(
			key.WithKeys("R", "ctrl+r", "f5"),
			key.WithHelp("R", "reload"),
		),
		toggleAll: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "collapse all"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.expand, k.mark, k.sort, k.edit, k.addAfter, k.remove, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.top, k.bottom, k.expand, k.collapse, k.toggleAll},
		{k.mark, k.nextCol, k.prevCol, k.sort, k.restore, k.copyCell},
		{k.edit, k.addAfter, k.addChild, k.remove, k.moveDown, k.reload, k.quit},
	}
}
