// Package todo is a TodoMVC application written against the edom cursor.
package todo

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/edom-dev/edom/pkg/edom"
)

// Filter selects which items the list shows.
type Filter int

const (
	All Filter = iota
	Active
	Completed
)

// Item is one todo.
type Item struct {
	ID        uuid.UUID
	Title     string
	Completed bool
}

// App holds the list and the editing state.
type App struct {
	items    []*Item
	filter   Filter
	newTitle string
	editing  uuid.UUID
	editText string
}

// New returns an app holding the given titles, all active.
func New(titles ...string) *App {
	a := &App{}
	for _, t := range titles {
		a.Add(t)
	}
	return a
}

// Items returns the items in order.
func (a *App) Items() []*Item { return a.items }

// Filter returns the active filter.
func (a *App) Filter() Filter { return a.filter }

// Add appends an active item. Blank titles are ignored.
func (a *App) Add(title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	a.items = append(a.items, &Item{ID: uuid.New(), Title: title})
}

// Remove deletes the item with the given id.
func (a *App) Remove(id uuid.UUID) {
	for i, it := range a.items {
		if it.ID == id {
			a.items = append(a.items[:i], a.items[i+1:]...)
			return
		}
	}
}

// ClearCompleted deletes every completed item.
func (a *App) ClearCompleted() {
	kept := a.items[:0]
	for _, it := range a.items {
		if !it.Completed {
			kept = append(kept, it)
		}
	}
	clear(a.items[len(kept):])
	a.items = kept
}

// Active returns the number of items not completed.
func (a *App) Active() int {
	n := 0
	for _, it := range a.items {
		if !it.Completed {
			n++
		}
	}
	return n
}

func (a *App) visible() []*Item {
	if a.filter == All {
		return a.items
	}
	out := make([]*Item, 0, len(a.items))
	for _, it := range a.items {
		if it.Completed == (a.filter == Completed) {
			out = append(out, it)
		}
	}
	return out
}

func itemKey(it **Item) uuid.UUID { return (*it).ID }

// Render describes the page.
func (a *App) Render(c *edom.Cursor) {
	app := c.Element("section").Class("todoapp")

	header := app.Header().Class("header")
	header.H1().Text("todos")
	form := header.Form()
	form.TextInput(&a.newTitle).Class("new-todo").Placeholder("What needs to be done?").Autofocus(true)
	if form.Submitted() {
		a.Add(a.newTitle)
		a.newTitle = ""
	}

	app.RenderIf(len(a.items) > 0, "section", a.renderMain)
}

func (a *App) renderMain(main *edom.Cursor) {
	main.Class("main")

	allDone := a.Active() == 0
	toggle := allDone
	main.Checkbox(&toggle).ID("toggle-all").Class("toggle-all")
	if toggle != allDone {
		for _, it := range a.items {
			it.Completed = toggle
		}
	}
	main.Label("toggle-all", "Mark all as complete")

	var remove uuid.UUID
	edom.ForEach(main.Ul().Class("todo-list"), a.visible(), itemKey, "li", func(p **Item, li *edom.Cursor) {
		it := *p
		li.Classes(
			edom.ClassName{Name: "completed", Enabled: it.Completed},
			edom.ClassName{Name: "editing", Enabled: a.editing == it.ID},
		)

		view := li.Div().Class("view")
		view.Checkbox(&it.Completed).Class("toggle")
		if view.Label("", it.Title).DoubleClicked() {
			a.editing = it.ID
			a.editText = it.Title
		}
		if view.Button("").Class("destroy").Clicked() {
			remove = it.ID
		}

		li.RenderIf(a.editing == it.ID, "form", func(f *edom.Cursor) {
			f.TextInput(&a.editText).Class("edit").Autofocus(true)
			if f.Button("Cancel").Class("cancel").Clicked() {
				a.editing = uuid.Nil
			}
			if f.Submitted() {
				if title := strings.TrimSpace(a.editText); title == "" {
					remove = it.ID
				} else {
					it.Title = title
				}
				a.editing = uuid.Nil
			}
		})
	})
	if remove != uuid.Nil {
		a.Remove(remove)
	}

	a.renderFooter(main.Footer().Class("footer"))
}

func (a *App) renderFooter(footer *edom.Cursor) {
	active := a.Active()
	count := footer.Span().Class("todo-count")
	count.Strong().Text(strconv.Itoa(active))
	if active == 1 {
		count.Text(" item left")
	} else {
		count.Text(" items left")
	}

	filters := footer.Ul().Class("filters")
	link := func(f Filter, href, text string) {
		class := ""
		if a.filter == f {
			class = "selected"
		}
		if filters.Li().A(href, text).Class(class).Clicked() {
			a.filter = f
		}
	}
	link(All, "#/", "All")
	link(Active, "#/active", "Active")
	link(Completed, "#/completed", "Completed")

	footer.RenderIf(active < len(a.items), "span", func(c *edom.Cursor) {
		if c.Button("Clear completed").Class("clear-completed").Clicked() {
			a.ClearCompleted()
		}
	})
}
