// Package rows is the keyed-rows benchmark application: a table of labelled
// rows with the operations of the js-framework-benchmark suite, and a
// scenario runner that drives it through an engine and measures each step.
package rows

import (
	"math/rand/v2"
	"strconv"

	"github.com/edom-dev/edom/pkg/edom"
)

var (
	adjectives = []string{"pretty", "large", "big", "small", "tall", "short", "long", "handsome", "plain", "quaint", "clean", "elegant", "easy", "angry", "crazy", "helpful", "mushy", "odd", "unsightly", "adorable", "important", "inexpensive", "cheap", "expensive", "fancy"}
	colours    = []string{"red", "yellow", "blue", "green", "pink", "brown", "purple", "brown", "white", "black", "orange"}
	nouns      = []string{"table", "chair", "house", "bbq", "desk", "car", "pony", "cookie", "sandwich", "burger", "pizza", "mouse", "keyboard"}
)

// Row is one line of the table.
type Row struct {
	ID    int
	Label string
}

// App holds the table state. Its methods are the benchmark operations;
// Render describes the page and applies the operation of a clicked button.
type App struct {
	rows     []Row
	nextID   int
	selected int
	count    int
	rng      *rand.Rand
}

// Option configures an App.
type Option func(*App)

// WithCount sets how many rows the create buttons build.
func WithCount(n int) Option {
	return func(a *App) { a.count = n }
}

// WithSeed makes labels reproducible across apps.
func WithSeed(seed uint64) Option {
	return func(a *App) { a.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// New returns an empty table.
func New(opts ...Option) *App {
	a := &App{nextID: 1, count: 1000}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return a
}

// Rows returns the current rows. The slice is shared with the app.
func (a *App) Rows() []Row { return a.rows }

// Selected returns the id of the highlighted row, or 0.
func (a *App) Selected() int { return a.selected }

// Count returns how many rows the create buttons build.
func (a *App) Count() int { return a.count }

func (a *App) build(n int) []Row {
	out := make([]Row, n)
	for i := range out {
		out[i] = Row{
			ID: a.nextID,
			Label: adjectives[a.rng.IntN(len(adjectives))] + " " +
				colours[a.rng.IntN(len(colours))] + " " +
				nouns[a.rng.IntN(len(nouns))],
		}
		a.nextID++
	}
	return out
}

// Run replaces every row with n new ones.
func (a *App) Run(n int) {
	a.rows = a.build(n)
	a.selected = 0
}

// Add appends n new rows.
func (a *App) Add(n int) {
	a.rows = append(a.rows, a.build(n)...)
}

// UpdateEvery appends " !!!" to the label of every step-th row.
func (a *App) UpdateEvery(step int) {
	if step <= 0 {
		return
	}
	for i := 0; i < len(a.rows); i += step {
		a.rows[i].Label += " !!!"
	}
}

// Clear removes every row.
func (a *App) Clear() {
	a.rows = nil
	a.selected = 0
}

// SwapRows exchanges the second and the second-to-last row (rows 1 and
// 998 of a 1000 row table). Tables with fewer than four rows are left
// alone.
func (a *App) SwapRows() {
	n := len(a.rows)
	if n < 4 {
		return
	}
	a.rows[1], a.rows[n-2] = a.rows[n-2], a.rows[1]
}

// Select highlights the row with the given id.
func (a *App) Select(id int) {
	a.selected = id
}

// Remove deletes the row with the given id.
func (a *App) Remove(id int) {
	for i := range a.rows {
		if a.rows[i].ID == id {
			a.rows = append(a.rows[:i], a.rows[i+1:]...)
			if a.selected == id {
				a.selected = 0
			}
			return
		}
	}
}

func rowKey(r *Row) int { return r.ID }

// Render describes the page.
func (a *App) Render(c *edom.Cursor) {
	page := c.Div().Class("container")
	a.renderControls(page.Div().Class("jumbotron").Div().Class("row"))

	remove := 0
	tbody := page.Element("table").Class("table table-hover table-striped test-data").Element("tbody")
	edom.ForEach(tbody, a.rows, rowKey, "tr", func(r *Row, c *edom.Cursor) {
		if r.ID == a.selected {
			c.Class("danger")
		} else {
			c.Class("")
		}
		c.Element("td").Class("col-md-1").Text(strconv.Itoa(r.ID))
		if c.Element("td").Class("col-md-4").A("#", r.Label).Clicked() {
			a.Select(r.ID)
		}
		rm := c.Element("td").Class("col-md-1").Element("a").Class("remove")
		rm.Span().Class("glyphicon glyphicon-remove").Attr("aria-hidden", "true")
		if rm.Clicked() {
			remove = r.ID
		}
		c.Element("td").Class("col-md-6")
	})
	if remove != 0 {
		a.Remove(remove)
	}
}

func (a *App) renderControls(row *edom.Cursor) {
	row.Div().Class("col-md-6").H1().Text("edom keyed")

	buttons := row.Div().Class("col-md-6").Div().Class("row")
	button := func(id, text string) bool {
		return buttons.Div().Class("col-sm-6 smallpad").
			Button(text).ID(id).Class("btn btn-primary btn-block").Attr("type", "button").
			Clicked()
	}

	n := strconv.Itoa(a.count)
	if button("run", "Create "+n+" rows") {
		a.Run(a.count)
	}
	if button("runlots", "Create "+strconv.Itoa(a.count*10)+" rows") {
		a.Run(a.count * 10)
	}
	if button("add", "Append "+n+" rows") {
		a.Add(a.count)
	}
	if button("update", "Update every 10th row") {
		a.UpdateEvery(10)
	}
	if button("clear", "Clear") {
		a.Clear()
	}
	if button("swaprows", "Swap Rows") {
		a.SwapRows()
	}
}
