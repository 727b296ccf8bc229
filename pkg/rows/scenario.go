package rows

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	errs "github.com/edom-dev/edom/internal/errors"
	"github.com/edom-dev/edom/pkg/edom"
	"github.com/edom-dev/edom/pkg/host"
	"github.com/edom-dev/edom/pkg/host/memdom"
	"github.com/edom-dev/edom/pkg/host/noop"
	"github.com/edom-dev/edom/pkg/protocol"
	"github.com/edom-dev/edom/pkg/remote"
)

// Backends a scenario can run on.
const (
	BackendMemdom = "memdom"
	BackendNoop   = "noop"
	BackendRemote = "remote"
)

// ErrExpectation is returned when a step's expect block does not hold.
var ErrExpectation = errors.New("rows: expectation failed")

// Scenario is a scripted sequence of table operations.
//
//	name: swap
//	backend: memdom
//	count: 1000
//	steps:
//	  - op: run
//	  - op: swaprows
//	    repeat: 20
//	    expect: {rows: 1000, max_mutations: 40}
type Scenario struct {
	Name    string `yaml:"name"`
	Backend string `yaml:"backend"`
	Count   int    `yaml:"count"`
	Seed    uint64 `yaml:"seed"`

	ListCloning  *bool `yaml:"list_cloning"`
	PartialClone bool  `yaml:"partial_clone"`

	Steps []Step `yaml:"steps"`
}

// Step is one operation, repeated Repeat times.
//
// run, runlots, add, update, clear and swaprows change the app and run an
// update pass. click fires a click on the button with id Target. select
// and remove click the label or remove link of the row at index Row; on
// the noop backend, which has no events, they call the app directly.
type Step struct {
	Op     string  `yaml:"op"`
	Target string  `yaml:"target,omitempty"`
	Row    int     `yaml:"row,omitempty"`
	Repeat int     `yaml:"repeat,omitempty"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect holds assertions checked after a step.
type Expect struct {
	Rows         *int    `yaml:"rows"`
	Selected     *int    `yaml:"selected"`
	MaxMutations *int    `yaml:"max_mutations"`
	Mutations    *int    `yaml:"mutations"`
	FirstLabel   *string `yaml:"first_label"`
}

var ops = map[string]bool{
	"run": true, "runlots": true, "add": true, "update": true, "clear": true,
	"swaprows": true, "click": true, "select": true, "remove": true,
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New("E160").WithDetail(path).Wrap(err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, errs.New("E161").WithDetail(err.Error())
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) normalize() error {
	if s.Name == "" {
		s.Name = "scenario"
	}
	if s.Backend == "" {
		s.Backend = BackendMemdom
	}
	switch s.Backend {
	case BackendMemdom, BackendNoop, BackendRemote:
	default:
		return errs.New("E162").WithDetailf("backend must be memdom, noop or remote, got %q", s.Backend)
	}
	if s.Count == 0 {
		s.Count = 1000
	}
	if s.Count < 0 {
		return errs.New("E162").WithDetailf("count must be positive, got %d", s.Count)
	}
	if len(s.Steps) == 0 {
		return errs.New("E162").WithDetail("scenario has no steps")
	}
	for i := range s.Steps {
		st := &s.Steps[i]
		if !ops[st.Op] {
			return errs.New("E162").WithDetailf("step %d: unknown op %q", i+1, st.Op)
		}
		if st.Op == "click" && st.Target == "" {
			return errs.New("E162").WithDetailf("step %d: click needs a target", i+1)
		}
		if st.Row < 0 {
			return errs.New("E162").WithDetailf("step %d: negative row", i+1)
		}
		if st.Repeat == 0 {
			st.Repeat = 1
		}
		if st.Repeat < 0 {
			return errs.New("E162").WithDetailf("step %d: negative repeat", i+1)
		}
	}
	return nil
}

// Result is the measurement of one step, summed over its repeats.
type Result struct {
	Op        string
	Repeat    int
	Duration  time.Duration
	Mutations int
	Ops       int
	Bytes     int
	Rows      int
}

// Report is the outcome of a scenario run.
type Report struct {
	Name    string
	Backend string
	Steps   []Result
	Total   time.Duration
	Stats   edom.Stats
}

// Write prints the report as a table.
func (r *Report) Write(w io.Writer) error {
	fmt.Fprintf(w, "%s (%s)\n", r.Name, r.Backend)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "step\top\trepeat\ttime\tper op\tmutations\tops\tbytes\trows\t")
	for i, s := range r.Steps {
		per := time.Duration(0)
		if s.Repeat > 0 {
			per = s.Duration / time.Duration(s.Repeat)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%d\t%d\t%d\t%d\t\n",
			i+1, s.Op, s.Repeat, s.Duration.Round(time.Microsecond), per.Round(time.Microsecond),
			s.Mutations, s.Ops, s.Bytes, s.Rows)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "total %s, %d passes, %d created, %d cloned, %d attached\n",
		r.Total.Round(time.Microsecond), r.Stats.Passes, r.Stats.Created, r.Stats.Cloned, r.Stats.Attached)
	return err
}

// driver hides the differences between backends.
type driver interface {
	backend() host.Backend
	root() host.Element
	// tree returns the host tree, or nil when the backend keeps none.
	tree() *memdom.Element
	click(el *memdom.Element) error
	reset()
	collect(r *Result)
}

type memdomDriver struct {
	doc *memdom.Document
	el  *memdom.Element
}

func newMemdomDriver() *memdomDriver {
	doc := memdom.NewDocument()
	return &memdomDriver{doc: doc, el: doc.NewElement("div")}
}

func (d *memdomDriver) backend() host.Backend          { return memdom.NewBackend(d.doc) }
func (d *memdomDriver) root() host.Element             { return d.el }
func (d *memdomDriver) tree() *memdom.Element          { return d.el }
func (d *memdomDriver) click(el *memdom.Element) error { return el.Click() }
func (d *memdomDriver) reset()                         { d.doc.ResetCounts() }
func (d *memdomDriver) collect(r *Result)              { r.Mutations += d.doc.Mutations() }

type noopDriver struct{ el *noop.Element }

func (d *noopDriver) backend() host.Backend       { return noop.Backend{} }
func (d *noopDriver) root() host.Element          { return d.el }
func (d *noopDriver) tree() *memdom.Element       { return nil }
func (d *noopDriver) click(*memdom.Element) error { return nil }
func (d *noopDriver) reset()                      {}
func (d *noopDriver) collect(*Result)             {}

// remoteDriver delivers clicks as protocol events and counts the encoded
// ops frames, the way a server session would.
type remoteDriver struct {
	b  *remote.Backend
	el *memdom.Element
}

func newRemoteDriver() *remoteDriver {
	b := remote.NewBackend()
	return &remoteDriver{b: b, el: b.Document().NewElement("div")}
}

func (d *remoteDriver) backend() host.Backend { return d.b }
func (d *remoteDriver) root() host.Element    { return d.el }
func (d *remoteDriver) tree() *memdom.Element { return d.el }

func (d *remoteDriver) click(el *memdom.Element) error {
	uid, err := strconv.ParseUint(el.Attribute("data-uid"), 10, 64)
	if err != nil {
		return fmt.Errorf("rows: element %s has no listener", el)
	}
	return d.b.HandleEvent(&protocol.Event{UID: uid, Name: "click"})
}

func (d *remoteDriver) reset() {
	d.b.Flush()
	d.b.Document().ResetCounts()
}

func (d *remoteDriver) collect(r *Result) {
	r.Mutations += d.b.Document().Mutations()
	if of := d.b.Flush(); of != nil {
		r.Ops += len(of.Ops)
		r.Bytes += len(protocol.EncodeOps(of))
	}
}

func (s *Scenario) driver() driver {
	switch s.Backend {
	case BackendNoop:
		return &noopDriver{el: noop.NewElement()}
	case BackendRemote:
		return newRemoteDriver()
	}
	return newMemdomDriver()
}

func (s *Scenario) engineOptions() []edom.Option {
	var opts []edom.Option
	if s.ListCloning != nil {
		opts = append(opts, edom.WithListCloning(*s.ListCloning))
	}
	if s.PartialClone {
		opts = append(opts, edom.WithPartialClone(true))
	}
	return opts
}

// Run mounts a fresh app and executes every step. It stops at the first
// failing step or when ctx is done.
func (s *Scenario) Run(ctx context.Context, opts ...edom.Option) (*Report, error) {
	if err := s.normalize(); err != nil {
		return nil, err
	}
	appOpts := []Option{WithCount(s.Count)}
	if s.Seed != 0 {
		appOpts = append(appOpts, WithSeed(s.Seed))
	}
	app := New(appOpts...)
	d := s.driver()

	eng, err := edom.Mount(d.backend(), d.root(), app.Render, append(s.engineOptions(), opts...)...)
	if err != nil {
		return nil, err
	}

	report := &Report{Name: s.Name, Backend: s.Backend}
	start := time.Now()
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := Result{Op: st.Op, Repeat: st.Repeat}
		d.reset()
		t0 := time.Now()
		for n := 0; n < st.Repeat; n++ {
			if err := s.apply(app, eng, d, st); err != nil {
				return report, fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
			}
		}
		res.Duration = time.Since(t0)
		d.collect(&res)
		res.Rows = len(app.Rows())
		report.Steps = append(report.Steps, res)

		if err := st.Expect.check(app, res); err != nil {
			return report, fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}
	}
	report.Total = time.Since(start)
	report.Stats = eng.Stats()
	return report, nil
}

func (s *Scenario) apply(app *App, eng *edom.Engine, d driver, st Step) error {
	switch st.Op {
	case "run":
		app.Run(app.Count())
	case "runlots":
		app.Run(app.Count() * 10)
	case "add":
		app.Add(app.Count())
	case "update":
		app.UpdateEvery(10)
	case "clear":
		app.Clear()
	case "swaprows":
		app.SwapRows()
	case "click":
		tree := d.tree()
		if tree == nil {
			return fmt.Errorf("backend %s has no events", s.Backend)
		}
		el := tree.Find(memdom.ByAttr("id", st.Target))
		if el == nil {
			return fmt.Errorf("no element with id %q", st.Target)
		}
		return d.click(el)
	case "select", "remove":
		if st.Row >= len(app.Rows()) {
			return fmt.Errorf("row %d out of range (%d rows)", st.Row, len(app.Rows()))
		}
		tree := d.tree()
		if tree == nil {
			id := app.Rows()[st.Row].ID
			if st.Op == "select" {
				app.Select(id)
			} else {
				app.Remove(id)
			}
			return eng.Update()
		}
		return d.click(rowLink(tree, st.Row, st.Op == "remove"))
	}
	return eng.Update()
}

// rowLink finds the label link, or the remove link, of the row at index i.
func rowLink(tree *memdom.Element, i int, remove bool) *memdom.Element {
	tr := tree.Find(memdom.ByTag("tbody")).Children()[i]
	col := 1
	if remove {
		col = 2
	}
	return tr.Children()[col].Children()[0]
}

func (e *Expect) check(app *App, r Result) error {
	if e == nil {
		return nil
	}
	if e.Rows != nil && r.Rows != *e.Rows {
		return fmt.Errorf("%w: %d rows, want %d", ErrExpectation, r.Rows, *e.Rows)
	}
	if e.Selected != nil && app.Selected() != *e.Selected {
		return fmt.Errorf("%w: selected row %d, want %d", ErrExpectation, app.Selected(), *e.Selected)
	}
	if e.Mutations != nil && r.Mutations != *e.Mutations {
		return fmt.Errorf("%w: %d mutations, want %d", ErrExpectation, r.Mutations, *e.Mutations)
	}
	if e.MaxMutations != nil && r.Mutations > *e.MaxMutations {
		return fmt.Errorf("%w: %d mutations, want at most %d", ErrExpectation, r.Mutations, *e.MaxMutations)
	}
	if e.FirstLabel != nil {
		if len(app.Rows()) == 0 {
			return fmt.Errorf("%w: no rows, want first label %q", ErrExpectation, *e.FirstLabel)
		}
		if got := app.Rows()[0].Label; got != *e.FirstLabel {
			return fmt.Errorf("%w: first label %q, want %q", ErrExpectation, got, *e.FirstLabel)
		}
	}
	return nil
}
