package rows

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/edom-dev/edom/internal/errors"
	"github.com/edom-dev/edom/pkg/edom"
	"github.com/edom-dev/edom/pkg/host/memdom"
)

func ids(rows []Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestAppOperations(t *testing.T) {
	app := New(WithCount(10), WithSeed(1))

	app.Run(10)
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, ids(app.Rows()))

	app.Add(10)
	require.Len(t, app.Rows(), 20)
	assert.Equal(t, 20, app.Rows()[19].ID)

	app.UpdateEvery(10)
	for i, r := range app.Rows() {
		assert.Equal(t, i%10 == 0, strings.HasSuffix(r.Label, " !!!"), "row %d label %q", i, r.Label)
	}

	app.SwapRows()
	assert.Equal(t, 19, app.Rows()[1].ID)
	assert.Equal(t, 2, app.Rows()[18].ID)

	app.Select(5)
	assert.Equal(t, 5, app.Selected())
	app.Remove(5)
	assert.Equal(t, 0, app.Selected())
	assert.Len(t, app.Rows(), 19)
	assert.NotContains(t, ids(app.Rows()), 5)

	app.Remove(999)
	assert.Len(t, app.Rows(), 19, "removing an unknown id is a no-op")

	app.Run(3)
	assert.Equal(t, []int{21, 22, 23}, ids(app.Rows()), "ids keep growing across runs")
	app.SwapRows()
	assert.Equal(t, []int{21, 22, 23}, ids(app.Rows()), "small tables are not swapped")

	app.Clear()
	assert.Empty(t, app.Rows())
}

func TestSeedIsDeterministic(t *testing.T) {
	a, b := New(WithSeed(42)), New(WithSeed(42))
	a.Run(50)
	b.Run(50)
	require.Equal(t, a.Rows(), b.Rows())

	for _, r := range a.Rows() {
		require.Len(t, strings.Fields(r.Label), 3, "label %q", r.Label)
	}
}

type mounted struct {
	app  *App
	eng  *edom.Engine
	doc  *memdom.Document
	root *memdom.Element
}

func mount(t *testing.T, count int) *mounted {
	t.Helper()
	doc := memdom.NewDocument()
	root := doc.NewElement("div")
	app := New(WithCount(count), WithSeed(3))
	eng, err := edom.Mount(memdom.NewBackend(doc), root, app.Render)
	require.NoError(t, err)
	return &mounted{app: app, eng: eng, doc: doc, root: root}
}

func (m *mounted) button(t *testing.T, id string) {
	t.Helper()
	el := m.root.Find(memdom.ByAttr("id", id))
	require.NotNil(t, el, "button %s", id)
	require.NoError(t, el.Click())
}

func (m *mounted) trs() []*memdom.Element {
	return m.root.Find(memdom.ByTag("tbody")).Children()
}

func TestRenderButtons(t *testing.T) {
	m := mount(t, 5)
	assert.Empty(t, m.trs())

	labels := m.root.FindAll(memdom.ByTag("button"))
	require.Len(t, labels, 6)
	assert.Equal(t, "Create 5 rows", labels[0].TextContent())
	assert.Equal(t, "Create 50 rows", labels[1].TextContent())

	m.button(t, "run")
	require.Len(t, m.trs(), 5)
	first := m.trs()[0]
	assert.Equal(t, "1", first.Children()[0].TextContent())
	assert.Equal(t, m.app.Rows()[0].Label, first.Children()[1].TextContent())

	m.button(t, "add")
	require.Len(t, m.trs(), 10)

	m.button(t, "update")
	assert.True(t, strings.HasSuffix(m.trs()[0].Children()[1].TextContent(), " !!!"))
	assert.False(t, strings.HasSuffix(m.trs()[1].Children()[1].TextContent(), " !!!"))

	m.doc.ResetCounts()
	m.button(t, "swaprows")
	assert.Equal(t, "9", m.trs()[1].Children()[0].TextContent())
	assert.Equal(t, "2", m.trs()[8].Children()[0].TextContent())
	assert.Equal(t, 2, m.doc.Count(memdom.OpInsertAfter))
	assert.Equal(t, 2, m.doc.Mutations())

	m.button(t, "runlots")
	assert.Len(t, m.trs(), 50)

	m.button(t, "clear")
	assert.Empty(t, m.trs())
}

func TestRowLinks(t *testing.T) {
	m := mount(t, 4)
	m.button(t, "run")

	require.NoError(t, rowLink(m.root, 2, false).Click())
	assert.Equal(t, 3, m.app.Selected())
	assert.Equal(t, "danger", m.trs()[2].Attribute("class"))
	assert.Equal(t, "", m.trs()[0].Attribute("class"))

	require.NoError(t, rowLink(m.root, 0, false).Click())
	assert.Equal(t, "danger", m.trs()[0].Attribute("class"))
	assert.Equal(t, "", m.trs()[2].Attribute("class"))

	m.doc.ResetCounts()
	require.NoError(t, rowLink(m.root, 0, true).Click())
	assert.Equal(t, []int{2, 3, 4}, ids(m.app.Rows()))
	assert.Equal(t, 0, m.app.Selected())
	require.Len(t, m.trs(), 3)
	assert.Equal(t, 1, m.doc.Count(memdom.OpRemoveChild))

	for _, tr := range m.trs() {
		assert.Equal(t, "", tr.Attribute("class"))
	}
}

func TestScenarioFiles(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			sc, err := LoadScenario(file)
			require.NoError(t, err)

			report, err := sc.Run(context.Background())
			require.NoError(t, err)
			require.Len(t, report.Steps, len(sc.Steps))
			assert.Positive(t, report.Stats.Passes)

			var buf bytes.Buffer
			require.NoError(t, report.Write(&buf))
			assert.Contains(t, buf.String(), sc.Name)
		})
	}
}

func TestScenarioBackendsAgree(t *testing.T) {
	src := `
count: 30
seed: 9
steps:
  - op: run
  - op: swaprows
  - op: remove
    row: 4
  - op: select
    row: 1
  - op: update
`
	var results [][]Result
	for _, backend := range []string{BackendMemdom, BackendNoop, BackendRemote} {
		sc, err := ParseScenario([]byte(src))
		require.NoError(t, err)
		sc.Backend = backend

		report, err := sc.Run(context.Background())
		require.NoError(t, err, backend)
		results = append(results, report.Steps)
	}

	for i := range results[0] {
		assert.Equal(t, results[0][i].Rows, results[1][i].Rows, "step %d rows memdom/noop", i)
		assert.Equal(t, results[0][i].Rows, results[2][i].Rows, "step %d rows memdom/remote", i)
		assert.Equal(t, results[0][i].Mutations, results[2][i].Mutations, "step %d mutations memdom/remote", i)
		assert.Equal(t, results[2][i].Mutations, results[2][i].Ops, "remote sends one op per mutation")
		assert.Zero(t, results[1][i].Mutations, "noop counts nothing")
	}
	assert.Positive(t, results[2][0].Bytes)
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"invalid yaml", "steps: [", "E161"},
		{"unknown field", "steps:\n  - op: run\n    rows: 3\n", "E161"},
		{"no steps", "name: x\n", "E162"},
		{"unknown op", "steps:\n  - op: jump\n", "E162"},
		{"bad backend", "backend: gpu\nsteps:\n  - op: run\n", "E162"},
		{"click without target", "steps:\n  - op: click\n", "E162"},
		{"negative repeat", "steps:\n  - op: run\n    repeat: -1\n", "E162"},
		{"negative count", "count: -3\nsteps:\n  - op: run\n", "E162"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			require.Error(t, err)
			assert.Equal(t, tt.code, errs.Code(err), "%v", err)
		})
	}

	_, err := LoadScenario(filepath.Join("testdata", "missing.yaml"))
	assert.Equal(t, "E160", errs.Code(err))
}

func TestScenarioFailures(t *testing.T) {
	t.Run("expectation", func(t *testing.T) {
		sc, err := ParseScenario([]byte("count: 5\nsteps:\n  - op: run\n    expect: {rows: 6}\n"))
		require.NoError(t, err)
		report, err := sc.Run(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrExpectation))
		assert.Contains(t, err.Error(), "step 1 (run)")
		require.Len(t, report.Steps, 1, "the failing step is still reported")
	})

	t.Run("row out of range", func(t *testing.T) {
		sc, err := ParseScenario([]byte("count: 5\nsteps:\n  - op: run\n  - op: remove\n    row: 5\n"))
		require.NoError(t, err)
		_, err = sc.Run(context.Background())
		require.ErrorContains(t, err, "out of range")
	})

	t.Run("click on noop", func(t *testing.T) {
		sc, err := ParseScenario([]byte("backend: noop\nsteps:\n  - op: click\n    target: run\n"))
		require.NoError(t, err)
		_, err = sc.Run(context.Background())
		require.ErrorContains(t, err, "no events")
	})

	t.Run("canceled", func(t *testing.T) {
		sc, err := ParseScenario([]byte("steps:\n  - op: run\n"))
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = sc.Run(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}
