// Package vtest provides testing helpers for edom applications.
//
// A Harness mounts an application on an in-memory memdom document, drives
// it with clicks and input, and records every host operation the engine
// applies. Tests assert on the resulting markup, on mutation counts, or on
// the whole operation trace through golden files.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    count := 0
//	    h := vtest.Mount(t, func(c *edom.Cursor) {
//	        if c.Button("+1").Clicked() {
//	            count++
//	        }
//	        c.Span().Text(strconv.Itoa(count))
//	    })
//	    h.Click(h.Find(memdom.ByTag("button")))
//	    h.ExpectContains("<span>1</span>")
//	    h.ExpectStable()
//	}
//
// # Golden Traces
//
// Trace lines use the protocol.HostOp format. Mark separates steps:
//
//	h.Mark("click")
//	h.Click(btn)
//	h.AssertGolden(t, "counter")
//
// The trace is compared with testdata/golden/counter.golden. Run the
// tests with -update to rewrite fixtures after an intended change.
package vtest
