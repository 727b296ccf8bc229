// Package errors provides coded, structured errors for edom.
//
// Every error carries a code (e.g. "E100") that maps to a registered
// template with a category, a short message and a longer explanation.
//
// # Error Categories
//
//   - contract: the render function produced a differently shaped tree
//     between passes. These abort the engine.
//   - runtime: engine lifecycle errors (aborted engine, re-entrant dispatch).
//   - protocol: wire codec errors between the server and a remote host.
//   - config: edom.yaml loading and validation.
//   - storage: snapshot store failures.
//
// # Usage
//
//	err := errors.New("E101").
//	    WithDetail(`expected attribute "class", got "id"`).
//	    WithElement("div", 4)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: Attribute name mismatch
//	//
//	//   at <div uid=4>
//	//
//	//   expected attribute "class", got "id"
package errors
