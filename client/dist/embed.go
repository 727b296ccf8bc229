package clientdist

import _ "embed"

// EdomJS is the browser client. It replays ops frames onto the page and
// reports listener firings as event frames.
//
// It is served by the framework at "/_edom/client.js".
//
//go:embed edom.js
var EdomJS []byte
