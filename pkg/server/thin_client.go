package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	clientdist "github.com/edom-dev/edom/client/dist"
)

// ClientPath is where the browser client is served.
const ClientPath = "/_edom/client.js"

// The client is embedded, so its hash is a stable strong validator.
var clientETag = func() string {
	sum := sha256.Sum256(clientdist.EdomJS)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}()

// serveClient answers GET and HEAD for the client script. Conditional
// requests and HEAD are handled by http.ServeContent against the ETag.
func (s *Server) serveClient(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("ETag", clientETag)
	h.Set("Content-Type", "text/javascript; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	if s.config.DevMode {
		h.Set("Cache-Control", "no-store")
	} else {
		h.Set("Cache-Control", "no-cache")
	}
	http.ServeContent(w, r, "client.js", time.Time{}, bytes.NewReader(clientdist.EdomJS))
}
