package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/edom-dev/edom/pkg/edom"
	"github.com/edom-dev/edom/pkg/host/memdom"
	"github.com/edom-dev/edom/pkg/protocol"
	"github.com/edom-dev/edom/pkg/remote"
	"github.com/edom-dev/edom/pkg/snapshot"
)

type counter struct {
	count int
}

func (c *counter) render(cur *edom.Cursor) {
	cur.H1().Text(fmt.Sprintf("Count: %d", c.count))
	cur.Button("+").ID("inc").Click(func() { c.count++ })
}

func counterApp() func(*edom.Cursor) {
	return (&counter{}).render
}

func newTestServer(t *testing.T, app App, config *Config, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	if app == nil {
		app = counterApp
	}
	srv := New(app, config, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		ts.Close()
	})
	return srv, ts
}

var sessionRe = regexp.MustCompile(`session:"([^"]+)"`)

// loadPage fetches the page and returns the session id it was rendered for.
func loadPage(t *testing.T, ts *httptest.Server) (string, string) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d", resp.StatusCode)
	}
	m := sessionRe.FindSubmatch(body)
	if m == nil {
		t.Fatalf("no session id in page:\n%s", body)
	}
	return string(m[1]), string(body)
}

// wsClient is a test browser: it replays ops frames on a remote.Mirror and
// sends listener firings back as event frames.
type wsClient struct {
	t      *testing.T
	conn   *websocket.Conn
	mirror *remote.Mirror
	hello  *protocol.ServerHello
	wmu    sync.Mutex
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + SocketPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func handshake(t *testing.T, conn *websocket.Conn, hello *protocol.ClientHello) *protocol.ServerHello {
	t.Helper()
	f := protocol.NewFrame(protocol.FrameHandshake, protocol.EncodeClientHello(hello))
	if err := conn.WriteMessage(websocket.BinaryMessage, f.Encode()); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	reply := readFrame(t, conn)
	if reply.Type != protocol.FrameHandshake {
		t.Fatalf("reply type = %v, want Handshake", reply.Type)
	}
	sh, err := protocol.DecodeServerHello(reply.Payload)
	if err != nil {
		t.Fatalf("decode server hello: %v", err)
	}
	return sh
}

func readFrame(t *testing.T, conn *websocket.Conn) *protocol.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	f, err := protocol.DecodeFrame(msg)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return f
}

func connect(t *testing.T, ts *httptest.Server, sessionID string) *wsClient {
	t.Helper()
	c := &wsClient{t: t, conn: dial(t, ts)}
	c.mirror = remote.NewMirror(c.send)
	c.hello = handshake(t, c.conn, protocol.NewClientHello(sessionID))
	if c.hello.Status != protocol.HandshakeOK {
		t.Fatalf("handshake status = %v", c.hello.Status)
	}
	return c
}

func (c *wsClient) send(ev *protocol.Event) error {
	payload, err := protocol.EncodeEvent(ev)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, protocol.NewFrame(protocol.FrameEvent, payload).Encode())
}

// next returns the next frame that is not a heartbeat.
func (c *wsClient) next() *protocol.Frame {
	c.t.Helper()
	for {
		f := readFrame(c.t, c.conn)
		if f.Type == protocol.FrameControl {
			if ctl, err := protocol.DecodeControl(f.Payload); err == nil && ctl.Type == protocol.ControlPing {
				continue
			}
		}
		return f
	}
}

// sync applies the next ops frame and returns its flags.
func (c *wsClient) sync() protocol.FrameFlags {
	c.t.Helper()
	f := c.next()
	if f.Type != protocol.FrameOps {
		c.t.Fatalf("frame type = %v, want Ops", f.Type)
	}
	of, err := protocol.DecodeOps(f.Payload)
	if err != nil {
		c.t.Fatalf("decode ops: %v", err)
	}
	if err := c.mirror.Apply(of); err != nil {
		c.t.Fatalf("apply: %v", err)
	}
	return f.Flags
}

func (c *wsClient) root() *memdom.Element {
	return c.mirror.Element(c.hello.RootID)
}

func (c *wsClient) find(id string) *memdom.Element {
	c.t.Helper()
	el := c.root().Find(memdom.ByAttr("id", id))
	if el == nil {
		c.t.Fatalf("no element #%s on the client", id)
	}
	return el
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPageServesRenderedMarkup(t *testing.T) {
	srv, ts := newTestServer(t, nil, nil)
	id, body := loadPage(t, ts)

	if !strings.Contains(body, `<div id="edom-root"><div><h1>Count: 0</h1>`) {
		t.Errorf("page body missing rendered tree:\n%s", body)
	}
	if !strings.Contains(body, `src="`+ClientPath+`"`) {
		t.Errorf("page does not load the client script")
	}
	if srv.Sessions().Get(id) == nil {
		t.Errorf("session %s not registered", id)
	}
}

func TestClientScript(t *testing.T) {
	_, ts := newTestServer(t, nil, nil)

	resp, err := http.Get(ts.URL + ClientPath)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	etag := resp.Header.Get("ETag")
	if resp.StatusCode != http.StatusOK || etag == "" || !strings.Contains(string(body), "applyOp") {
		t.Fatalf("GET = %d etag=%q, %d bytes", resp.StatusCode, etag, len(body))
	}

	tests := []struct {
		name   string
		method string
		inm    string
		status int
	}{
		{"revalidate", http.MethodGet, etag, http.StatusNotModified},
		{"stale", http.MethodGet, `"old"`, http.StatusOK},
		{"head", http.MethodHead, "", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(tc.method, ts.URL+ClientPath, nil)
			if tc.inm != "" {
				req.Header.Set("If-None-Match", tc.inm)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}

func TestWebSocketRoundTrip(t *testing.T) {
	srv, ts := newTestServer(t, nil, nil)
	id, _ := loadPage(t, ts)
	session := srv.Sessions().Get(id)

	c := connect(t, ts, id)
	if c.hello.SessionID != id {
		t.Errorf("hello session = %q, want %q", c.hello.SessionID, id)
	}
	if c.hello.RootID != session.RootID() || c.hello.NextSeq != 1 {
		t.Errorf("hello = %+v, want root %d next 1", c.hello, session.RootID())
	}

	if flags := c.sync(); !flags.Has(protocol.FlagCreate) {
		t.Errorf("first ops frame flags = %v, want create", flags)
	}
	if got, want := c.root().OuterHTML(), session.HTML(); got != want {
		t.Fatalf("client tree = %s, want %s", got, want)
	}

	for want := 1; want <= 3; want++ {
		if err := c.find("inc").Click(); err != nil {
			t.Fatalf("Click: %v", err)
		}
		if flags := c.sync(); flags.Has(protocol.FlagCreate) {
			t.Errorf("update frame carries the create flag")
		}
		if got := c.root().Find(memdom.ByTag("h1")).TextContent(); got != fmt.Sprintf("Count: %d", want) {
			t.Errorf("h1 = %q after %d clicks", got, want)
		}
	}
	if got, want := c.root().OuterHTML(), session.HTML(); got != want {
		t.Errorf("client tree = %s, want %s", got, want)
	}
}

func TestUpdateBeforeAttachIsDelivered(t *testing.T) {
	state := &counter{}
	srv, ts := newTestServer(t, func() func(*edom.Cursor) { return state.render }, nil)

	session, err := srv.NewSession()
	if err != nil {
		t.Fatal(err)
	}
	if err := session.Update(func() { state.count = 41 }); err != nil {
		t.Fatalf("Update: %v", err)
	}

	c := connect(t, ts, session.ID)
	c.sync()
	c.sync()
	if got := c.root().Find(memdom.ByTag("h1")).TextContent(); got != "Count: 41" {
		t.Errorf("h1 = %q, want Count: 41", got)
	}
}

func TestHandshakeRejections(t *testing.T) {
	srv, ts := newTestServer(t, nil, nil)
	id, _ := loadPage(t, ts)
	connect(t, ts, id)

	tests := []struct {
		name  string
		hello *protocol.ClientHello
		want  protocol.HandshakeStatus
	}{
		{"unknown_session", protocol.NewClientHello("nope"), protocol.HandshakeSessionNotFound},
		{"already_attached", protocol.NewClientHello(id), protocol.HandshakeSessionNotFound},
		{"version_mismatch", &protocol.ClientHello{Version: protocol.ProtocolVersion{Major: 9}, SessionID: id}, protocol.HandshakeVersionMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sh := handshake(t, dial(t, ts), tc.hello)
			if sh.Status != tc.want {
				t.Errorf("status = %v, want %v", sh.Status, tc.want)
			}
		})
	}

	t.Run("not_a_handshake", func(t *testing.T) {
		conn := dial(t, ts)
		f := protocol.NewFrame(protocol.FrameEvent, []byte{1, 2})
		if err := conn.WriteMessage(websocket.BinaryMessage, f.Encode()); err != nil {
			t.Fatal(err)
		}
		sh, err := protocol.DecodeServerHello(readFrame(t, conn).Payload)
		if err != nil {
			t.Fatal(err)
		}
		if sh.Status != protocol.HandshakeInvalidFormat {
			t.Errorf("status = %v, want InvalidFormat", sh.Status)
		}
	})

	if srv.Sessions().Count() != 1 {
		t.Errorf("sessions = %d, want 1", srv.Sessions().Count())
	}
}

func TestRejectedEventKeepsSession(t *testing.T) {
	srv, ts := newTestServer(t, nil, nil)
	id, _ := loadPage(t, ts)
	c := connect(t, ts, id)
	c.sync()

	if err := c.send(&protocol.Event{Seq: 1, UID: 999, Name: "click"}); err != nil {
		t.Fatal(err)
	}
	f := c.next()
	if f.Type != protocol.FrameError {
		t.Fatalf("frame type = %v, want Error", f.Type)
	}
	em, err := protocol.DecodeErrorMessage(f.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if em.Code != "E142" || em.Fatal {
		t.Errorf("error = %+v, want non-fatal E142", em)
	}

	if err := c.find("inc").Click(); err != nil {
		t.Fatal(err)
	}
	c.sync()
	if srv.Sessions().Get(id) == nil {
		t.Error("session closed after a rejected event")
	}
}

func TestAbortedEngineClosesSession(t *testing.T) {
	app := func() func(*edom.Cursor) {
		flip := false
		return func(c *edom.Cursor) {
			c.Button("go").ID("go").Click(func() { flip = true })
			if flip {
				c.Span()
			}
		}
	}
	srv, ts := newTestServer(t, app, nil)
	id, _ := loadPage(t, ts)
	c := connect(t, ts, id)
	c.sync()

	if err := c.find("go").Click(); err != nil {
		t.Fatal(err)
	}
	f := c.next()
	if f.Type != protocol.FrameError {
		t.Fatalf("frame type = %v, want Error", f.Type)
	}
	em, err := protocol.DecodeErrorMessage(f.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if em.Code != "E100" || !em.Fatal {
		t.Errorf("error = %+v, want fatal E100", em)
	}

	f = c.next()
	ctl, err := protocol.DecodeControl(f.Payload)
	if f.Type != protocol.FrameControl || err != nil || ctl.Type != protocol.ControlClose || ctl.Reason != protocol.CloseError {
		t.Errorf("expected close frame with reason Error, got %v %+v", f.Type, ctl)
	}
	waitFor(t, "session removal", func() bool { return srv.Sessions().Get(id) == nil })
}

func TestPingPong(t *testing.T) {
	_, ts := newTestServer(t, nil, nil)
	id, _ := loadPage(t, ts)
	c := connect(t, ts, id)
	c.sync()

	ping := protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(protocol.NewPing(12345)))
	if err := c.conn.WriteMessage(websocket.BinaryMessage, ping.Encode()); err != nil {
		t.Fatal(err)
	}
	f := c.next()
	ctl, err := protocol.DecodeControl(f.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if ctl.Type != protocol.ControlPong || ctl.Timestamp != 12345 {
		t.Errorf("reply = %+v, want pong 12345", ctl)
	}
}

func TestMaxSessions(t *testing.T) {
	_, ts := newTestServer(t, nil, &Config{MaxSessions: 1})
	loadPage(t, ts)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestIdleSessionsExpire(t *testing.T) {
	srv, ts := newTestServer(t, nil, &Config{IdleTimeout: time.Millisecond, CleanupInterval: time.Hour})
	loadPage(t, ts)
	time.Sleep(5 * time.Millisecond)

	if n := srv.Sessions().cleanupExpired(); n != 1 {
		t.Errorf("expired = %d, want 1", n)
	}
	if srv.Sessions().Count() != 0 {
		t.Errorf("sessions = %d, want 0", srv.Sessions().Count())
	}
}

func TestCleanupSweepsOldSnapshots(t *testing.T) {
	store, err := snapshot.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	snap := snapshot.New("s1", []byte("<p>old</p>"))
	if err := store.Save(context.Background(), snap); err != nil {
		t.Fatal(err)
	}

	newTestServer(t, nil, &Config{
		CleanupInterval: 10 * time.Millisecond,
		SnapshotMaxAge:  time.Millisecond,
	}, WithSnapshots(store))

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := store.Load(context.Background(), snap.ID)
		if errors.Is(err, snapshot.ErrNotFound) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("snapshot still present after sweeps: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSnapshotEndpoints(t *testing.T) {
	store, err := snapshot.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	srv, ts := newTestServer(t, nil, nil, WithSnapshots(store))
	id, _ := loadPage(t, ts)

	resp, err := http.Post(ts.URL+"/sessions/"+id+"/snapshot", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d", resp.StatusCode)
	}
	var created struct{ ID string }
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}

	resp2, err := http.Get(ts.URL + "/snapshots/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	body, _ := io.ReadAll(resp2.Body)
	if string(body) != srv.Sessions().Get(id).HTML() {
		t.Errorf("snapshot = %s", body)
	}

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodPost, "/sessions/unknown/snapshot", http.StatusNotFound},
		{http.MethodGet, "/snapshots/6ba7b810-9dad-11d1-80b4-00c04fd430c8", http.StatusNotFound},
		{http.MethodGet, "/snapshots/not-an-id", http.StatusNotFound},
	}
	for _, tc := range tests {
		req, _ := http.NewRequest(tc.method, ts.URL+tc.path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Errorf("%s %s = %d, want %d", tc.method, tc.path, resp.StatusCode, tc.want)
		}
	}
}

func TestSnapshotRoutesNeedAStore(t *testing.T) {
	_, ts := newTestServer(t, nil, nil)
	resp, err := http.Get(ts.URL + "/snapshots/6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestMiddlewareSeesCycles(t *testing.T) {
	var mu sync.Mutex
	var seen []Cycle
	record := func(next CycleFunc) CycleFunc {
		return func(ctx context.Context, c *Cycle) error {
			err := next(ctx, c)
			mu.Lock()
			seen = append(seen, *c)
			mu.Unlock()
			return err
		}
	}

	_, ts := newTestServer(t, nil, nil, WithMiddleware(record))
	id, _ := loadPage(t, ts)
	c := connect(t, ts, id)
	c.sync()
	if err := c.find("inc").Click(); err != nil {
		t.Fatal(err)
	}
	c.sync()

	waitFor(t, "cycle record", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	})
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("cycles = %d, want 1", len(seen))
	}
	got := seen[0]
	if got.Kind != CycleEvent || got.SessionID != id || got.Event.Name != "click" {
		t.Errorf("cycle = %+v", got)
	}
	if got.Ops != 1 || got.Bytes == 0 {
		t.Errorf("cycle ops = %d bytes = %d, want a single text update", got.Ops, got.Bytes)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, nil, nil)
	loadPage(t, ts)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	var health struct {
		Status   string
		Sessions int
	}
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health.Status != "ok" || health.Sessions != 1 {
		t.Errorf("health = %+v", health)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, name := range []string{"edom_server_sessions_total 1", "edom_server_active_sessions 1"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics missing %q", name)
		}
	}
}
