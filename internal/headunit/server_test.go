package headunit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"drivesync/internal/engine"
	"drivesync/internal/reconciler"
	"drivesync/internal/surface"
)

// fakeSession records every reconciler call on a channel so tests can wait
// for the server's asynchronous dispatch.
type fakeSession struct {
	calls   chan string
	connErr error
	cmdErr  error
}

func newFakeSession() *fakeSession {
	return &fakeSession{calls: make(chan string, 16)}
}

func (f *fakeSession) Connection(ev reconciler.ConnectionEvent) error {
	if f.connErr != nil {
		return f.connErr
	}
	f.calls <- ev.Kind.String() + ":" + ev.Channel.String()
	return nil
}

func (f *fakeSession) Play(context.Context) error  { f.calls <- "play"; return f.cmdErr }
func (f *fakeSession) Pause(context.Context) error { f.calls <- "pause"; return f.cmdErr }
func (f *fakeSession) StopPlayback(context.Context) error {
	f.calls <- "stop"
	return f.cmdErr
}
func (f *fakeSession) PlayByID(_ context.Context, id string) error {
	f.calls <- "play_by_id:" + id
	return f.cmdErr
}

func waitCall(t *testing.T, f *fakeSession, want string) {
	t.Helper()
	select {
	case got := <-f.calls:
		if got != want {
			t.Fatalf("session call = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for session call %q", want)
	}
}

func newTestServer(t *testing.T, session Session) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(zap.NewNop())
	srv.SetSession(session)
	mux := http.NewServeMux()
	srv.Register(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestAttachDetachEdges(t *testing.T) {
	session := newFakeSession()
	_, ts := newTestServer(t, session)

	first := dial(t, ts, "/ws/session")
	waitCall(t, session, "connected:session")

	// A second socket on the same channel shares the existing edge.
	second := dial(t, ts, "/ws/session")
	select {
	case got := <-session.calls:
		t.Fatalf("unexpected session call %q on second socket", got)
	case <-time.After(100 * time.Millisecond):
	}

	// Dropping one of two sockets keeps the channel connected.
	first.Close()
	select {
	case got := <-session.calls:
		t.Fatalf("unexpected session call %q, one socket remains", got)
	case <-time.After(100 * time.Millisecond):
	}

	second.Close()
	waitCall(t, session, "disconnected:session")
}

func TestChannelsAreIndependent(t *testing.T) {
	session := newFakeSession()
	_, ts := newTestServer(t, session)

	dial(t, ts, "/ws/session")
	waitCall(t, session, "connected:session")

	browseConn := dial(t, ts, "/ws/browse")
	waitCall(t, session, "connected:browse")

	browseConn.Close()
	waitCall(t, session, "disconnected:browse")
}

func TestDispatchCommands(t *testing.T) {
	session := newFakeSession()
	_, ts := newTestServer(t, session)

	conn := dial(t, ts, "/ws/session")
	waitCall(t, session, "connected:session")

	frames := []Frame{
		{Type: FrameTypePlay},
		{Type: FrameTypePause},
		{Type: FrameTypeStop},
		{Type: FrameTypePlayByID, TrackID: "b"},
	}
	for _, frame := range frames {
		if err := conn.WriteJSON(frame); err != nil {
			t.Fatalf("WriteJSON(%s): %v", frame.Type, err)
		}
	}

	waitCall(t, session, "play")
	waitCall(t, session, "pause")
	waitCall(t, session, "stop")
	waitCall(t, session, "play_by_id:b")
}

func TestUnknownFrameIgnored(t *testing.T) {
	session := newFakeSession()
	_, ts := newTestServer(t, session)

	conn := dial(t, ts, "/ws/session")
	waitCall(t, session, "connected:session")

	if err := conn.WriteJSON(Frame{Type: "seek"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := conn.WriteJSON(Frame{Type: FrameTypePlay}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	// The unknown frame is skipped, the next one still dispatches.
	waitCall(t, session, "play")
}

func TestCommandErrorRepliesToIssuer(t *testing.T) {
	session := newFakeSession()
	session.cmdErr = reconciler.ErrNotFound
	_, ts := newTestServer(t, session)

	conn := dial(t, ts, "/ws/session")
	waitCall(t, session, "connected:session")

	other := dial(t, ts, "/ws/browse")
	waitCall(t, session, "connected:browse")

	if err := conn.WriteJSON(Frame{Type: FrameTypePlayByID, TrackID: "nope"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	waitCall(t, session, "play_by_id:nope")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if frame.Type != FrameTypeError || frame.Message == "" {
		t.Errorf("frame = %+v, want error frame with message", frame)
	}

	// The failure stays private to the issuing client.
	_ = other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if err := other.ReadJSON(&frame); err == nil {
		t.Errorf("other client received %+v, want nothing", frame)
	}
}

func TestRejectedChannelClosesSocket(t *testing.T) {
	session := newFakeSession()
	session.connErr = reconciler.ErrChannelDisabled
	_, ts := newTestServer(t, session)

	conn := dial(t, ts, "/ws/session")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("socket should be closed when the channel is disabled")
	}
}

func TestBroadcastReachesAllChannels(t *testing.T) {
	session := newFakeSession()
	srv, ts := newTestServer(t, session)

	sessionConn := dial(t, ts, "/ws/session")
	waitCall(t, session, "connected:session")
	browseConn := dial(t, ts, "/ws/browse")
	waitCall(t, session, "connected:browse")

	want := surface.NowPlaying{
		Status:   engine.StatusPlaying,
		Position: 37 * time.Second,
		Duration: 3 * time.Minute,
		TrackID:  "a",
		Title:    "Alpha",
		Artist:   "Artist A",
	}
	srv.PublishNowPlaying(want)

	for _, conn := range []*websocket.Conn{sessionConn, browseConn} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		if frame.Type != FrameTypeNowPlaying {
			t.Fatalf("frame type = %q, want %q", frame.Type, FrameTypeNowPlaying)
		}
		var got surface.NowPlaying
		if err := json.Unmarshal(frame.Data, &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if got != want {
			t.Errorf("payload = %+v, want %+v", got, want)
		}
	}
}
