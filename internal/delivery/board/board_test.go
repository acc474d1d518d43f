package board

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chessboard/internal/domain/authority"
	"chessboard/internal/domain/board"
	apperrors "chessboard/internal/errors"
	repo "chessboard/internal/repository"
	"chessboard/microservices/rules"
)

type engineAuthority struct {
	engine *rules.Engine
}

func (a engineAuthority) NewGame(ctx context.Context) (board.Position, error) {
	return a.engine.NewGame(), nil
}

func (a engineAuthority) Replay(ctx context.Context, path board.Path) (board.Position, error) {
	return a.engine.Replay(path)
}

func (a engineAuthority) CandidateMoves(ctx context.Context, pos board.Position, q authority.Query) ([]board.Move, error) {
	return a.engine.CandidateMoves(pos, q)
}

func (a engineAuthority) CheckLegality(ctx context.Context, pos board.Position, move board.Move) (board.Verdict, error) {
	return a.engine.CheckLegality(pos, move)
}

func (a engineAuthority) ApplyMove(ctx context.Context, pos board.Position, move board.Move) (board.Position, error) {
	return a.engine.ApplyMove(pos, move)
}

type memorySessions struct {
	mu    sync.Mutex
	paths map[string]board.Path
}

func (m *memorySessions) LoadSessionPath(ctx context.Context, sessionID string) (board.Path, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path, ok := m.paths[sessionID]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return path, nil
}

func (m *memorySessions) SaveSessionPath(ctx context.Context, sessionID string, path board.Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[sessionID] = path
	return nil
}

func (m *memorySessions) get(sessionID string) (board.Path, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path, ok := m.paths[sessionID]
	return path, ok
}

type memoryBookmarks struct {
	mu        sync.Mutex
	bookmarks map[string]repo.Bookmark
}

func (m *memoryBookmarks) CreateBookmark(ctx context.Context, path board.Path) (repo.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := repo.Bookmark{PublicKey: "00042", SecretKey: "secret", Path: path.String(), CreatedAt: time.Now()}
	m.bookmarks[b.PublicKey] = b
	return b, nil
}

func (m *memoryBookmarks) GetBookmark(ctx context.Context, publicKey string) (repo.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookmarks[publicKey]
	if !ok {
		return repo.Bookmark{}, apperrors.ErrBookmarkNotFound
	}
	return b, nil
}

type fixture struct {
	server    *httptest.Server
	sessions  *memorySessions
	bookmarks *memoryBookmarks
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions:  &memorySessions{paths: make(map[string]board.Path)},
		bookmarks: &memoryBookmarks{bookmarks: make(map[string]repo.Bookmark)},
	}
	h := NewBoardHandler(zap.NewNop().Sugar(), engineAuthority{engine: rules.NewEngine()}, f.sessions, f.bookmarks, time.Second)
	r := chi.NewRouter()
	h.Router(r)
	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) dial(t *testing.T, query url.Values) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// readUntil returns the first message of type typ that satisfies match.
func readUntil(t *testing.T, conn *websocket.Conn, typ string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg received
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %q: %v", typ, err)
		}
		if msg.Type == typ && (match == nil || match(msg.Payload)) {
			return msg.Payload
		}
	}
}

func viewWith(cond func(viewPayload) bool) func(json.RawMessage) bool {
	return func(raw json.RawMessage) bool {
		var v viewPayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return false
		}
		return cond(v)
	}
}

func decodeView(t *testing.T, raw json.RawMessage) viewPayload {
	t.Helper()
	var v viewPayload
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return v
}

func click(t *testing.T, conn *websocket.Conn, loc string) {
	t.Helper()
	msg := map[string]any{"type": "click", "payload": map[string]string{"location": loc}}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("click %s: %v", loc, err)
	}
}

func TestPlayMoveOverWebsocket(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, nil)

	var session sessionPayload
	if err := json.Unmarshal(readUntil(t, conn, msgSession, nil), &session); err != nil || session.ID == "" {
		t.Fatalf("session message: %+v %v", session, err)
	}
	readUntil(t, conn, msgView, viewWith(func(v viewPayload) bool { return v.Ready }))

	click(t, conn, "e2")
	raw := readUntil(t, conn, msgView, viewWith(func(v viewPayload) bool { return len(v.AdvisoryMoves) == 6 }))
	v := decodeView(t, raw)
	for _, am := range v.AdvisoryMoves {
		if am.Source == board.MustLocation("e2") && am.Dest == board.MustLocation("e4") {
			if am.Display.Kind != board.MoveOpen || am.Display.Emphasis != board.EmphasisLegal {
				t.Fatalf("e2e4 display = %+v", am.Display)
			}
		}
	}

	click(t, conn, "e4")
	readUntil(t, conn, msgView, viewWith(func(v viewPayload) bool { return v.Path == "e2e4" }))

	deadline := time.Now().Add(3 * time.Second)
	for {
		if path, ok := f.sessions.get(session.ID); ok && path.String() == "e2e4" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("session path was not persisted")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestResumeSession(t *testing.T) {
	f := newFixture(t)
	id := uuid.New().String()
	f.sessions.paths[id] = board.Path{"e2e4", "e7e5"}

	conn := f.dial(t, url.Values{"session": {id}})
	var session sessionPayload
	_ = json.Unmarshal(readUntil(t, conn, msgSession, nil), &session)
	if session.ID != id {
		t.Fatalf("session id = %q", session.ID)
	}
	v := decodeView(t, readUntil(t, conn, msgView, viewWith(func(v viewPayload) bool { return v.Ready })))
	if v.Path != "e2e4/e7e5" || v.Position.ToMove != board.White || len(v.Position.History) != 2 {
		t.Fatalf("resumed view: path=%q toMove=%v", v.Path, v.Position.ToMove)
	}
}

func TestMalformedSessionIDGetsFreshSession(t *testing.T) {
	f := newFixture(t)
	f.sessions.paths["session:other"] = board.Path{"e2e4", "e7e5"}

	conn := f.dial(t, url.Values{"session": {"session:other"}})
	var session sessionPayload
	_ = json.Unmarshal(readUntil(t, conn, msgSession, nil), &session)
	if session.ID == "session:other" {
		t.Fatalf("malformed session id was accepted")
	}
	if _, err := uuid.Parse(session.ID); err != nil {
		t.Fatalf("minted session id %q is not a uuid: %v", session.ID, err)
	}
	v := decodeView(t, readUntil(t, conn, msgView, viewWith(func(v viewPayload) bool { return v.Ready })))
	if v.Path != "" || len(v.Position.History) != 0 {
		t.Fatalf("malformed session loaded a stored path: %q", v.Path)
	}
	if path, _ := f.sessions.get("session:other"); path.String() != "e2e4/e7e5" {
		t.Fatalf("stored path under the malformed id changed: %q", path.String())
	}
}

func TestDeepLinkAndUndo(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, url.Values{"path": {"#e2e4/e7e5/Ng1f3"}})
	readUntil(t, conn, msgView, viewWith(func(v viewPayload) bool { return v.Ready && v.Path == "e2e4/e7e5/Ng1f3" }))

	if err := conn.WriteJSON(map[string]string{"type": "undo"}); err != nil {
		t.Fatalf("undo: %v", err)
	}
	readUntil(t, conn, msgView, viewWith(func(v viewPayload) bool { return v.Path == "e2e4/e7e5" }))
}

func TestBadDeepLinkIsRejected(t *testing.T) {
	f := newFixture(t)
	u := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?path=" + url.QueryEscape("zz99")
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("dial must fail for a malformed path")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", resp)
	}
}

func TestShareAndFetchBookmark(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, url.Values{"path": {"d2d4"}})
	readUntil(t, conn, msgView, viewWith(func(v viewPayload) bool { return v.Ready }))

	if err := conn.WriteJSON(map[string]string{"type": "share"}); err != nil {
		t.Fatalf("share: %v", err)
	}
	var shared sharedPayload
	if err := json.Unmarshal(readUntil(t, conn, msgShared, nil), &shared); err != nil {
		t.Fatalf("decode shared: %v", err)
	}
	if shared.Key != "00042" || shared.Path != "d2d4" {
		t.Fatalf("shared = %+v", shared)
	}

	resp, err := http.Get(f.server.URL + "/bookmarks/00042")
	if err != nil {
		t.Fatalf("get bookmark: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Status int
		Body   sharedPayload
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode bookmark: %v", err)
	}
	if resp.StatusCode != http.StatusOK || body.Body.Path != "d2d4" {
		t.Fatalf("bookmark response: %d %+v", resp.StatusCode, body)
	}

	conn2 := f.dial(t, url.Values{"bookmark": {"00042"}})
	readUntil(t, conn2, msgView, viewWith(func(v viewPayload) bool { return v.Ready && v.Path == "d2d4" }))
}

func TestMissingBookmark(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.server.URL + "/bookmarks/99999")
	if err != nil {
		t.Fatalf("get bookmark: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestUnknownAndMalformedMessages(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, nil)
	readUntil(t, conn, msgView, viewWith(func(v viewPayload) bool { return v.Ready }))

	if err := conn.WriteJSON(map[string]string{"type": "resign"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var e errorPayload
	_ = json.Unmarshal(readUntil(t, conn, msgError, nil), &e)
	if e.Message != errUnknownMessage.Error() {
		t.Fatalf("error = %q", e.Message)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, msgError, nil)

	click(t, conn, "z9")
	readUntil(t, conn, msgError, nil)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
