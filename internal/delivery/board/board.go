package board

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chessboard/internal/domain/board"
	apperrors "chessboard/internal/errors"
	"chessboard/internal/httpresponse"
	repo "chessboard/internal/repository"
	boarduc "chessboard/internal/usecase/board"
)

const (
	writeWait     = 10 * time.Second
	outboundQueue = 16
)

type SessionStore interface {
	LoadSessionPath(ctx context.Context, sessionID string) (board.Path, error)
	SaveSessionPath(ctx context.Context, sessionID string, path board.Path) error
}

type BookmarkStore interface {
	CreateBookmark(ctx context.Context, path board.Path) (repo.Bookmark, error)
	GetBookmark(ctx context.Context, publicKey string) (repo.Bookmark, error)
}

// BoardHandler serves renderers: one websocket and one controller per connection.
type BoardHandler struct {
	log       *zap.SugaredLogger
	authority boarduc.Authority
	sessions  SessionStore
	bookmarks BookmarkStore
	timeout   time.Duration
	upgrader  websocket.Upgrader
}

func NewBoardHandler(log *zap.SugaredLogger, authority boarduc.Authority, sessions SessionStore, bookmarks BookmarkStore, timeout time.Duration) *BoardHandler {
	return &BoardHandler{
		log:       log,
		authority: authority,
		sessions:  sessions,
		bookmarks: bookmarks,
		timeout:   timeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *BoardHandler) Router(r chi.Router) {
	r.Get("/ws", h.HandleBoard)
	r.Get("/bookmarks/{key}", h.GetBookmark)
	r.Get("/healthz", h.Health)
}

func (h *BoardHandler) Health(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, "ok")
}

func (h *BoardHandler) GetBookmark(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	bookmark, err := h.bookmarks.GetBookmark(r.Context(), key)
	switch {
	case errors.Is(err, apperrors.ErrBookmarkNotFound):
		httpresponse.WriteErrorWithStatus(w, http.StatusNotFound, err.Error(), board.ReasonNone)
		return
	case err != nil:
		h.log.Errorw("failed to load bookmark", "key", key, "error", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, sharedPayload{Key: bookmark.PublicKey, Path: bookmark.Path})
}

// startingPath picks what the controller loads: the session's stored path, then a bookmark,
// then the path query parameter. An empty result means a new game.
func (h *BoardHandler) startingPath(r *http.Request, sessionID string, resumed bool) (board.Path, int, error) {
	ctx := r.Context()
	q := r.URL.Query()

	if resumed {
		path, err := h.sessions.LoadSessionPath(ctx, sessionID)
		switch {
		case err == nil:
			return path, 0, nil
		case !errors.Is(err, apperrors.ErrSessionNotFound):
			h.log.Warnw("session store unavailable, ignoring stored path", "session", sessionID, "error", err)
		}
	}

	if key := q.Get("bookmark"); key != "" {
		bookmark, err := h.bookmarks.GetBookmark(ctx, key)
		if errors.Is(err, apperrors.ErrBookmarkNotFound) {
			return nil, http.StatusNotFound, err
		}
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		path, err := board.ParsePath(bookmark.Path)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return path, 0, nil
	}

	if raw := q.Get("path"); raw != "" {
		path, err := board.ParsePath(raw)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		return path, 0, nil
	}
	return nil, 0, nil
}

// sessionID returns the client's session id when it is a uuid, otherwise a fresh one.
func (h *BoardHandler) sessionID(r *http.Request) (id string, resumed bool) {
	raw := r.URL.Query().Get("session")
	if raw == "" {
		return uuid.New().String(), false
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		h.log.Warnw("ignoring malformed session id", "session", raw)
		return uuid.New().String(), false
	}
	return parsed.String(), true
}

func (h *BoardHandler) HandleBoard(w http.ResponseWriter, r *http.Request) {
	sessionID, resumed := h.sessionID(r)
	log := h.log.With("session", sessionID)

	path, status, err := h.startingPath(r, sessionID, resumed)
	if err != nil {
		log.Warnw("cannot resolve starting path", "error", err)
		if status == http.StatusInternalServerError {
			httpresponse.WriteInternalErrorResponse(w)
			return
		}
		httpresponse.WriteErrorWithStatus(w, status, err.Error(), board.ReasonNone)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorw("upgrade error", "error", err)
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(outbound{Type: msgSession, Payload: sessionPayload{ID: sessionID}}); err != nil {
		log.Errorw("write error", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ctrl := boarduc.NewController(h.authority, log, h.timeout)
	go ctrl.Run(ctx)

	c := &connection{
		h:         h,
		log:       log,
		conn:      conn,
		ctrl:      ctrl,
		sessionID: sessionID,
		views:     make(chan boarduc.View, 1),
		out:       make(chan outbound, outboundQueue),
	}
	unsubscribe := ctrl.Subscribe(c.offerView)
	defer unsubscribe()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop(ctx)
	}()

	ctrl.Load(path)
	c.readLoop(ctx)

	cancel()
	<-writerDone
	<-ctrl.Done()
	log.Info("board connection closed")
}

type connection struct {
	h         *BoardHandler
	log       *zap.SugaredLogger
	conn      *websocket.Conn
	ctrl      *boarduc.Controller
	sessionID string

	// views holds only the newest view so the controller loop never waits on the socket.
	views chan boarduc.View
	out   chan outbound
}

// offerView runs on the controller loop.
func (c *connection) offerView(v boarduc.View) {
	select {
	case c.views <- v:
		return
	default:
	}
	select {
	case <-c.views:
	default:
	}
	c.views <- v
}

func (c *connection) send(ctx context.Context, msg outbound) {
	select {
	case c.out <- msg:
	case <-ctx.Done():
	}
}

func (c *connection) writeLoop(ctx context.Context) {
	var saved board.Path
	persisted := false
	for {
		var msg outbound
		select {
		case <-ctx.Done():
			return
		case msg = <-c.out:
		case v := <-c.views:
			if v.Ready && (!persisted || !v.Path.Equal(saved)) {
				if err := c.h.sessions.SaveSessionPath(ctx, c.sessionID, v.Path); err != nil {
					c.log.Warnw("session path not persisted", "error", err)
				} else {
					saved, persisted = v.Path, true
				}
			}
			msg = outbound{Type: msgView, Payload: newViewPayload(v)}
		}

		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			c.log.Errorw("write error", "error", err)
			_ = c.conn.Close()
			return
		}
	}
}

func (c *connection) readLoop(ctx context.Context) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warnw("read error", "error", err)
			}
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(ctx, errorMessage(httpresponse.MALFORMEDJSON_errorDesc))
			continue
		}
		if err := c.dispatch(ctx, msg); err != nil {
			c.send(ctx, errorMessage(err.Error()))
		}
	}
}

var errUnknownMessage = errors.New("unknown message type")

func (c *connection) dispatch(ctx context.Context, msg inbound) error {
	switch msg.Type {
	case msgClick:
		var p clickPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		c.ctrl.Click(p.Location)
	case msgUndo:
		c.ctrl.Undo()
	case msgPromote:
		var p promotePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		c.ctrl.Promote(p.Piece)
	case msgCancelPromotion:
		c.ctrl.CancelPromotion()
	case msgShare:
		return c.share(ctx)
	default:
		return errUnknownMessage
	}
	return nil
}

func (c *connection) share(ctx context.Context) error {
	v, ok := c.ctrl.View()
	if !ok {
		return apperrors.ErrInternal
	}
	bookmark, err := c.h.bookmarks.CreateBookmark(ctx, v.Path)
	if err != nil {
		c.log.Errorw("failed to share path", "error", err)
		return apperrors.ErrInternal
	}
	c.send(ctx, outbound{Type: msgShared, Payload: sharedPayload{Key: bookmark.PublicKey, Path: bookmark.Path}})
	return nil
}
