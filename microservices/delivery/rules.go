package delivery

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"chessboard/internal/domain/authority"
	"chessboard/internal/domain/board"
	apperrors "chessboard/internal/errors"
	"chessboard/internal/httpresponse"
	"chessboard/internal/utils"
	"chessboard/microservices/rules"
	"chessboard/microservices/usecase"
)

// RulesHandler serves the authority's JSON endpoints.
type RulesHandler struct {
	log   *zap.SugaredLogger
	rules usecase.RulesStore
}

func NewRulesHandler(log *zap.SugaredLogger, rules usecase.RulesStore) *RulesHandler {
	return &RulesHandler{
		log:   log,
		rules: rules,
	}
}

func (h *RulesHandler) Router(r chi.Router) {
	r.Get("/new-board", h.HandleNewBoard)
	r.Post("/get-board-after", h.HandleBoardAfter)
	r.Post("/get-moves", h.HandleGetMoves)
	r.Post("/is-legal", h.HandleIsLegal)
	r.Post("/make-move", h.HandleMakeMove)
}

func (h *RulesHandler) HandleNewBoard(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, h.rules.NewGame())
}

// HandleBoardAfter replays a JSON array of move codes from the initial setup.
func (h *RulesHandler) HandleBoardAfter(w http.ResponseWriter, r *http.Request) {
	body, err := utils.ReadRequestBody(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}
	var codes []board.MoveCode
	if err := json.Unmarshal(body, &codes); err != nil {
		h.writeError(w, http.StatusBadRequest, httpresponse.MALFORMEDJSON_errorDesc, err)
		return
	}

	pos, err := h.rules.Replay(board.Path(codes))
	if err != nil {
		h.writeRulesError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, pos)
}

func (h *RulesHandler) HandleGetMoves(w http.ResponseWriter, r *http.Request) {
	var req authority.MovesRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, httpresponse.MALFORMEDJSON_errorDesc, err)
		return
	}
	q := authority.Query{Source: req.Source, Dest: req.Dest}
	if !q.Valid() {
		h.writeError(w, http.StatusBadRequest, "exactly one of source and dest is required", nil)
		return
	}

	moves, err := h.rules.CandidateMoves(req.Position, q)
	if err != nil {
		h.writeRulesError(w, err)
		return
	}
	if moves == nil {
		moves = []board.Move{}
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, moves)
}

func (h *RulesHandler) HandleIsLegal(w http.ResponseWriter, r *http.Request) {
	var req authority.MoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, httpresponse.MALFORMEDJSON_errorDesc, err)
		return
	}

	verdict, err := h.rules.CheckLegality(req.Position, req.Move())
	if err != nil {
		h.writeRulesError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, verdict)
}

func (h *RulesHandler) HandleMakeMove(w http.ResponseWriter, r *http.Request) {
	var req authority.MoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, httpresponse.MALFORMEDJSON_errorDesc, err)
		return
	}

	pos, err := h.rules.ApplyMove(req.Position, req.Move())
	if err != nil {
		h.writeRulesError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, pos)
}

func (h *RulesHandler) writeRulesError(w http.ResponseWriter, err error) {
	reason, _ := apperrors.ReasonOf(err)
	switch {
	case errors.Is(err, apperrors.ErrReplayRejected):
		httpresponse.WriteErrorWithStatus(w, http.StatusConflict, err.Error(), reason)
	case errors.Is(err, apperrors.ErrRuleRejection):
		httpresponse.WriteErrorWithStatus(w, http.StatusUnprocessableEntity, err.Error(), reason)
	case errors.Is(err, rules.ErrInvalidPosition):
		h.writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		h.log.Errorf("rules request failed: %v", err)
		httpresponse.WriteInternalErrorResponse(w)
	}
}

func (h *RulesHandler) writeError(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	h.log.Debugf("rules request error: %s", msg)
	httpresponse.WriteErrorWithStatus(w, status, msg, board.ReasonNone)
}
