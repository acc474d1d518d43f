package board

import (
	"encoding/json"

	"chessboard/internal/domain/board"
	boarduc "chessboard/internal/usecase/board"
)

// Inbound message types.
const (
	msgClick           = "click"
	msgUndo            = "undo"
	msgPromote         = "promote"
	msgCancelPromotion = "cancelPromotion"
	msgShare           = "share"
)

// Outbound message types.
const (
	msgView    = "view"
	msgSession = "session"
	msgShared  = "shared"
	msgError   = "error"
)

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type clickPayload struct {
	Location board.Location `json:"location"`
}

type promotePayload struct {
	Piece board.PieceKind `json:"piece"`
}

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type sessionPayload struct {
	ID string `json:"id"`
}

type sharedPayload struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type advisoryMove struct {
	board.AugmentedMove
	Display board.Display `json:"display"`
}

type viewPayload struct {
	Position         board.Position  `json:"position"`
	Selected         *board.Location `json:"selected,omitempty"`
	AdvisoryMoves    []advisoryMove  `json:"advisoryMoves"`
	ErrorMessage     string          `json:"errorMessage,omitempty"`
	Epoch            uint64          `json:"epoch"`
	Path             string          `json:"path"`
	PendingPromotion *board.Move     `json:"pendingPromotion,omitempty"`
	Ready            bool            `json:"ready"`
}

func newViewPayload(v boarduc.View) viewPayload {
	advisory := make([]advisoryMove, 0, len(v.AdvisoryMoves))
	for _, am := range v.AdvisoryMoves {
		advisory = append(advisory, advisoryMove{AugmentedMove: am, Display: am.Display()})
	}
	return viewPayload{
		Position:         v.Position,
		Selected:         v.Selected,
		AdvisoryMoves:    advisory,
		ErrorMessage:     v.ErrorMessage,
		Epoch:            v.Epoch,
		Path:             v.Path.String(),
		PendingPromotion: v.PendingPromotion,
		Ready:            v.Ready,
	}
}

func errorMessage(text string) outbound {
	return outbound{Type: msgError, Payload: errorPayload{Message: text}}
}
