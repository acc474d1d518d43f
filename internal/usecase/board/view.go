package board

import (
	"chessboard/internal/domain/board"
)

// View is the read-only snapshot handed to renderers after every transition.
type View struct {
	Position         board.Position        `json:"position"`
	Selected         *board.Location       `json:"selected,omitempty"`
	AdvisoryMoves    []board.AugmentedMove `json:"advisoryMoves"`
	ErrorMessage     string                `json:"errorMessage,omitempty"`
	Epoch            uint64                `json:"epoch"`
	Path             board.Path            `json:"path"`
	PendingPromotion *board.Move           `json:"pendingPromotion,omitempty"`
	Ready            bool                  `json:"ready"`
}

func (v View) Selecting() bool {
	return v.Selected != nil
}

// state is owned by the controller loop and never leaves it; snapshot copies it out.
type state struct {
	position     board.Position
	ready        bool
	selected     *board.Location
	advisory     []board.AugmentedMove
	errorMessage string
	epoch        uint64
	path         board.Path
	pending      *board.Move
}

func (s *state) snapshot() View {
	v := View{
		Position:      s.position,
		AdvisoryMoves: append([]board.AugmentedMove{}, s.advisory...),
		ErrorMessage:  s.errorMessage,
		Epoch:         s.epoch,
		Path:          append(board.Path{}, s.path...),
		Ready:         s.ready,
	}
	if s.selected != nil {
		loc := *s.selected
		v.Selected = &loc
	}
	if s.pending != nil {
		move := *s.pending
		v.PendingPromotion = &move
	}
	return v
}

// leaveSelection drops everything tied to the current selection.
func (s *state) leaveSelection() {
	s.selected = nil
	s.advisory = nil
}
