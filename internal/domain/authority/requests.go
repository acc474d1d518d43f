package authority

import (
	"chessboard/internal/domain/board"
)

// @name NewGameRequest
type NewGameRequest struct{}

// @name ReplayRequest
type ReplayRequest struct {
	Path board.Path `json:"path"`
}

// @name MovesRequest
// Exactly one of Source and Dest is set.
type MovesRequest struct {
	Position board.Position  `json:"position"`
	Source   *board.Location `json:"source,omitempty"`
	Dest     *board.Location `json:"dest,omitempty"`
}

// @name MovesResponse
type MovesResponse struct {
	Moves []board.Move `json:"moves"`
}

// @name MoveRequest
// Used by both is-legal and make-move.
type MoveRequest struct {
	Position board.Position   `json:"position"`
	Source   board.Location   `json:"source"`
	Dest     board.Location   `json:"dest"`
	Promote  *board.PieceKind `json:"promote,omitempty"`
}

func NewMoveRequest(pos board.Position, move board.Move) MoveRequest {
	return MoveRequest{Position: pos, Source: move.Source, Dest: move.Dest, Promote: move.Promote}
}

func (r MoveRequest) Move() board.Move {
	return board.Move{Source: r.Source, Dest: r.Dest, Promote: r.Promote}
}

// @name PositionResponse
type PositionResponse struct {
	Position board.Position `json:"position"`
}

// Query selects which side of candidate moves is asked for.
type Query struct {
	Source *board.Location
	Dest   *board.Location
}

func FromSource(loc board.Location) Query {
	return Query{Source: &loc}
}

func ToDest(loc board.Location) Query {
	return Query{Dest: &loc}
}

func (q Query) Valid() bool {
	return (q.Source == nil) != (q.Dest == nil)
}

func (q Query) String() string {
	if q.Source != nil {
		return "source=" + q.Source.String()
	}
	if q.Dest != nil {
		return "dest=" + q.Dest.String()
	}
	return "empty"
}
