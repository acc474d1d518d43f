// Package rules answers rules authority requests using github.com/notnil/chess for strict
// legality and move application, plus a movement-pattern check that tells apart moves that are
// refused only for turn order or a same-colour target.
package rules

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"

	"chessboard/internal/domain/authority"
	"chessboard/internal/domain/board"
	apperrors "chessboard/internal/errors"
)

var ErrInvalidPosition = errors.New("invalid position")

// Reasons only produced while replaying a path.
const (
	ReasonInvalidMoveCode board.Reason = "InvalidMoveCode"
	ReasonPieceMismatch   board.Reason = "PieceMismatch"
)

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) NewGame() board.Position {
	return positionOf(chess.NewGame())
}

// Replay applies path from the initial setup. Any move that does not apply aborts with a
// replay rejection naming the reason.
func (e *Engine) Replay(path board.Path) (board.Position, error) {
	pos := e.NewGame()
	for i, code := range path {
		kind, move, err := code.Parse()
		if err != nil {
			return board.Position{}, fmt.Errorf("move %d (%s): %w", i+1, code, apperrors.NewReplayRejection(ReasonInvalidMoveCode))
		}
		if occ, ok := pos.Map.At(move.Source); ok && occ.Kind != kind {
			return board.Position{}, fmt.Errorf("move %d (%s): %w", i+1, code, apperrors.NewReplayRejection(ReasonPieceMismatch))
		}
		next, err := e.ApplyMove(pos, move)
		if err != nil {
			if reason, ok := apperrors.ReasonOf(err); ok {
				return board.Position{}, fmt.Errorf("move %d (%s): %w", i+1, code, apperrors.NewReplayRejection(reason))
			}
			return board.Position{}, err
		}
		pos = next
	}
	return pos, nil
}

// CandidateMoves lists moves from q.Source or onto q.Dest. Pawn moves onto the last rank are
// returned once, promoting to a queen.
func (e *Engine) CandidateMoves(pos board.Position, q authority.Query) ([]board.Move, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("%w: query needs exactly one of source and dest", ErrInvalidPosition)
	}
	game, err := gameOf(pos)
	if err != nil {
		return nil, err
	}
	strict := game.ValidMoves()

	var moves []board.Move
	seen := make(map[board.Move]bool)
	add := func(src, dst board.Location) {
		if src == dst {
			return
		}
		key := board.Move{Source: src, Dest: dst}
		if seen[key] {
			return
		}
		seen[key] = true
		move := key
		if occ := pos.Map[src]; occ.Kind == board.Pawn && isPromotionSquare(occ.Color, dst) {
			move = move.WithPromotion(board.Queen)
		}
		moves = append(moves, move)
	}

	if q.Source != nil {
		src := *q.Source
		for _, dst := range reach(pos.Map, src) {
			add(src, dst)
		}
		for _, m := range strict {
			if locationOf(m.S1()) == src {
				add(src, locationOf(m.S2()))
			}
		}
		return moves, nil
	}

	dst := *q.Dest
	for _, src := range board.AllLocations() {
		if _, ok := pos.Map[src]; ok && reaches(pos.Map, src, dst) {
			add(src, dst)
		}
	}
	for _, m := range strict {
		if locationOf(m.S2()) == dst {
			add(locationOf(m.S1()), dst)
		}
	}
	return moves, nil
}

// CheckLegality returns the first failing check in a fixed order; see the Reason constants.
func (e *Engine) CheckLegality(pos board.Position, move board.Move) (board.Verdict, error) {
	game, err := gameOf(pos)
	if err != nil {
		return board.Verdict{}, err
	}
	_, reason := verdict(game, pos, move)
	if reason != board.ReasonNone {
		return board.Verdict{Reason: reason}, nil
	}
	return board.Verdict{Success: true}, nil
}

// ApplyMove re-validates move and returns the resulting position with pos prepended to history.
func (e *Engine) ApplyMove(pos board.Position, move board.Move) (board.Position, error) {
	game, err := gameOf(pos)
	if err != nil {
		return board.Position{}, err
	}
	strictMove, reason := verdict(game, pos, move)
	if reason != board.ReasonNone {
		return board.Position{}, apperrors.NewRuleRejection(reason)
	}
	if err := game.Move(strictMove); err != nil {
		return board.Position{}, fmt.Errorf("apply %s: %w", move, err)
	}
	return pos.Advance(positionOf(game)), nil
}

func verdict(game *chess.Game, pos board.Position, move board.Move) (*chess.Move, board.Reason) {
	src, ok := pos.Map.At(move.Source)
	if !ok {
		return nil, board.ReasonNoPieceAtSource
	}
	if move.Source == move.Dest {
		return nil, board.ReasonNullMove
	}

	strict := game.ValidMoves()
	special := false
	for _, m := range strict {
		if locationOf(m.S1()) == move.Source && locationOf(m.S2()) == move.Dest {
			special = true
			break
		}
	}
	if !special && !reaches(pos.Map, move.Source, move.Dest) {
		return nil, board.ReasonNotReachable
	}

	if dst, ok := pos.Map.At(move.Dest); ok && dst.Color == src.Color {
		return nil, board.ReasonCannotCaptureSameColor
	}
	if src.Color != pos.ToMove {
		return nil, board.ReasonWrongColorToMove
	}

	promotion := src.Kind == board.Pawn && isPromotionSquare(src.Color, move.Dest)
	switch {
	case promotion && move.Promote == nil:
		return nil, board.ReasonNeedsPromotion
	case promotion && !promotable(*move.Promote):
		return nil, board.ReasonInvalidPromotion
	case !promotion && move.Promote != nil:
		return nil, board.ReasonInvalidPromotion
	}

	want := chess.NoPieceType
	if move.Promote != nil {
		want = pieceTypeOf(*move.Promote)
	}
	for _, m := range strict {
		if locationOf(m.S1()) == move.Source && locationOf(m.S2()) == move.Dest && m.Promo() == want {
			return m, board.ReasonNone
		}
	}
	return nil, board.ReasonLeavesKingInCheck
}

func promotable(k board.PieceKind) bool {
	return k == board.Queen || k == board.Rook || k == board.Bishop || k == board.Knight
}
