package board

import (
	"context"
	"fmt"

	"chessboard/internal/domain/authority"
	"chessboard/internal/domain/board"
	apperrors "chessboard/internal/errors"
)

// Authority is the remote rules service. Implementations map failures onto
// apperrors.ErrTransportFailure, ErrRuleRejection and ErrReplayRejected.
type Authority interface {
	LegalityChecker
	NewGame(ctx context.Context) (board.Position, error)
	Replay(ctx context.Context, path board.Path) (board.Position, error)
	CandidateMoves(ctx context.Context, pos board.Position, q authority.Query) ([]board.Move, error)
	ApplyMove(ctx context.Context, pos board.Position, move board.Move) (board.Position, error)
}

type LegalityChecker interface {
	CheckLegality(ctx context.Context, pos board.Position, move board.Move) (board.Verdict, error)
}

// Advance applies move through the authority. The result's history is always pos followed by
// pos's own history, whatever the authority sent back.
func Advance(ctx context.Context, a Authority, pos board.Position, move board.Move) (board.Position, error) {
	next, err := a.ApplyMove(ctx, pos, move)
	if err != nil {
		return board.Position{}, err
	}
	return pos.Advance(next), nil
}

// Augment classifies move with exactly one legality call. An empty source square is a caller bug
// and yields ErrInvariantViolation without touching the network.
func Augment(ctx context.Context, checker LegalityChecker, pos board.Position, move board.Move) (board.AugmentedMove, error) {
	if _, ok := pos.Map.At(move.Source); !ok {
		return board.AugmentedMove{}, fmt.Errorf("augment %s: %w", move, apperrors.ErrInvariantViolation)
	}
	verdict, err := checker.CheckLegality(ctx, pos, move)
	if err != nil {
		return board.AugmentedMove{}, err
	}
	return board.Augment(pos, move, verdict)
}
