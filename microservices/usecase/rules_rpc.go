package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"chessboard/internal/domain/authority"
	"chessboard/internal/domain/board"
	apperrors "chessboard/internal/errors"
	"chessboard/microservices/rules"
)

type RulesStore interface {
	NewGame() board.Position
	Replay(path board.Path) (board.Position, error)
	CandidateMoves(pos board.Position, q authority.Query) ([]board.Move, error)
	CheckLegality(pos board.Position, move board.Move) (board.Verdict, error)
	ApplyMove(pos board.Position, move board.Move) (board.Position, error)
}

// RulesUseCase serves the authority gRPC service.
type RulesUseCase struct {
	store RulesStore
	log   *zap.SugaredLogger
}

func NewRulesUseCase(store RulesStore, log *zap.SugaredLogger) *RulesUseCase {
	return &RulesUseCase{
		store: store,
		log:   log,
	}
}

func (r *RulesUseCase) NewGame(ctx context.Context, _ *authority.NewGameRequest) (*authority.PositionResponse, error) {
	return &authority.PositionResponse{Position: r.store.NewGame()}, nil
}

func (r *RulesUseCase) Replay(ctx context.Context, in *authority.ReplayRequest) (*authority.PositionResponse, error) {
	pos, err := r.store.Replay(in.Path)
	if err != nil {
		return nil, r.statusOf("replay", err)
	}
	return &authority.PositionResponse{Position: pos}, nil
}

func (r *RulesUseCase) CandidateMoves(ctx context.Context, in *authority.MovesRequest) (*authority.MovesResponse, error) {
	moves, err := r.store.CandidateMoves(in.Position, authority.Query{Source: in.Source, Dest: in.Dest})
	if err != nil {
		return nil, r.statusOf("candidate moves", err)
	}
	if moves == nil {
		moves = []board.Move{}
	}
	return &authority.MovesResponse{Moves: moves}, nil
}

func (r *RulesUseCase) CheckLegality(ctx context.Context, in *authority.MoveRequest) (*board.Verdict, error) {
	verdict, err := r.store.CheckLegality(in.Position, in.Move())
	if err != nil {
		return nil, r.statusOf("check legality", err)
	}
	return &verdict, nil
}

func (r *RulesUseCase) ApplyMove(ctx context.Context, in *authority.MoveRequest) (*authority.PositionResponse, error) {
	pos, err := r.store.ApplyMove(in.Position, in.Move())
	if err != nil {
		return nil, r.statusOf("apply move", err)
	}
	return &authority.PositionResponse{Position: pos}, nil
}

// statusOf maps rules errors onto gRPC codes. Rejections carry the reason code as the message.
func (r *RulesUseCase) statusOf(op string, err error) error {
	reason, _ := apperrors.ReasonOf(err)
	switch {
	case errors.Is(err, apperrors.ErrReplayRejected):
		return status.Error(codes.Aborted, string(reason))
	case errors.Is(err, apperrors.ErrRuleRejection):
		return status.Error(codes.FailedPrecondition, string(reason))
	case errors.Is(err, rules.ErrInvalidPosition):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	r.log.Errorw("rules request failed", "op", op, "error", err)
	return status.Error(codes.Internal, apperrors.ErrInternal.Error())
}
