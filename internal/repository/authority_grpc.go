package repo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"chessboard/internal/bootstrap"
	"chessboard/internal/domain/authority"
	"chessboard/internal/domain/board"
	apperrors "chessboard/internal/errors"
	"chessboard/microservices/rpc"
)

// AuthorityGRPCRepository is the gRPC counterpart of AuthorityHTTPRepository.
type AuthorityGRPCRepository struct {
	log     *zap.SugaredLogger
	timeout time.Duration
	client  *rpc.RulesClient
}

func NewAuthorityGRPCRepository(cfg *bootstrap.Config, log *zap.SugaredLogger, client *rpc.RulesClient) *AuthorityGRPCRepository {
	return &AuthorityGRPCRepository{
		log:     log,
		timeout: cfg.AuthorityTimeout,
		client:  client,
	}
}

func (a *AuthorityGRPCRepository) NewGame(ctx context.Context) (board.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.NewGame(ctx, &authority.NewGameRequest{})
	if err != nil {
		return board.Position{}, a.mapError("new game", err)
	}
	return resp.Position, nil
}

func (a *AuthorityGRPCRepository) Replay(ctx context.Context, path board.Path) (board.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.Replay(ctx, &authority.ReplayRequest{Path: path})
	if err != nil {
		return board.Position{}, a.mapError("replay", err)
	}
	return resp.Position, nil
}

func (a *AuthorityGRPCRepository) CandidateMoves(ctx context.Context, pos board.Position, q authority.Query) ([]board.Move, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("candidate moves %s: %w", q, apperrors.ErrInvariantViolation)
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CandidateMoves(ctx, &authority.MovesRequest{Position: pos, Source: q.Source, Dest: q.Dest})
	if err != nil {
		return nil, a.mapError("candidate moves", err)
	}
	return resp.Moves, nil
}

func (a *AuthorityGRPCRepository) CheckLegality(ctx context.Context, pos board.Position, move board.Move) (board.Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := authority.NewMoveRequest(pos, move)
	resp, err := a.client.CheckLegality(ctx, &req)
	if err != nil {
		return board.Verdict{}, a.mapError("check legality", err)
	}
	return *resp, nil
}

func (a *AuthorityGRPCRepository) ApplyMove(ctx context.Context, pos board.Position, move board.Move) (board.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := authority.NewMoveRequest(pos, move)
	resp, err := a.client.ApplyMove(ctx, &req)
	if err != nil {
		return board.Position{}, a.mapError("apply move", err)
	}
	return resp.Position, nil
}

func (a *AuthorityGRPCRepository) mapError(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return transportError(op, err)
	}
	switch st.Code() {
	case codes.FailedPrecondition:
		a.log.Debugw("authority rejected request", "op", op, "reason", st.Message())
		return apperrors.NewRuleRejection(board.Reason(st.Message()))
	case codes.Aborted:
		a.log.Debugw("authority rejected replay", "op", op, "reason", st.Message())
		return apperrors.NewReplayRejection(board.Reason(st.Message()))
	}
	return transportError(op, err)
}
