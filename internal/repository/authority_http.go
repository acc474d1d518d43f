package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"chessboard/internal/bootstrap"
	"chessboard/internal/domain/authority"
	"chessboard/internal/domain/board"
	apperrors "chessboard/internal/errors"
	"chessboard/internal/httpresponse"
)

// AuthorityHTTPRepository talks to the rules authority's JSON endpoints.
type AuthorityHTTPRepository struct {
	log     *zap.SugaredLogger
	baseURL string
	timeout time.Duration
	client  *http.Client
}

func NewAuthorityHTTPRepository(cfg *bootstrap.Config, log *zap.SugaredLogger, client *http.Client) *AuthorityHTTPRepository {
	if client == nil {
		client = &http.Client{}
	}
	return &AuthorityHTTPRepository{
		log:     log,
		baseURL: strings.TrimRight(cfg.AuthorityUrl, "/"),
		timeout: cfg.AuthorityTimeout,
		client:  client,
	}
}

func (a *AuthorityHTTPRepository) NewGame(ctx context.Context) (board.Position, error) {
	var pos board.Position
	err := a.do(ctx, http.MethodGet, "/new-board", nil, &pos)
	return pos, err
}

func (a *AuthorityHTTPRepository) Replay(ctx context.Context, path board.Path) (board.Position, error) {
	codes := make([]board.MoveCode, len(path))
	copy(codes, path)
	var pos board.Position
	err := a.do(ctx, http.MethodPost, "/get-board-after", codes, &pos)
	return pos, err
}

func (a *AuthorityHTTPRepository) CandidateMoves(ctx context.Context, pos board.Position, q authority.Query) ([]board.Move, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("candidate moves %s: %w", q, apperrors.ErrInvariantViolation)
	}
	req := authority.MovesRequest{Position: pos, Source: q.Source, Dest: q.Dest}
	var moves []board.Move
	if err := a.do(ctx, http.MethodPost, "/get-moves", req, &moves); err != nil {
		return nil, err
	}
	return moves, nil
}

func (a *AuthorityHTTPRepository) CheckLegality(ctx context.Context, pos board.Position, move board.Move) (board.Verdict, error) {
	var verdict board.Verdict
	err := a.do(ctx, http.MethodPost, "/is-legal", authority.NewMoveRequest(pos, move), &verdict)
	return verdict, err
}

func (a *AuthorityHTTPRepository) ApplyMove(ctx context.Context, pos board.Position, move board.Move) (board.Position, error) {
	var next board.Position
	err := a.do(ctx, http.MethodPost, "/make-move", authority.NewMoveRequest(pos, move), &next)
	return next, err
}

func (a *AuthorityHTTPRepository) do(ctx context.Context, method, endpoint string, in any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		reqBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return transportError(endpoint, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnprocessableEntity, http.StatusConflict:
		var rejected httpresponse.Response[httpresponse.ErrorResponse]
		if err := json.NewDecoder(resp.Body).Decode(&rejected); err != nil {
			return transportError(endpoint, fmt.Errorf("failed to decode rejection: %w", err))
		}
		a.log.Debugw("authority rejected request", "endpoint", endpoint, "reason", rejected.Body.Reason)
		if resp.StatusCode == http.StatusConflict {
			return apperrors.NewReplayRejection(rejected.Body.Reason)
		}
		return apperrors.NewRuleRejection(rejected.Body.Reason)
	default:
		return transportError(endpoint, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	envelope := httpresponse.Response[json.RawMessage]{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return transportError(endpoint, fmt.Errorf("failed to decode response: %w", err))
	}
	if err := json.Unmarshal(envelope.Body, out); err != nil {
		return transportError(endpoint, fmt.Errorf("failed to decode response body: %w", err))
	}
	return nil
}

func transportError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrTransportFailure, err)
}
