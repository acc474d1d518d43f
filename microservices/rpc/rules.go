// Package rpc declares the rules authority gRPC service. Messages are the JSON wire types from
// internal/domain/authority carried by a JSON codec, so no generated code is involved.
package rpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"

	"chessboard/internal/domain/authority"
	"chessboard/internal/domain/board"
)

const ServiceName = "authority.Rules"

const (
	NewGameMethod        = "/" + ServiceName + "/NewGame"
	ReplayMethod         = "/" + ServiceName + "/Replay"
	CandidateMovesMethod = "/" + ServiceName + "/CandidateMoves"
	CheckLegalityMethod  = "/" + ServiceName + "/CheckLegality"
	ApplyMoveMethod      = "/" + ServiceName + "/ApplyMove"
)

// Codec marshals messages as JSON.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (Codec) Name() string {
	return "json"
}

type RulesServer interface {
	NewGame(context.Context, *authority.NewGameRequest) (*authority.PositionResponse, error)
	Replay(context.Context, *authority.ReplayRequest) (*authority.PositionResponse, error)
	CandidateMoves(context.Context, *authority.MovesRequest) (*authority.MovesResponse, error)
	CheckLegality(context.Context, *authority.MoveRequest) (*board.Verdict, error)
	ApplyMove(context.Context, *authority.MoveRequest) (*authority.PositionResponse, error)
}

func RegisterRulesServer(s grpc.ServiceRegistrar, srv RulesServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// NewServer builds a grpc.Server that speaks the JSON codec.
func NewServer(opts ...grpc.ServerOption) *grpc.Server {
	return grpc.NewServer(append([]grpc.ServerOption{grpc.ForceServerCodec(Codec{})}, opts...)...)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RulesServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "NewGame", Handler: unary(NewGameMethod, RulesServer.NewGame)},
		{MethodName: "Replay", Handler: unary(ReplayMethod, RulesServer.Replay)},
		{MethodName: "CandidateMoves", Handler: unary(CandidateMovesMethod, RulesServer.CandidateMoves)},
		{MethodName: "CheckLegality", Handler: unary(CheckLegalityMethod, RulesServer.CheckLegality)},
		{MethodName: "ApplyMove", Handler: unary(ApplyMoveMethod, RulesServer.ApplyMove)},
	},
	Streams: []grpc.StreamDesc{},
}

func unary[Req, Resp any](fullMethod string, call func(RulesServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RulesServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RulesServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type RulesClient struct {
	cc grpc.ClientConnInterface
}

func NewRulesClient(cc grpc.ClientConnInterface) *RulesClient {
	return &RulesClient{cc: cc}
}

func (c *RulesClient) NewGame(ctx context.Context, in *authority.NewGameRequest, opts ...grpc.CallOption) (*authority.PositionResponse, error) {
	out := new(authority.PositionResponse)
	if err := c.invoke(ctx, NewGameMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RulesClient) Replay(ctx context.Context, in *authority.ReplayRequest, opts ...grpc.CallOption) (*authority.PositionResponse, error) {
	out := new(authority.PositionResponse)
	if err := c.invoke(ctx, ReplayMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RulesClient) CandidateMoves(ctx context.Context, in *authority.MovesRequest, opts ...grpc.CallOption) (*authority.MovesResponse, error) {
	out := new(authority.MovesResponse)
	if err := c.invoke(ctx, CandidateMovesMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RulesClient) CheckLegality(ctx context.Context, in *authority.MoveRequest, opts ...grpc.CallOption) (*board.Verdict, error) {
	out := new(board.Verdict)
	if err := c.invoke(ctx, CheckLegalityMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RulesClient) ApplyMove(ctx context.Context, in *authority.MoveRequest, opts ...grpc.CallOption) (*authority.PositionResponse, error) {
	out := new(authority.PositionResponse)
	if err := c.invoke(ctx, ApplyMoveMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RulesClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}
