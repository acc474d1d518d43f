package board

import (
	"fmt"
)

type Move struct {
	Source  Location   `json:"source"`
	Dest    Location   `json:"dest"`
	Promote *PieceKind `json:"promote,omitempty"`
}

func (m Move) WithPromotion(kind PieceKind) Move {
	m.Promote = &kind
	return m
}

func (m Move) Equal(other Move) bool {
	if m.Source != other.Source || m.Dest != other.Dest {
		return false
	}
	if m.Promote == nil || other.Promote == nil {
		return m.Promote == nil && other.Promote == nil
	}
	return *m.Promote == *other.Promote
}

func (m Move) String() string {
	s := m.Source.String() + m.Dest.String()
	if m.Promote != nil {
		s += "=" + m.Promote.Letter()
	}
	return s
}

// Reason is an authority rejection code. The empty Reason means no reason was given.
type Reason string

const (
	ReasonNone                   Reason = ""
	ReasonNoPieceAtSource        Reason = "NoPieceAtSource"
	ReasonNullMove               Reason = "NullMove"
	ReasonNotReachable           Reason = "NotReachable"
	ReasonCannotCaptureSameColor Reason = "CannotCaptureSameColor"
	ReasonWrongColorToMove       Reason = "WrongColorToMove"
	ReasonNeedsPromotion         Reason = "NeedsPromotion"
	ReasonInvalidPromotion       Reason = "InvalidPromotion"
	ReasonLeavesKingInCheck      Reason = "LeavesKingInCheck"
)

// PatternValid reports whether the reason still means the piece can reach the square by its
// movement rule and was refused only for turn order or a same-colour target.
func (r Reason) PatternValid() bool {
	return r == ReasonWrongColorToMove || r == ReasonCannotCaptureSameColor
}

// Verdict is the authority's answer to a legality check.
type Verdict struct {
	Success bool   `json:"success"`
	Reason  Reason `json:"reason,omitempty"`
}

type AugmentedMove struct {
	Move

	SourceColor Color      `json:"sourceColor"`
	SourceKind  PieceKind  `json:"sourcePiece"`
	DestColor   *Color     `json:"destColor,omitempty"`
	DestKind    *PieceKind `json:"destPiece,omitempty"`

	IsOpen          bool   `json:"isOpen"`
	IsAttack        bool   `json:"isAttack"`
	IsDefense       bool   `json:"isDefense"`
	IsStrictlyLegal bool   `json:"isStrictlyLegal"`
	IsLegal         bool   `json:"isLegal"`
	InvalidReason   Reason `json:"invalidReason,omitempty"`
}

// ErrEmptySource is returned by Augment when the move's source square holds no piece.
type ErrEmptySource struct {
	Move Move
}

func (e ErrEmptySource) Error() string {
	return fmt.Sprintf("augment %s: source square %s is empty", e.Move, e.Move.Source)
}

// Augment classifies move against pos using the authority's verdict.
func Augment(pos Position, move Move, verdict Verdict) (AugmentedMove, error) {
	src, ok := pos.Map.At(move.Source)
	if !ok {
		return AugmentedMove{}, ErrEmptySource{Move: move}
	}

	am := AugmentedMove{
		Move:        move,
		SourceColor: src.Color,
		SourceKind:  src.Kind,
	}

	dst, occupied := pos.Map.At(move.Dest)
	switch {
	case !occupied:
		am.IsOpen = true
	case dst.Color == src.Color:
		am.IsDefense = true
	default:
		am.IsAttack = true
	}
	if occupied {
		color, kind := dst.Color, dst.Kind
		am.DestColor = &color
		am.DestKind = &kind
	}

	am.IsStrictlyLegal = verdict.Success
	am.IsLegal = verdict.Success || verdict.Reason.PatternValid()
	if !verdict.Success {
		am.InvalidReason = verdict.Reason
	}
	return am, nil
}

type MoveKind string

const (
	MoveOpen    MoveKind = "open"
	MoveAttack  MoveKind = "attack"
	MoveDefense MoveKind = "defense"
)

type Emphasis string

const (
	EmphasisLegal Emphasis = "legal"
	EmphasisFaint Emphasis = "faint"
)

// Display is what a renderer needs to draw an advisory move.
type Display struct {
	Kind     MoveKind `json:"kind"`
	Emphasis Emphasis `json:"emphasis"`
}

func (am AugmentedMove) Display() Display {
	d := Display{Kind: MoveOpen, Emphasis: EmphasisFaint}
	switch {
	case am.IsAttack:
		d.Kind = MoveAttack
	case am.IsDefense:
		d.Kind = MoveDefense
	}
	if am.IsLegal {
		d.Emphasis = EmphasisLegal
	}
	return d
}
