package board

import (
	"fmt"
	"strings"
)

// MoveCode is one entry of a persisted path: piece letter (none for pawns), source, dest and
// an optional "=X" promotion suffix. Examples: "e2e4", "Ng1f3", "e7e8=Q".
type MoveCode string

func NewMoveCode(kind PieceKind, move Move) MoveCode {
	var b strings.Builder
	if kind != Pawn {
		b.WriteString(kind.Letter())
	}
	b.WriteString(move.Source.String())
	b.WriteString(move.Dest.String())
	if move.Promote != nil {
		b.WriteString("=")
		b.WriteString(move.Promote.Letter())
	}
	return MoveCode(b.String())
}

// Parse splits the code into the moving piece kind and the move.
func (c MoveCode) Parse() (PieceKind, Move, error) {
	s := string(c)
	kind := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		k, err := ParsePieceKind(s[:1])
		if err != nil || k == Pawn {
			return 0, Move{}, fmt.Errorf("invalid move code %q", s)
		}
		kind = k
		s = s[1:]
	}
	if len(s) != 4 && len(s) != 6 {
		return 0, Move{}, fmt.Errorf("invalid move code %q", string(c))
	}
	src, err := ParseLocation(s[0:2])
	if err != nil {
		return 0, Move{}, fmt.Errorf("invalid move code %q: %w", string(c), err)
	}
	dst, err := ParseLocation(s[2:4])
	if err != nil {
		return 0, Move{}, fmt.Errorf("invalid move code %q: %w", string(c), err)
	}
	move := Move{Source: src, Dest: dst}
	if len(s) == 6 {
		if s[4] != '=' {
			return 0, Move{}, fmt.Errorf("invalid move code %q", string(c))
		}
		promo, err := ParsePieceKind(s[5:6])
		if err != nil {
			return 0, Move{}, fmt.Errorf("invalid move code %q: %w", string(c), err)
		}
		move = move.WithPromotion(promo)
	}
	return kind, move, nil
}

// Path is the shareable list of move codes leading from the initial setup to a position.
type Path []MoveCode

// ParsePath reads the "/"-joined form. A leading "#" or "/" is ignored, empty segments are skipped.
func ParsePath(s string) (Path, error) {
	s = strings.TrimPrefix(s, "#")
	var path Path
	for _, seg := range strings.Split(s, "/") {
		if seg == "" {
			continue
		}
		code := MoveCode(seg)
		if _, _, err := code.Parse(); err != nil {
			return nil, err
		}
		path = append(path, code)
	}
	return path, nil
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = string(c)
	}
	return strings.Join(parts, "/")
}

func (p Path) Append(code MoveCode) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, code)
}

// Trim drops the last entry. An empty path stays empty.
func (p Path) Trim() Path {
	if len(p) == 0 {
		return p
	}
	out := make(Path, len(p)-1)
	copy(out, p)
	return out
}

func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}
