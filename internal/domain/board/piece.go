package board

import (
	"encoding/json"
	"fmt"
)

type Color uint8

const (
	White Color = iota + 1
	Black
)

func ParseColor(s string) (Color, error) {
	switch s {
	case "white":
		return White, nil
	case "black":
		return Black, nil
	}
	return 0, fmt.Errorf("invalid color %q", s)
}

func (c Color) Valid() bool {
	return c == White || c == Black
}

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	}
	return fmt.Sprintf("Color(%d)", uint8(c))
}

func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid color %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

type PieceKind uint8

const (
	King PieceKind = iota + 1
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

func ParsePieceKind(s string) (PieceKind, error) {
	switch s {
	case "K":
		return King, nil
	case "Q":
		return Queen, nil
	case "R":
		return Rook, nil
	case "B":
		return Bishop, nil
	case "N":
		return Knight, nil
	case "P":
		return Pawn, nil
	}
	return 0, fmt.Errorf("invalid piece kind %q", s)
}

func (k PieceKind) Valid() bool {
	return k >= King && k <= Pawn
}

// Letter is the single-letter code used on the wire and in move codes.
func (k PieceKind) Letter() string {
	switch k {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	case Pawn:
		return "P"
	}
	return ""
}

func (k PieceKind) String() string {
	if l := k.Letter(); l != "" {
		return l
	}
	return fmt.Sprintf("PieceKind(%d)", uint8(k))
}

func (k PieceKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid piece kind %d", uint8(k))
	}
	return []byte(k.Letter()), nil
}

func (k *PieceKind) UnmarshalText(text []byte) error {
	parsed, err := ParsePieceKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Occupant is the piece standing on a square. On the wire it is a pair: ["white","P"].
type Occupant struct {
	Color Color
	Kind  PieceKind
}

func (o Occupant) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{o.Color, o.Kind})
}

func (o *Occupant) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("occupant: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("occupant: expected [color, piece], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &o.Color); err != nil {
		return fmt.Errorf("occupant color: %w", err)
	}
	if err := json.Unmarshal(pair[1], &o.Kind); err != nil {
		return fmt.Errorf("occupant piece: %w", err)
	}
	return nil
}
