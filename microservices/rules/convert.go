package rules

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"chessboard/internal/domain/board"
)

func locationOf(sq chess.Square) board.Location {
	return board.Location{File: uint8(sq.File()), Rank: uint8(sq.Rank())}
}

func kindOf(t chess.PieceType) (board.PieceKind, bool) {
	switch t {
	case chess.King:
		return board.King, true
	case chess.Queen:
		return board.Queen, true
	case chess.Rook:
		return board.Rook, true
	case chess.Bishop:
		return board.Bishop, true
	case chess.Knight:
		return board.Knight, true
	case chess.Pawn:
		return board.Pawn, true
	}
	return 0, false
}

func pieceTypeOf(k board.PieceKind) chess.PieceType {
	switch k {
	case board.King:
		return chess.King
	case board.Queen:
		return chess.Queen
	case board.Rook:
		return chess.Rook
	case board.Bishop:
		return chess.Bishop
	case board.Knight:
		return chess.Knight
	case board.Pawn:
		return chess.Pawn
	}
	return chess.NoPieceType
}

func colorOf(c chess.Color) (board.Color, bool) {
	switch c {
	case chess.White:
		return board.White, true
	case chess.Black:
		return board.Black, true
	}
	return 0, false
}

func occupantOf(p chess.Piece) (board.Occupant, bool) {
	color, ok := colorOf(p.Color())
	if !ok {
		return board.Occupant{}, false
	}
	kind, ok := kindOf(p.Type())
	if !ok {
		return board.Occupant{}, false
	}
	return board.Occupant{Color: color, Kind: kind}, true
}

// positionOf reads the board and side to move out of a game. History is left empty.
func positionOf(game *chess.Game) board.Position {
	pos := game.Position()
	m := make(board.BoardMap, 32)
	for sq, piece := range pos.Board().SquareMap() {
		if occ, ok := occupantOf(piece); ok {
			m[locationOf(sq)] = occ
		}
	}
	turn, ok := colorOf(pos.Turn())
	if !ok {
		turn = board.White
	}
	return board.Position{Map: m, ToMove: turn}
}

// gameOf loads pos into a notnil game. Castling rights and the en passant square are not part of
// the board map, so they are recovered from the position's history.
func gameOf(pos board.Position) (*chess.Game, error) {
	if err := validate(pos); err != nil {
		return nil, err
	}
	opt, err := chess.FEN(fenOf(pos))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return chess.NewGame(opt), nil
}

func validate(pos board.Position) error {
	if !pos.ToMove.Valid() {
		return fmt.Errorf("%w: side to move is not set", ErrInvalidPosition)
	}
	kings := map[board.Color]int{}
	for loc, occ := range pos.Map {
		if !loc.Valid() || !occ.Color.Valid() || !occ.Kind.Valid() {
			return fmt.Errorf("%w: bad square %v", ErrInvalidPosition, loc)
		}
		if occ.Kind == board.King {
			kings[occ.Color]++
		}
		if occ.Kind == board.Pawn && (loc.Rank == 0 || loc.Rank == 7) {
			return fmt.Errorf("%w: pawn on back rank %s", ErrInvalidPosition, loc)
		}
	}
	if kings[board.White] != 1 || kings[board.Black] != 1 {
		return fmt.Errorf("%w: each side needs exactly one king", ErrInvalidPosition)
	}
	return nil
}

func fenOf(pos board.Position) string {
	var b strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			occ, ok := pos.Map[board.Location{File: uint8(file), Rank: uint8(rank)}]
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				fmt.Fprintf(&b, "%d", empty)
				empty = 0
			}
			letter := occ.Kind.Letter()
			if occ.Color == board.Black {
				letter = strings.ToLower(letter)
			}
			b.WriteString(letter)
		}
		if empty > 0 {
			fmt.Fprintf(&b, "%d", empty)
		}
		if rank > 0 {
			b.WriteByte('/')
		}
	}

	turn := "w"
	if pos.ToMove == board.Black {
		turn = "b"
	}
	fmt.Fprintf(&b, " %s %s %s 0 1", turn, castlingRights(pos), enPassantTarget(pos))
	return b.String()
}

type castleRight struct {
	symbol string
	king   board.Location
	rook   board.Location
	color  board.Color
}

var castleRights = []castleRight{
	{"K", board.MustLocation("e1"), board.MustLocation("h1"), board.White},
	{"Q", board.MustLocation("e1"), board.MustLocation("a1"), board.White},
	{"k", board.MustLocation("e8"), board.MustLocation("h8"), board.Black},
	{"q", board.MustLocation("e8"), board.MustLocation("a8"), board.Black},
}

// castlingRights keeps a right while king and rook have stood on their home squares in the
// current position and every ancestor.
func castlingRights(pos board.Position) string {
	frames := append([]board.Position{pos}, pos.History...)
	var rights strings.Builder
	for _, cr := range castleRights {
		ok := true
		for _, f := range frames {
			if f.Map[cr.king] != (board.Occupant{Color: cr.color, Kind: board.King}) ||
				f.Map[cr.rook] != (board.Occupant{Color: cr.color, Kind: board.Rook}) {
				ok = false
				break
			}
		}
		if ok {
			rights.WriteString(cr.symbol)
		}
	}
	if rights.Len() == 0 {
		return "-"
	}
	return rights.String()
}

// enPassantTarget detects a double pawn push between the previous frame and pos.
func enPassantTarget(pos board.Position) string {
	if len(pos.History) == 0 {
		return "-"
	}
	prev := pos.History[0]
	mover := pos.ToMove.Opposite()
	from, mid, to := uint8(1), uint8(2), uint8(3)
	if mover == board.Black {
		from, mid, to = 6, 5, 4
	}
	pawn := board.Occupant{Color: mover, Kind: board.Pawn}
	for file := uint8(0); file < 8; file++ {
		src := board.Location{File: file, Rank: from}
		over := board.Location{File: file, Rank: mid}
		dst := board.Location{File: file, Rank: to}

		if prev.Map[src] != pawn || pos.Map[dst] != pawn {
			continue
		}
		if _, ok := prev.Map[dst]; ok {
			continue
		}
		if _, ok := prev.Map[over]; ok {
			continue
		}
		if _, ok := pos.Map[src]; ok {
			continue
		}
		return over.String()
	}
	return "-"
}
