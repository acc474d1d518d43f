package board

// BoardMap holds occupied squares only; an absent key is an empty square.
type BoardMap map[Location]Occupant

func (m BoardMap) At(loc Location) (Occupant, bool) {
	occ, ok := m[loc]
	return occ, ok
}

func (m BoardMap) Clone() BoardMap {
	out := make(BoardMap, len(m))
	for loc, occ := range m {
		out[loc] = occ
	}
	return out
}

func (m BoardMap) Equal(other BoardMap) bool {
	if len(m) != len(other) {
		return false
	}
	for loc, occ := range m {
		if o, ok := other[loc]; !ok || o != occ {
			return false
		}
	}
	return true
}

// Position is a board snapshot plus its ancestors, newest first.
// History entries are stored without their own history; Rewind rebuilds it from the tail.
// Positions are treated as immutable: transitions build new values and never write into Map.
type Position struct {
	Map     BoardMap   `json:"map"`
	ToMove  Color      `json:"toMove"`
	History []Position `json:"history,omitempty"`
}

// Frame drops the ancestor chain.
func (p Position) Frame() Position {
	return Position{Map: p.Map, ToMove: p.ToMove}
}

// Rewind steps back one ply. With no history it returns p unchanged.
func (p Position) Rewind() Position {
	if len(p.History) == 0 {
		return p
	}
	prev := p.History[0].Frame()
	if len(p.History) > 1 {
		prev.History = p.History[1:]
	}
	return prev
}

// Advance returns next with its history set to p followed by p's history.
// Whatever history next carried is replaced.
func (p Position) Advance(next Position) Position {
	history := make([]Position, 0, len(p.History)+1)
	history = append(history, p.Frame())
	for _, h := range p.History {
		history = append(history, h.Frame())
	}
	next.History = history
	return next
}

// Equal compares the board and side to move, ignoring history.
func (p Position) Equal(other Position) bool {
	return p.ToMove == other.ToMove && p.Map.Equal(other.Map)
}

// EqualHistory reports whether both positions have the same ancestors in the same order.
func (p Position) EqualHistory(other Position) bool {
	if len(p.History) != len(other.History) {
		return false
	}
	for i := range p.History {
		if !p.History[i].Equal(other.History[i]) {
			return false
		}
	}
	return true
}

// StandardSetup is the initial chess position with white to move.
func StandardSetup() Position {
	back := []PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	m := make(BoardMap, 32)
	for file, kind := range back {
		m[Location{File: uint8(file), Rank: 0}] = Occupant{Color: White, Kind: kind}
		m[Location{File: uint8(file), Rank: 1}] = Occupant{Color: White, Kind: Pawn}
		m[Location{File: uint8(file), Rank: 6}] = Occupant{Color: Black, Kind: Pawn}
		m[Location{File: uint8(file), Rank: 7}] = Occupant{Color: Black, Kind: kind}
	}
	return Position{Map: m, ToMove: White}
}
