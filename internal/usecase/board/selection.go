package board

import (
	"context"

	"chessboard/internal/domain/authority"
	"chessboard/internal/domain/board"
)

func (c *Controller) click(loc board.Location) {
	if !c.st.ready || !loc.Valid() {
		return
	}
	if c.st.selected == nil {
		c.beginSelection(loc)
		return
	}
	c.endSelection(loc)
}

// beginSelection enters Selecting and asks for moves from and onto loc.
func (c *Controller) beginSelection(loc board.Location) {
	c.st.epoch++
	c.st.selected = &loc
	c.st.advisory = nil
	c.st.errorMessage = ""
	c.st.pending = nil
	c.publish()

	epoch, pos := c.st.epoch, c.st.position
	for _, q := range []authority.Query{authority.FromSource(loc), authority.ToDest(loc)} {
		q := q
		async(c,
			func(ctx context.Context) ([]board.Move, error) {
				return c.authority.CandidateMoves(ctx, pos, q)
			},
			func(moves []board.Move, err error) {
				c.onCandidates(epoch, pos, q, moves, err)
			},
		)
	}
}

func (c *Controller) onCandidates(epoch uint64, pos board.Position, q authority.Query, moves []board.Move, err error) {
	if c.stale(epoch, "candidate moves") {
		return
	}
	if err != nil {
		c.failSelection(err)
		return
	}
	for _, move := range moves {
		if move.Source == move.Dest {
			c.log.Debugw("skipping self move", "query", q.String(), "move", move.String())
			continue
		}
		if _, ok := pos.Map.At(move.Source); !ok {
			c.log.Warnw("skipping candidate from an empty square", "query", q.String(), "move", move.String())
			continue
		}
		move := move
		async(c,
			func(ctx context.Context) (board.AugmentedMove, error) {
				return Augment(ctx, c.authority, pos, move)
			},
			func(am board.AugmentedMove, err error) {
				c.onAdvisory(epoch, am, err)
			},
		)
	}
}

func (c *Controller) onAdvisory(epoch uint64, am board.AugmentedMove, err error) {
	if c.stale(epoch, "augmentation") || c.invariant(err) {
		return
	}
	if err != nil {
		c.failSelection(err)
		return
	}
	c.st.advisory = append(c.st.advisory, am)
	c.publish()
}

// failSelection forces Idle after a failed authority call so Selecting never hangs.
func (c *Controller) failSelection(err error) {
	c.st.epoch++
	c.st.leaveSelection()
	c.st.errorMessage = c.messageFor(err)
	c.publish()
}

// endSelection leaves Selecting right away and submits selected -> loc.
func (c *Controller) endSelection(loc board.Location) {
	source := *c.st.selected
	c.st.epoch++
	c.st.leaveSelection()

	if loc == source {
		c.publish()
		return
	}
	if _, ok := c.st.position.Map.At(source); !ok {
		c.st.errorMessage = string(board.ReasonNoPieceAtSource)
		c.publish()
		return
	}
	c.publish()
	c.submit(board.Move{Source: source, Dest: loc})
}

// submit augments move and applies it only when strictly legal.
func (c *Controller) submit(move board.Move) {
	epoch, pos := c.st.epoch, c.st.position
	async(c,
		func(ctx context.Context) (board.AugmentedMove, error) {
			return Augment(ctx, c.authority, pos, move)
		},
		func(am board.AugmentedMove, err error) {
			c.onSubmission(epoch, pos, move, am, err)
		},
	)
}

func (c *Controller) onSubmission(epoch uint64, pos board.Position, move board.Move, am board.AugmentedMove, err error) {
	if c.stale(epoch, "submission") || c.invariant(err) {
		return
	}
	if err != nil {
		c.st.errorMessage = c.messageFor(err)
		c.publish()
		return
	}
	if !am.IsStrictlyLegal {
		if am.InvalidReason == board.ReasonNeedsPromotion {
			c.st.pending = &move
		} else {
			c.st.errorMessage = string(am.InvalidReason)
		}
		c.publish()
		return
	}

	kind := am.SourceKind
	async(c,
		func(ctx context.Context) (board.Position, error) {
			return Advance(ctx, c.authority, pos, move)
		},
		func(next board.Position, err error) {
			c.onApplied(epoch, move, kind, next, err)
		},
	)
}

func (c *Controller) onApplied(epoch uint64, move board.Move, kind board.PieceKind, next board.Position, err error) {
	if c.stale(epoch, "apply") {
		return
	}
	if err != nil {
		c.st.errorMessage = c.messageFor(err)
		c.publish()
		return
	}
	c.st.position = next
	c.st.path = c.st.path.Append(board.NewMoveCode(kind, move))
	c.st.errorMessage = ""
	c.log.Debugw("move applied", "move", move.String(), "path", c.st.path.String())
	c.publish()
}

// promote resubmits the move that was refused for a missing promotion piece.
func (c *Controller) promote(kind board.PieceKind) {
	if c.st.pending == nil || c.st.selected != nil {
		return
	}
	move := c.st.pending.WithPromotion(kind)
	c.st.pending = nil
	c.st.epoch++
	c.st.errorMessage = ""
	c.publish()
	c.submit(move)
}

func (c *Controller) cancelPromotion() {
	if c.st.pending == nil {
		return
	}
	c.st.pending = nil
	c.publish()
}
