package board

import (
	"context"

	"chessboard/internal/domain/board"
)

// load replays path, falling back to a new game when the path is empty or does not replay.
func (c *Controller) load(path board.Path) {
	c.st.epoch++
	c.st.ready = false
	c.st.leaveSelection()
	c.st.pending = nil
	c.st.errorMessage = ""
	c.publish()

	epoch := c.st.epoch
	if len(path) == 0 {
		c.newGame(epoch)
		return
	}
	async(c,
		func(ctx context.Context) (board.Position, error) {
			return c.authority.Replay(ctx, path)
		},
		func(pos board.Position, err error) {
			if c.stale(epoch, "replay") {
				return
			}
			if err != nil {
				c.log.Warnw("path does not replay, starting a new game", "path", path.String(), "error", err)
				c.st.errorMessage = c.messageFor(err)
				c.newGame(epoch)
				return
			}
			c.st.position = pos
			c.st.path = path
			c.st.ready = true
			c.publish()
		},
	)
}

func (c *Controller) newGame(epoch uint64) {
	async(c,
		func(ctx context.Context) (board.Position, error) {
			return c.authority.NewGame(ctx)
		},
		func(pos board.Position, err error) {
			if c.stale(epoch, "new game") {
				return
			}
			if err != nil {
				c.st.errorMessage = c.messageFor(err)
				c.publish()
				return
			}
			c.st.position = pos
			c.st.path = nil
			c.st.ready = true
			c.publish()
		},
	)
}

// undo steps back one ply locally. The path loses its last code only when the position changed.
func (c *Controller) undo() {
	if !c.st.ready {
		return
	}
	c.st.epoch++
	prev := c.st.position
	c.st.position = prev.Rewind()
	if len(prev.History) > 0 {
		c.st.path = c.st.path.Trim()
	}
	c.st.leaveSelection()
	c.st.pending = nil
	c.st.errorMessage = ""
	c.publish()
}
