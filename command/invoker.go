package command

import (
	"errors"
	"time"

	"github.com/google/uuid"

	. "github.com/elijahnyp/home_commander/util"
)

var (
	ErrNothingToUndo    = errors.New("nothing to undo")
	ErrInvalidUndoCount = errors.New("undo count must be positive")
)

// Entry is a read-only view of one executed command still on the stack.
type Entry struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Executed    time.Time `json:"executed"`
}

type undoEntry struct {
	id       string
	command  Command
	executed time.Time
}

// Invoker executes commands and keeps them on a LIFO stack until undone.
// It is not safe for concurrent use; callers serialize access.
type Invoker struct {
	history []*undoEntry
}

func NewInvoker() *Invoker {
	return &Invoker{}
}

// Execute runs c and pushes it onto the history.
func (inv *Invoker) Execute(c Command) {
	c.Execute()
	inv.history = append(inv.history, &undoEntry{
		id:       uuid.NewString(),
		command:  c,
		executed: time.Now(),
	})
	Logger.Debug().Msgf("executed %q, history depth %d", c.Description(), len(inv.history))
}

// UndoOne reverts the most recent command. An empty history returns
// ErrNothingToUndo and changes nothing.
func (inv *Invoker) UndoOne() error {
	if len(inv.history) == 0 {
		Logger.Info().Msg("Nothing to undo")
		return ErrNothingToUndo
	}
	inv.undoLast()
	return nil
}

func (inv *Invoker) undoLast() {
	last := inv.history[len(inv.history)-1]
	inv.history[len(inv.history)-1] = nil
	inv.history = inv.history[:len(inv.history)-1]
	last.command.Undo()
	Logger.Debug().Msgf("undid %q, history depth %d", last.command.Description(), len(inv.history))
}

// UndoMany reverts up to n commands, most recent first, and returns how many
// were undone. Running out of history stops early and is not an error.
func (inv *Invoker) UndoMany(n int) (int, error) {
	if n <= 0 {
		Logger.Warn().Msgf("invalid undo count %d", n)
		return 0, ErrInvalidUndoCount
	}
	undone := 0
	for ; undone < n && len(inv.history) > 0; undone++ {
		inv.undoLast()
	}
	if undone < n {
		Logger.Info().Msgf("No more commands to undo (%d of %d)", undone, n)
	}
	return undone, nil
}

func (inv *Invoker) HistorySize() int {
	return len(inv.history)
}

// History lists the pending entries, most recent first.
func (inv *Invoker) History() []Entry {
	out := make([]Entry, 0, len(inv.history))
	for i := len(inv.history) - 1; i >= 0; i-- {
		e := inv.history[i]
		out = append(out, Entry{ID: e.id, Description: e.command.Description(), Executed: e.executed})
	}
	return out
}
