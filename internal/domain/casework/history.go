package casework

import (
	"time"

	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// Entry is one state-changing action in a case's history
type Entry struct {
	Actor  Actor           `json:"actor"`
	At     time.Time       `json:"at"`
	Action workflow.Action `json:"action"`
}

// History is the append-only log of actions taken on a case
type History []Entry

// with returns a new history with e appended; h is left untouched
func (h History) with(e Entry) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, e)
}

// Latest returns the most recent entry
func (h History) Latest() (Entry, bool) {
	if len(h) == 0 {
		return Entry{}, false
	}
	return h[len(h)-1], true
}
