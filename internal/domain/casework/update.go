package casework

import (
	"strings"

	"github.com/garyjia/benefit-casework/internal/domain/workflow"
)

// UpdateLetterNote replaces the free-text note included in the decision
// letter. The case stays in its state and nothing is added to the history.
func UpdateLetterNote(c Case, note string) (Case, error) {
	common, ok := editable(c)
	if !ok {
		return nil, invalidTransition(c, workflow.ActionUpdateLetterNote)
	}
	common.LetterNote = strings.TrimSpace(note)
	return replaceCommon("UpdateLetterNote", c, common)
}

// UpdateTask points the case at a new task in the task system
func UpdateTask(c Case, taskID string) (Case, error) {
	if IsTerminal(c) {
		return nil, invalidTransition(c, workflow.ActionUpdateTask)
	}
	common := c.Info()
	common.TaskID = taskID
	return replaceCommon("UpdateTask", c, common)
}

func replaceCommon(op string, c Case, common Common) (Case, error) {
	out, ok := withCommon(c, common)
	if !ok {
		return nil, invariant(common.ID, op, "unhandled variant %T", c)
	}
	return build(op, out)
}
