package activationkey

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultNote is stored when a key is created without a description.
const DefaultNote = "None"

var notePolicy = bluemonday.StrictPolicy()

// ScrubNote strips markup from a free-text note, falling back to
// DefaultNote when nothing is left.
func ScrubNote(note string) string {
	if strings.TrimSpace(note) == "" {
		return DefaultNote
	}
	scrubbed := strings.TrimSpace(notePolicy.Sanitize(note))
	if scrubbed == "" {
		return DefaultNote
	}
	return scrubbed
}
