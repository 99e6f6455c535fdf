package builtin

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/h9-tec/AI-agent-explained/pkg/tools/toolbox"
)

const notePreview = 50

// Note is a saved note.
type Note struct {
	Content string
	SavedAt time.Time
}

// Notes is an in-memory note pad shared by the save_note and list_notes
// tools. It is safe for concurrent use.
type Notes struct {
	mu    sync.Mutex
	clock func() time.Time
	notes []Note
}

// NewNotes creates an empty note pad. A nil clock means time.Now.
func NewNotes(clock func() time.Time) *Notes {
	if clock == nil {
		clock = time.Now
	}
	return &Notes{clock: clock}
}

// Save records content and returns the stored note.
func (n *Notes) Save(content string) Note {
	n.mu.Lock()
	defer n.mu.Unlock()

	note := Note{Content: content, SavedAt: n.clock()}
	n.notes = append(n.notes, note)
	return note
}

// List returns a copy of all notes, oldest first.
func (n *Notes) List() []Note {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Note, len(n.notes))
	copy(out, n.notes)
	return out
}

// Len returns the number of saved notes.
func (n *Notes) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.notes)
}

type saveNoteInput struct {
	Content string `tool:"content" desc:"Text of the note"`
}

// Tools returns save_note and list_notes bound to this note pad.
func (n *Notes) Tools() []toolbox.Tool {
	save := toolbox.MustFromFunc("save_note", "Save a note to memory.",
		func(_ context.Context, in saveNoteInput) (string, error) {
			n.Save(in.Content)
			return fmt.Sprintf("Note saved: '%s'", preview(in.Content)), nil
		})

	list := toolbox.MustFromFunc("list_notes", "List all notes saved so far.",
		func(_ context.Context, _ noInput) (string, error) {
			notes := n.List()
			if len(notes) == 0 {
				return "No notes saved.", nil
			}

			var b strings.Builder
			for i, note := range notes {
				if i > 0 {
					b.WriteByte('\n')
				}
				fmt.Fprintf(&b, "%d. [%s] %s", i+1, note.SavedAt.Format(TimeLayout), note.Content)
			}
			return b.String(), nil
		})

	return []toolbox.Tool{save, list}
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= notePreview {
		return s
	}
	return string(r[:notePreview]) + "..."
}
