package workspace

import (
	"errors"
	"fmt"

	"github.com/roach88/marginalia/internal/annotation"
	"github.com/roach88/marginalia/internal/bundle"
	"github.com/roach88/marginalia/internal/interaction"
	"github.com/roach88/marginalia/internal/search"
)

// ErrUnknownID reports an intent that names an annotation the
// workspace no longer holds.
var ErrUnknownID = errors.New("unknown annotation id")

// ApplyIntent applies one controller intent.
//
// The intent's Span is the target range for reassignment and memo
// creation; the controller stamps the hovered marker's span, and a
// surface with a live text selection substitutes it before applying.
// OpenMemo and Seek mutate nothing here; they are directions to the
// surface, not to the state.
func (w *Workspace) ApplyIntent(it interaction.Intent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch it.Type {
	case interaction.IntentToggleCode:
		if it.Active {
			w.view.ActiveCode = it.ID
		} else if w.view.ActiveCode == it.ID {
			w.view.ActiveCode = ""
		}
		return nil

	case interaction.IntentToggleMemo:
		if it.Active {
			w.view.ActiveMemo = it.ID
		} else if w.view.ActiveMemo == it.ID {
			w.view.ActiveMemo = ""
		}
		return nil

	case interaction.IntentReassignCode:
		for i := range w.codes {
			if w.codes[i].ID == it.ID {
				w.codes[i].Span = it.Span
				return nil
			}
		}
		return fmt.Errorf("reassign %q: %w", it.ID, ErrUnknownID)

	case interaction.IntentCreateMemo:
		// The memo starts empty; whichever surface applied the intent
		// owns the follow-up edit.
		w.memos = append(w.memos, annotation.Memo{
			ID:   w.ids.Generate(),
			Span: it.Span,
		})
		return nil

	case interaction.IntentDeleteSpan:
		return w.deleteLocked(it.ID)

	case interaction.IntentOpenMemo, interaction.IntentSeek:
		return nil

	default:
		return fmt.Errorf("unhandled intent type %v", it.Type)
	}
}

// deleteLocked removes the annotation with the given id from whichever
// collection holds it, clearing the active selection if it pointed at
// the removed annotation.
func (w *Workspace) deleteLocked(id string) error {
	for i := range w.codes {
		if w.codes[i].ID == id {
			w.codes = append(w.codes[:i], w.codes[i+1:]...)
			if w.view.ActiveCode == id {
				w.view.ActiveCode = ""
			}
			return nil
		}
	}
	for i := range w.highlights {
		if w.highlights[i].ID == id {
			w.highlights = append(w.highlights[:i], w.highlights[i+1:]...)
			return nil
		}
	}
	for i := range w.memos {
		if w.memos[i].ID == id {
			w.memos = append(w.memos[:i], w.memos[i+1:]...)
			if w.view.ActiveMemo == id {
				w.view.ActiveMemo = ""
			}
			return nil
		}
	}
	return fmt.Errorf("delete %q: %w", id, ErrUnknownID)
}

// SetQuery replaces the search query and regenerates matches. The
// cursor clamps to the new match list; an empty query clears it.
func (w *Workspace) SetQuery(query string, opts search.Options) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.query = query
	w.queryOpts = opts
	w.regenerateLocked()
}

// NextMatch advances the search cursor and returns the new index.
func (w *Workspace) NextMatch() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor.Next()
}

// PrevMatch steps the search cursor back and returns the new index.
func (w *Workspace) PrevMatch() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor.Prev()
}

// ToggleCodeColors flips the global code tint and returns the new
// state.
func (w *Workspace) ToggleCodeColors() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view.ShowCodeColors = !w.view.ShowCodeColors
	return w.view.ShowCodeColors
}

// Reload replaces the whole state from a re-read bundle, keeping the
// current query alive against the new text.
func (w *Workspace) Reload(b *bundle.Bundle) {
	w.mu.Lock()
	defer w.mu.Unlock()

	in := b.Collections()
	w.text = b.Text()
	w.codebook = b.Codebook
	w.codes = in.Codes
	w.highlights = in.Highlights
	w.memos = in.Memos
	w.view = b.View
	w.regenerateLocked()
}

// regenerateLocked recomputes matches for the current text and query.
// Call with the write lock held.
func (w *Workspace) regenerateLocked() {
	if w.query == "" {
		w.matches = nil
	} else {
		w.matches = search.Find(w.text, w.query, w.queryOpts)
	}
	w.cursor.SetMatches(w.matches)
}
