// Package transcript holds the conversation exchanged with the model during a
// single run. Entries are appended explicitly with their role; the role of an
// entry is never derived from its position.
package transcript

import (
	"errors"
	"fmt"
)

// Role tags the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrRoleOutOfOrder is returned when an append would break user/assistant alternation.
var ErrRoleOutOfOrder = errors.New("transcript role out of order")

// Entry is a single turn of the conversation.
type Entry struct {
	Role    Role
	Content string
}

// Transcript is an ordered sequence of entries that starts with a user entry
// and strictly alternates user, assistant, user, ...
// The zero value is an empty transcript ready for use.
type Transcript struct {
	entries []Entry
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// AppendUser adds a user entry. The transcript must be empty or end with an assistant entry.
func (t *Transcript) AppendUser(content string) error {
	return t.append(RoleUser, content)
}

// AppendAssistant adds an assistant entry. The transcript must end with a user entry.
func (t *Transcript) AppendAssistant(content string) error {
	return t.append(RoleAssistant, content)
}

func (t *Transcript) append(role Role, content string) error {
	if want := t.NextRole(); role != want {
		return fmt.Errorf("%w: got %s, want %s at entry %d", ErrRoleOutOfOrder, role, want, len(t.entries))
	}
	t.entries = append(t.entries, Entry{Role: role, Content: content})
	return nil
}

// NextRole returns the role the next appended entry must have.
func (t *Transcript) NextRole() Role {
	if len(t.entries) == 0 || t.entries[len(t.entries)-1].Role == RoleAssistant {
		return RoleUser
	}
	return RoleAssistant
}

// Entries returns a copy of the entries in order.
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Validate reports whether entries alternate strictly starting with a user entry.
// It is used on entries that did not come from a Transcript.
func Validate(entries []Entry) error {
	want := RoleUser
	for i, e := range entries {
		if e.Role != want {
			return fmt.Errorf("%w: got %s, want %s at entry %d", ErrRoleOutOfOrder, e.Role, want, i)
		}
		if want == RoleUser {
			want = RoleAssistant
		} else {
			want = RoleUser
		}
	}
	return nil
}
