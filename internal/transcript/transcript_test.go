package transcript

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptAlternation(t *testing.T) {
	t.Run("empty transcript expects user", func(t *testing.T) {
		tr := New()
		assert.Equal(t, RoleUser, tr.NextRole())
		assert.Equal(t, 0, tr.Len())
	})

	t.Run("alternates for any length", func(t *testing.T) {
		for n := 1; n <= 25; n++ {
			tr := New()
			for i := 0; i < n; i++ {
				var err error
				if i%2 == 0 {
					err = tr.AppendUser(fmt.Sprintf("u%d", i))
				} else {
					err = tr.AppendAssistant(fmt.Sprintf("a%d", i))
				}
				require.NoError(t, err)
			}

			entries := tr.Entries()
			require.Len(t, entries, n)
			for i, e := range entries {
				if i%2 == 0 {
					assert.Equal(t, RoleUser, e.Role, "entry %d", i)
				} else {
					assert.Equal(t, RoleAssistant, e.Role, "entry %d", i)
				}
			}
			assert.NoError(t, Validate(entries))
		}
	})

	t.Run("rejects assistant first", func(t *testing.T) {
		tr := New()
		err := tr.AppendAssistant("hello")
		assert.ErrorIs(t, err, ErrRoleOutOfOrder)
		assert.Equal(t, 0, tr.Len())
	})

	t.Run("rejects doubled user entry", func(t *testing.T) {
		tr := New()
		require.NoError(t, tr.AppendUser("one"))
		err := tr.AppendUser("two")
		assert.ErrorIs(t, err, ErrRoleOutOfOrder)
		assert.Equal(t, 1, tr.Len())
	})

	t.Run("rejects doubled assistant entry", func(t *testing.T) {
		var tr Transcript
		require.NoError(t, tr.AppendUser("one"))
		require.NoError(t, tr.AppendAssistant("two"))
		assert.ErrorIs(t, tr.AppendAssistant("three"), ErrRoleOutOfOrder)
		entries := tr.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, Entry{Role: RoleAssistant, Content: "two"}, entries[1])
	})

	t.Run("entries returns a copy", func(t *testing.T) {
		tr := New()
		require.NoError(t, tr.AppendUser("original"))
		entries := tr.Entries()
		entries[0].Content = "changed"
		assert.Equal(t, "original", tr.Entries()[0].Content)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantErr bool
	}{
		{"empty", nil, false},
		{"single user", []Entry{{RoleUser, "a"}}, false},
		{"user assistant user", []Entry{{RoleUser, "a"}, {RoleAssistant, "b"}, {RoleUser, "c"}}, false},
		{"starts with assistant", []Entry{{RoleAssistant, "a"}}, true},
		{"two users", []Entry{{RoleUser, "a"}, {RoleUser, "b"}}, true},
		{"unknown role", []Entry{{RoleUser, "a"}, {Role("tool"), "b"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.entries)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrRoleOutOfOrder)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
