package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpener_Command(t *testing.T) {
	tests := []struct {
		name      string
		preferred string
		visual    string
		editor    string
		want      []string
	}{
		{
			name:      "preferred wins",
			preferred: "code --wait",
			editor:    "vim",
			want:      []string{"code", "--wait", "/wiki/Paris.md"},
		},
		{
			name:   "visual before editor",
			visual: "emacs -nw",
			editor: "vim",
			want:   []string{"emacs", "-nw", "/wiki/Paris.md"},
		},
		{
			name:   "editor",
			editor: "hx",
			want:   []string{"hx", "/wiki/Paris.md"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VISUAL", tt.visual)
			t.Setenv("EDITOR", tt.editor)

			cmd, err := NewOpener(tt.preferred).Command("/wiki/Paris.md")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd.Args)
		})
	}
}

func TestOpener_Fallback(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")

	o := NewOpener("")
	o.lookPath = func(name string) (string, error) {
		if name == "nano" {
			return "/usr/bin/nano", nil
		}
		return "", errors.New("not found")
	}
	cmd, err := o.Command("page.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/bin/nano", "page.md"}, cmd.Args)

	o.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	_, err = o.Command("page.md")
	assert.Error(t, err)
}
