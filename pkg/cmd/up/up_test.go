package up

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"single snippet", []string{"uptime | tee /tmp/uptime"}, "uptime | tee /tmp/uptime"},
		{"plain words", []string{"echo", "hi"}, "echo hi"},
		{"word with space", []string{"echo", "a b"}, "echo 'a b'"},
		{"word with quote", []string{"printf", "it's"}, `printf 'it'"'"'s'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, commandFromArgs(tt.args))
		})
	}
}
