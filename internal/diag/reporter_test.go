package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_Errorf(t *testing.T) {
	// Test: errors are counted and printed with the program prefix
	var buf bytes.Buffer
	r := NewReporter(&buf, "rlgen-cd")

	assert.Equal(t, 0, r.Count())
	assert.NoError(t, r.Err())

	r.Errorf("could not open %s for reading", "foo.rl")
	r.Errorf("second")

	assert.Equal(t, 2, r.Count())
	assert.Equal(t, "rlgen-cd: could not open foo.rl for reading\nrlgen-cd: second\n", buf.String())

	errs := r.Errors()
	require.Len(t, errs, 2)
	assert.Equal(t, "could not open foo.rl for reading", errs[0].Error())
	assert.Contains(t, r.Err().Error(), "second")
}

func TestReporter_ErrorAt(t *testing.T) {
	tests := []struct {
		name string
		file string
		line int
		want string
	}{
		{"file and line", "foo.rl", 12, "rlgen-cd: foo.rl:12: bad target\n"},
		{"file only", "foo.rl", 0, "rlgen-cd: foo.rl: bad target\n"},
		{"no position", "", 3, "rlgen-cd: bad target\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := NewReporter(&buf, "rlgen-cd")
			r.ErrorAt(tt.file, tt.line, "bad %s", "target")
			assert.Equal(t, tt.want, buf.String())
			assert.Equal(t, 1, r.Count())
		})
	}
}

func TestReporter_NilWriter(t *testing.T) {
	// Test: a nil writer still counts errors
	r := NewReporter(nil, "")
	r.Errorf("boom")
	assert.Equal(t, 1, r.Count())
}
