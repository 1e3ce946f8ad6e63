package hostlang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Lang
		wantErr bool
	}{
		{"C", C, false},
		{"c", C, false},
		{"c++", C, false},
		{" D ", D, false},
		{"java", Java, false},
		{"rb", Ruby, false},
		{"C#", CSharp, false},
		{"csharp", CSharp, false},
		{"cobol", Unknown, true},
		{"", Unknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown host language")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtensions(t *testing.T) {
	// Test: extension table drives output naming
	assert.Equal(t, ".c", C.DefaultExt())
	assert.Equal(t, ".h", C.HeaderExt())
	assert.Equal(t, ".d", D.DefaultExt())
	assert.Equal(t, ".h", D.HeaderExt())
	assert.Equal(t, ".java", Java.DefaultExt())
	assert.Equal(t, "", Ruby.HeaderExt())
	assert.Equal(t, "", Unknown.DefaultExt())
}

func TestString(t *testing.T) {
	assert.Equal(t, "C", C.String())
	assert.Equal(t, "D", D.String())
	assert.Equal(t, "C#", CSharp.String())
	assert.Equal(t, "unknown", Lang(42).String())
}
