package envfile

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaxDepth = 10

func parseOK(t *testing.T, content string) map[string]string {
	t.Helper()
	vars, err := NewParser(testMaxDepth).Parse(content)
	require.NoError(t, err)
	return vars
}

func TestParseBasicGrammar(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]string
	}{
		{
			name:    "simple assignment",
			content: "FOO=bar",
			want:    map[string]string{"FOO": "bar"},
		},
		{
			name:    "export prefix stripped",
			content: "export FOO=bar",
			want:    map[string]string{"FOO": "bar"},
		},
		{
			name:    "comments and blank lines skipped",
			content: "# comment\n\n  # indented comment\nFOO=bar\n",
			want:    map[string]string{"FOO": "bar"},
		},
		{
			name:    "whitespace trimmed around key and value",
			content: "  FOO  =  bar  ",
			want:    map[string]string{"FOO": "bar"},
		},
		{
			name:    "empty value",
			content: "FOO=",
			want:    map[string]string{"FOO": ""},
		},
		{
			name:    "value with equals sign",
			content: "FOO=a=b=c",
			want:    map[string]string{"FOO": "a=b=c"},
		},
		{
			name:    "last write wins",
			content: "FOO=first\nFOO=second",
			want:    map[string]string{"FOO": "second"},
		},
		{
			name:    "invalid key silently skipped",
			content: "1BAD=x\nWITH-DASH=y\nGOOD=z",
			want:    map[string]string{"GOOD": "z"},
		},
		{
			name:    "line without separator skipped",
			content: "not a variable\nFOO=bar",
			want:    map[string]string{"FOO": "bar"},
		},
		{
			name:    "underscore key accepted",
			content: "_PRIVATE=1",
			want:    map[string]string{"_PRIVATE": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOK(t, tt.content))
		})
	}
}

func TestParseQuoting(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]string
	}{
		{
			name:    "double quotes stripped",
			content: `FOO="a b"`,
			want:    map[string]string{"FOO": "a b"},
		},
		{
			name:    "single quotes stripped",
			content: `FOO='a b'`,
			want:    map[string]string{"FOO": "a b"},
		},
		{
			name:    "only one layer stripped",
			content: `FOO="'a'"`,
			want:    map[string]string{"FOO": "'a'"},
		},
		{
			name:    "mismatched quotes kept verbatim",
			content: `FOO="bar'`,
			want:    map[string]string{"FOO": `"bar'`},
		},
		{
			name:    "lone quote kept",
			content: `FOO="`,
			want:    map[string]string{"FOO": `"`},
		},
		{
			name:    "unquoted passes through verbatim",
			content: "FOO=a b c",
			want:    map[string]string{"FOO": "a b c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOK(t, tt.content))
		})
	}
}

func TestParseDangerousVariablesStripped(t *testing.T) {
	vars := parseOK(t, "PATH=/evil\nLD_PRELOAD=/tmp/hook.so\nBASH_ENV=/tmp/x\nSAFE=ok\n")

	assert.Equal(t, map[string]string{"SAFE": "ok"}, vars)
	assert.NotContains(t, vars, "PATH")
}

func TestParseInterpolation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]string
	}{
		{
			name:    "simple reference",
			content: "A=hello\nB=${A} world",
			want:    map[string]string{"A": "hello", "B": "hello world"},
		},
		{
			name:    "chained references",
			content: "A=1\nB=${A}2\nC=${B}3",
			want:    map[string]string{"A": "1", "B": "12", "C": "123"},
		},
		{
			name:    "reference defined later in file",
			content: "B=${A}!\nA=hi",
			want:    map[string]string{"A": "hi", "B": "hi!"},
		},
		{
			name:    "unknown reference left verbatim",
			content: "X=a${UNDEFINED}b",
			want:    map[string]string{"X": "a${UNDEFINED}b"},
		},
		{
			name:    "multiple references in one value",
			content: "A=x\nB=y\nC=${A}${B}",
			want:    map[string]string{"A": "x", "B": "y", "C": "xy"},
		},
		{
			name:    "malformed reference ignored",
			content: "A=x\nB=$A ${ } ${1BAD}",
			want:    map[string]string{"A": "x", "B": "$A ${ } ${1BAD}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOK(t, tt.content))
		})
	}
}

func TestParseCircularReference(t *testing.T) {
	p := NewParser(testMaxDepth)

	t.Run("self reference", func(t *testing.T) {
		_, err := p.Parse("VAR=${VAR}")
		require.ErrorIs(t, err, ErrCircularReference)
		assert.Contains(t, err.Error(), "VAR -> VAR")
	})

	t.Run("mutual reference", func(t *testing.T) {
		_, err := p.Parse("A=${B}\nB=${A}")
		require.ErrorIs(t, err, ErrCircularReference)
	})

	t.Run("longer cycle", func(t *testing.T) {
		_, err := p.Parse("A=${B}\nB=${C}\nC=${A}")
		require.ErrorIs(t, err, ErrCircularReference)
	})
}

func TestParseExpansionDepth(t *testing.T) {
	t.Run("long acyclic chain within limit", func(t *testing.T) {
		content := "L9=end\nL8=${L9}\nL7=${L8}\nL6=${L7}\nL5=${L6}\nL4=${L5}\nL3=${L4}\nL2=${L3}\nL1=${L2}\n"
		vars := parseOK(t, content)
		assert.Equal(t, "end", vars["L1"])
	})

	t.Run("chain exceeding limit", func(t *testing.T) {
		content := ""
		for i := 1; i <= 11; i++ {
			next := i + 1
			if next > 11 {
				next = 1
			}
			content += "L" + strconv.Itoa(i) + "=${L" + strconv.Itoa(next) + "}\n"
		}
		_, err := NewParser(testMaxDepth).Parse(content)
		// The cycle is longer than the depth cap, so resolution runs out of
		// depth before any name repeats on the chain.
		require.ErrorIs(t, err, ErrExpansionDepthExceeded)
	})

	t.Run("deep non-cyclic chain exceeds depth", func(t *testing.T) {
		content := "L12=end\n"
		for i := 1; i <= 11; i++ {
			content += "L" + strconv.Itoa(i) + "=${L" + strconv.Itoa(i+1) + "}\n"
		}
		_, err := NewParser(testMaxDepth).Parse(content)
		require.ErrorIs(t, err, ErrExpansionDepthExceeded)
	})
}

func TestParseDeterminism(t *testing.T) {
	content := "A=${B}\nB=${C}x\nC=base\nD=${UNDEF}\nE='quoted ${A}'\n"
	first := parseOK(t, content)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, parseOK(t, content))
	}
}

func TestParseErrorDeterminism(t *testing.T) {
	// A self-cycle and an over-deep acyclic chain in one file: the same
	// guard must fire with the same message on every parse.
	content := "AA=${AA}\nL13=end\n"
	for i := 1; i <= 12; i++ {
		content += "L" + strconv.Itoa(i) + "=${L" + strconv.Itoa(i+1) + "}\n"
	}

	_, first := NewParser(testMaxDepth).Parse(content)
	require.ErrorIs(t, first, ErrCircularReference)
	assert.Contains(t, first.Error(), "AA -> AA")

	for i := 0; i < 50; i++ {
		_, err := NewParser(testMaxDepth).Parse(content)
		require.ErrorIs(t, err, ErrCircularReference)
		assert.Equal(t, first.Error(), err.Error())
	}
}

func TestIsDangerousVariable(t *testing.T) {
	assert.True(t, IsDangerousVariable("LD_PRELOAD"))
	assert.True(t, IsDangerousVariable("PATH"))
	assert.True(t, IsDangerousVariable("PYTHONPATH"))
	assert.False(t, IsDangerousVariable("HOME_GROWN"))
	assert.False(t, IsDangerousVariable("path"))
}

