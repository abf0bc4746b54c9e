package sanitize

import (
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeScriptString(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "quotes and line breaks", in: "He said \"hi\"\nline2\r", want: `He said \"hi\" line2`},
		{name: "empty", in: "", want: ""},
		{name: "backslash", in: `C:\path`, want: `C:\\path`},
		{name: "escaped quote in input", in: `\"`, want: `\\\"`},
		{name: "trailing backslash", in: `end\`, want: `end\\`},
		{name: "crlf", in: "a\r\nb", want: "a b"},
		{name: "script close is untouched", in: "</script>", want: "</script>"},
		{name: "single quotes untouched", in: "it's", want: "it's"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EscapeScriptString(tc.in))
		})
	}
}

// literalSafe reports whether s can sit between double quotes: every quote is
// preceded by an odd run of backslashes and the string does not end in one.
func literalSafe(s string) bool {
	run := 0
	for _, r := range s {
		switch r {
		case '\\':
			run++
			continue
		case '"':
			if run%2 == 0 {
				return false
			}
		case '\n', '\r':
			return false
		}
		run = 0
	}
	return run%2 == 0
}

func TestEscapeScriptStringAlwaysLiteralSafe(t *testing.T) {
	require.NoError(t, quick.Check(func(s string) bool {
		return literalSafe(EscapeScriptString(s))
	}, nil))

	tricky := []string{`"`, `\`, `\\"`, "\"\n\"", `\\\`, strings.Repeat(`\"`, 5)}
	for _, s := range tricky {
		assert.True(t, literalSafe(EscapeScriptString(s)), "input %q", s)
	}
}

func TestEscapeScriptStringSingleLine(t *testing.T) {
	out := EscapeScriptString("one\ntwo\r\nthree\r")
	assert.NotContains(t, out, "\n")
	assert.NotContains(t, out, "\r")
	assert.Equal(t, "one two three", out)
}
