package sanitize

import "strings"

// scriptReplacer applies the substitutions in a single pass, so the backslash
// added in front of a quote is never escaped a second time.
var scriptReplacer = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", " ",
	"\r", "",
)

// EscapeScriptString makes s safe to place between double quotes in a
// generated script literal: backslashes are doubled, double quotes are
// escaped, newlines become spaces and carriage returns are dropped.
//
// It only guarantees quote and line safety. Sequences such as "</script>"
// and other control characters pass through untouched, so the result must
// not be treated as a general script-injection sanitizer.
func EscapeScriptString(s string) string {
	return scriptReplacer.Replace(s)
}
