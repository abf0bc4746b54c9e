// Package sanitize prepares model output for browser speech synthesis.
package sanitize

import "strings"

// RuneRange is an inclusive code point range.
type RuneRange struct {
	Lo, Hi rune
}

// Contains reports whether r lies within the range.
func (rr RuneRange) Contains(r rune) bool {
	return r >= rr.Lo && r <= rr.Hi
}

// EmojiRanges lists the blocks removed before text is spoken. The last entry
// is wide and also covers CJK and Hangul; that matches the speech path's
// historical behaviour and is kept as is.
var EmojiRanges = []RuneRange{
	{Lo: 0x1F600, Hi: 0x1F64F}, // emoticons
	{Lo: 0x1F300, Hi: 0x1F5FF}, // symbols & pictographs
	{Lo: 0x1F680, Hi: 0x1F6FF}, // transport & map
	{Lo: 0x1F1E0, Hi: 0x1F1FF}, // flags
	{Lo: 0x2500, Hi: 0x2BEF},
	{Lo: 0x2702, Hi: 0x27B0}, // dingbats
	{Lo: 0x24C2, Hi: 0x1F251},
}

// IsEmoji reports whether r falls in any of EmojiRanges.
func IsEmoji(r rune) bool {
	for _, rr := range EmojiRanges {
		if rr.Contains(r) {
			return true
		}
	}
	return false
}

// StripEmoji deletes every rune in EmojiRanges and keeps everything else in
// order. It is idempotent.
func StripEmoji(s string) string {
	return strings.Map(func(r rune) rune {
		if IsEmoji(r) {
			return -1
		}
		return r
	}, s)
}
