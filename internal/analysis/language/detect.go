// Package language picks the speech-synthesis locale for a reply.
package language

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DefaultTag is used whenever no voice locale matches the detected language.
var DefaultTag = language.AmericanEnglish

var hindi = language.MustParse("hi-IN")

// speechTags maps detected languages to the locale handed to speechSynthesis.
// Short Hindi sentences often score closest to the Bhojpuri or Maithili
// trigram profiles, so those are spoken with the Hindi voice as well.
// Marathi and Nepali keep the default voice.
var speechTags = map[whatlanggo.Lang]language.Tag{
	whatlanggo.Hin: hindi,
	whatlanggo.Bho: hindi,
	whatlanggo.Mai: hindi,
}

// DetectSpeechTag returns hi-IN for Hindi text and DefaultTag for anything
// else, including empty or undetectable input.
func DetectSpeechTag(text string) language.Tag {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return DefaultTag
	}

	info := whatlanggo.Detect(trimmed)
	if tag, ok := speechTags[info.Lang]; ok {
		return tag
	}
	return DefaultTag
}

// SpeechLang is the BCP 47 form of DetectSpeechTag.
func SpeechLang(text string) string {
	return DetectSpeechTag(text).String()
}
