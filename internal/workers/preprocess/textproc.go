// -----------------------------------------------------------------------
// Text preprocessing - chat-style normalization before translation
// -----------------------------------------------------------------------

package preprocess

import (
	"strings"
	"unicode"
)

// abbreviations maps common Korean chat shorthand to full words
var abbreviations = map[string]string{
	"ㅎㅇ": "하이",
	"ㅂㅂ": "바이바이",
	"ㄱㅅ": "감사",
	"ㅈㅅ": "죄송",
	"ㅇㅋ": "오케이",
	"ㄴㄴ": "노노",
	"ㅊㅋ": "축하",
	"ㄱㄱ": "고고",
	"brb": "be right back",
	"gg":  "good game",
	"thx": "thanks",
	"np":  "no problem",
	"omw": "on my way",
}

// profanityWords is a small built-in blocklist. Matching is
// case-insensitive on whole tokens.
var profanityWords = map[string]bool{
	"damn":    true,
	"shit":    true,
	"fuck":    true,
	"asshole": true,
	"bastard": true,
	"시발":      true,
	"씨발":      true,
	"병신":      true,
	"개새끼":     true,
}

// FixTypos collapses runs of whitespace and trims the ends
func FixTypos(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ExpandAbbreviations replaces known chat shorthand tokens with their
// full forms. Only whole whitespace-delimited tokens are expanded.
func ExpandAbbreviations(text string) string {
	fields := strings.Fields(text)
	for i, field := range fields {
		if full, ok := abbreviations[strings.ToLower(field)]; ok {
			fields[i] = full
		}
	}
	return strings.Join(fields, " ")
}

// NormalizeRepeats collapses runs of the same rune longer than two down
// to two ("goooood" -> "good", "ㅋㅋㅋㅋㅋ" -> "ㅋㅋ").
func NormalizeRepeats(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run > 2 {
				continue
			}
		} else {
			prev = r
			run = 1
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RemoveEmoticons strips emoji and symbol runes
func RemoveEmoticons(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		if isEmoticon(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func isEmoticon(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF: // pictographs, emoji, symbols
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	case r == 0x200D: // zero-width joiner
		return true
	}
	return false
}

// ContainsProfanity reports whether any token is on the blocklist
func ContainsProfanity(text string) bool {
	for _, field := range strings.Fields(text) {
		token := strings.ToLower(strings.Trim(field, ".,!?~"))
		if profanityWords[token] {
			return true
		}
	}
	return false
}

// DetectLanguage guesses the dominant language of the text by script.
// Counts are per rune; ties break in map-independent order of the checks.
func DetectLanguage(text string) string {
	var hangul, kana, han, thai, cyrillic, latin int

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Hangul, r):
			hangul++
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			kana++
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Thai, r):
			thai++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.IsLetter(r):
			latin++
		}
	}

	best, lang := latin, "en"
	if hangul > best {
		best, lang = hangul, "ko"
	}
	if kana > best {
		best, lang = kana, "ja"
	}
	if han > best {
		best, lang = han, "zh"
	}
	if thai > best {
		best, lang = thai, "th"
	}
	if cyrillic > best {
		lang = "ru"
	}
	return lang
}
