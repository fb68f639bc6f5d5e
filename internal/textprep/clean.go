package textprep

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	urlPattern     = regexp.MustCompile(`http\S+|www\S+|https\S+`)
	emailPattern   = regexp.MustCompile(`\S+@\S+`)
	mentionPattern = regexp.MustCompile(`[@#][\p{L}\p{N}_]+`)
	wordPattern    = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	symbolPattern  = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// Clean lowercases text and strips URLs, emails, mentions, hashtags,
// standalone numbers and punctuation, leaving single-spaced words.
// Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = emailPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = wordPattern.ReplaceAllStringFunc(text, dropNumber)
	text = symbolPattern.ReplaceAllString(text, " ")
	text = spacePattern.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// dropNumber removes a word made only of decimal digits. Word boundaries
// are Unicode aware, so digits next to accented letters stay.
func dropNumber(word string) string {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return word
		}
	}
	return ""
}
