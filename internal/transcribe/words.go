package transcribe

import (
	"regexp"
	"strings"
)

// wordToken matches letters with their combining marks, digits, underscores,
// apostrophes and commas.
var wordToken = regexp.MustCompile(`[\p{L}\p{M}\p{N}_',]+`)

// ExtractLeadWords returns up to max words from the start of text. Leading
// and trailing apostrophes and commas are trimmed from each word, so
// "don't," yields "don't".
func ExtractLeadWords(text string, max int) []string {
	if max <= 0 {
		return nil
	}
	var words []string
	for _, tok := range wordToken.FindAllString(text, -1) {
		tok = strings.Trim(tok, "',")
		if tok == "" {
			continue
		}
		words = append(words, tok)
		if len(words) == max {
			break
		}
	}
	return words
}
