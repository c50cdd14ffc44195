package compare

import "strings"

// punctuation is the character set stripped before exact matching. It matches
// what learners most often omit or mistype around words; inner apostrophes
// are stripped too, so "dont" matches "don't".
const punctuation = `!()-[]{};:'",<>./?@#$%^&*_~`

// Normalize prepares text for exact word matching: punctuation stripped,
// lowercased, whitespace collapsed to single spaces.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(punctuation, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(strings.ToLower(b.String())), " ")
}
