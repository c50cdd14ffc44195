// Package compare scores a learner's typed text against a reference sentence.
//
// Two passes are provided with deliberately different semantics:
//
//   - [Comparator.Check] is the scoring pass. Words are aligned by position and
//     compared for exact equality after normalisation (punctuation stripped,
//     lowercased). Its accuracy feeds completion tracking and statistics.
//
//   - [Comparator.LiveVerdicts] is the feedback pass used while the learner is
//     still typing. Each word pair gets an edit-distance similarity ratio and a
//     three-way verdict (correct / similar / error). Verdicts are presentation
//     only and never influence the stored accuracy.
//
// Alignment is positional: words beyond the shorter of the two texts have no
// counterpart and are not scored. Extra typed words are ignored; reference
// words the learner has not reached yet count as not-yet-attempted rather
// than wrong.
package compare

import (
	"math"
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	// defaultCorrectThreshold is the similarity ratio above which a live
	// word is shown as correct.
	defaultCorrectThreshold = 0.8

	// defaultSimilarThreshold is the similarity ratio above which a live
	// word is shown as close-but-not-right.
	defaultSimilarThreshold = 0.5
)

// Verdict is the live three-way classification of one typed word.
type Verdict string

const (
	VerdictCorrect Verdict = "correct"
	VerdictSimilar Verdict = "similar"
	VerdictError   Verdict = "error"
)

// ErrorKind categorises a scoring-pass mismatch.
type ErrorKind string

const (
	// ErrorMissing means the typed word was empty.
	ErrorMissing ErrorKind = "missing"

	// ErrorPartial means the typed word is a substring of the reference word.
	ErrorPartial ErrorKind = "partial"

	// ErrorLengthMismatch means the words differ in length and the typed
	// word is not contained in the reference word.
	ErrorLengthMismatch ErrorKind = "length_mismatch"

	// ErrorWrongWord means the words have equal length but do not match.
	ErrorWrongWord ErrorKind = "wrong_word"
)

// WordError describes one positional mismatch from the scoring pass.
type WordError struct {
	// Position is the zero-based word index in the reference text.
	Position int `json:"position"`

	// Expected is the reference word at that position.
	Expected string `json:"expected"`

	// Actual is the word the learner typed.
	Actual string `json:"actual"`

	// Kind categorises the mismatch.
	Kind ErrorKind `json:"type"`
}

// Result is the outcome of one scoring pass.
type Result struct {
	// CorrectWords is the number of positions where the normalised typed
	// word equals the normalised reference word.
	CorrectWords int `json:"correct_words"`

	// TotalWords is the reference word count. Accuracy is always measured
	// against the reference, never against what was typed.
	TotalWords int `json:"total_words"`

	// Accuracy is CorrectWords / TotalWords * 100, or 0 when the reference
	// is empty.
	Accuracy float64 `json:"accuracy"`

	// Errors lists positional mismatches in reference order.
	Errors []WordError `json:"errors,omitempty"`
}

// Option is a functional option for configuring a [Comparator].
type Option func(*Comparator)

// WithCorrectThreshold sets the live-feedback similarity ratio above which a
// word is classified as correct. Default: 0.8.
func WithCorrectThreshold(threshold float64) Option {
	return func(c *Comparator) {
		c.correctThreshold = threshold
	}
}

// WithSimilarThreshold sets the live-feedback similarity ratio above which a
// word is classified as similar. Default: 0.5.
func WithSimilarThreshold(threshold float64) Option {
	return func(c *Comparator) {
		c.similarThreshold = threshold
	}
}

// Comparator scores typed text against reference text. It is read-only after
// construction and safe for concurrent use.
type Comparator struct {
	correctThreshold float64
	similarThreshold float64
}

// New returns a [Comparator] configured with the supplied options.
func New(opts ...Option) *Comparator {
	c := &Comparator{
		correctThreshold: defaultCorrectThreshold,
		similarThreshold: defaultSimilarThreshold,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check performs the scoring pass of userText against referenceText.
func (c *Comparator) Check(userText, referenceText string) Result {
	refWords := strings.Fields(referenceText)
	userWords := strings.Fields(userText)

	res := Result{TotalWords: len(refWords)}
	if res.TotalWords == 0 {
		return res
	}

	n := min(len(userWords), len(refWords))
	for i := 0; i < n; i++ {
		if Normalize(userWords[i]) == Normalize(refWords[i]) {
			res.CorrectWords++
			continue
		}
		res.Errors = append(res.Errors, WordError{
			Position: i,
			Expected: refWords[i],
			Actual:   userWords[i],
			Kind:     categorize(strings.ToLower(userWords[i]), strings.ToLower(refWords[i])),
		})
	}

	res.Accuracy = float64(res.CorrectWords) / float64(res.TotalWords) * 100
	return res
}

// LiveVerdicts performs the feedback pass: each typed word that has a
// positional counterpart in the reference gets a verdict based on its
// edit-distance similarity ratio. The returned slice has one entry per typed
// word with a counterpart (extra typed words get none).
func (c *Comparator) LiveVerdicts(userText, referenceText string) []Verdict {
	refWords := strings.Fields(referenceText)
	userWords := strings.Fields(userText)

	n := min(len(userWords), len(refWords))
	verdicts := make([]Verdict, n)
	for i := 0; i < n; i++ {
		ratio := Similarity(strings.ToLower(userWords[i]), strings.ToLower(refWords[i]))
		switch {
		case ratio > c.correctThreshold:
			verdicts[i] = VerdictCorrect
		case ratio > c.similarThreshold:
			verdicts[i] = VerdictSimilar
		default:
			verdicts[i] = VerdictError
		}
	}
	return verdicts
}

// Similarity returns an edit-distance similarity ratio in [0, 1] between two
// words: 1 - levenshtein(a, b) / max(len(a), len(b)). Two empty strings are
// fully similar.
func Similarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	dist := matchr.Levenshtein(a, b)
	return 1 - float64(dist)/float64(longest)
}

// TypingSpeed returns words per minute for text typed in timeTaken seconds,
// rounded to the nearest whole word. Zero when timeTaken is not positive.
func TypingSpeed(text string, timeTaken float64) float64 {
	if timeTaken <= 0 {
		return 0
	}
	words := float64(len(strings.Fields(text)))
	return math.Round(words / (timeTaken / 60))
}

// categorize classifies a mismatched word pair. Both inputs are lowercased by
// the caller.
func categorize(userWord, refWord string) ErrorKind {
	switch {
	case len(userWord) == 0:
		return ErrorMissing
	case strings.Contains(refWord, userWord):
		return ErrorPartial
	case len(userWord) != len(refWord):
		return ErrorLengthMismatch
	default:
		return ErrorWrongWord
	}
}
