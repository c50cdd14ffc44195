package compare_test

import (
	"testing"

	"github.com/hvngan/echoscribe/pkg/compare"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello world"},
		{"don't", "dont"},
		{"  spaced   out  ", "spaced out"},
		{"(brackets) [and] {braces}", "brackets and braces"},
		{"", ""},
		{"?!.,;:", ""},
	}
	for _, tc := range tests {
		if got := compare.Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCheckIdenticalText(t *testing.T) {
	t.Parallel()

	c := compare.New()
	references := []string{
		"hello world",
		"The quick brown fox jumps over the lazy dog",
		"What's up, friend?",
	}
	for _, ref := range references {
		res := c.Check(ref, ref)
		if res.Accuracy != 100 {
			t.Errorf("Check(%q, same) accuracy = %v, want 100", ref, res.Accuracy)
		}
		if len(res.Errors) != 0 {
			t.Errorf("Check(%q, same) errors = %v, want none", ref, res.Errors)
		}
	}
}

func TestCheckCaseAndPunctuationInsensitive(t *testing.T) {
	t.Parallel()

	c := compare.New()
	res := c.Check("hello world", "Hello, World!")
	if res.Accuracy != 100 {
		t.Fatalf("accuracy = %v, want 100 (case/punctuation must not count)", res.Accuracy)
	}
}

func TestCheckAllWrong(t *testing.T) {
	t.Parallel()

	c := compare.New()
	res := c.Check("aaa bbb ccc", "one two three")
	if res.Accuracy != 0 {
		t.Fatalf("accuracy = %v, want 0", res.Accuracy)
	}
	if res.CorrectWords != 0 {
		t.Fatalf("correct words = %d, want 0", res.CorrectWords)
	}
	if len(res.Errors) != 3 {
		t.Fatalf("errors = %d, want 3", len(res.Errors))
	}
}

func TestCheckPartialMatch(t *testing.T) {
	t.Parallel()

	c := compare.New()
	res := c.Check("hello world", "hello there")
	if res.CorrectWords != 1 {
		t.Fatalf("correct words = %d, want 1", res.CorrectWords)
	}
	if res.Accuracy != 50 {
		t.Fatalf("accuracy = %v, want 50", res.Accuracy)
	}
	if len(res.Errors) != 1 || res.Errors[0].Position != 1 {
		t.Fatalf("errors = %+v, want one error at position 1", res.Errors)
	}
}

func TestCheckEmptyReference(t *testing.T) {
	t.Parallel()

	c := compare.New()
	res := c.Check("anything at all", "")
	if res.Accuracy != 0 || res.TotalWords != 0 {
		t.Fatalf("empty reference: got %+v, want zero accuracy and zero total", res)
	}
}

func TestCheckExtraTypedWordsIgnored(t *testing.T) {
	t.Parallel()

	c := compare.New()
	res := c.Check("hello world and then some", "hello world")
	if res.Accuracy != 100 {
		t.Fatalf("accuracy = %v, want 100 (extra words ignored)", res.Accuracy)
	}
}

func TestCheckMissingTypedWordsNotScored(t *testing.T) {
	t.Parallel()

	c := compare.New()
	res := c.Check("hello", "hello there friend")
	if res.CorrectWords != 1 {
		t.Fatalf("correct words = %d, want 1", res.CorrectWords)
	}
	// Unreached reference words are not mismatches.
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %+v, want none for unreached words", res.Errors)
	}
	if want := 100.0 / 3; res.Accuracy < want-0.01 || res.Accuracy > want+0.01 {
		t.Fatalf("accuracy = %v, want ~%v", res.Accuracy, want)
	}
}

func TestErrorCategories(t *testing.T) {
	t.Parallel()

	c := compare.New()
	tests := []struct {
		name string
		user string
		ref  string
		want compare.ErrorKind
	}{
		{"substring is partial", "beca", "because", compare.ErrorPartial},
		{"different length", "cat", "telescope", compare.ErrorLengthMismatch},
		{"same length wrong word", "bat", "cat", compare.ErrorWrongWord},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := c.Check(tc.user, tc.ref)
			if len(res.Errors) != 1 {
				t.Fatalf("errors = %+v, want exactly one", res.Errors)
			}
			if res.Errors[0].Kind != tc.want {
				t.Fatalf("kind = %q, want %q", res.Errors[0].Kind, tc.want)
			}
		})
	}
}

func TestLiveVerdicts(t *testing.T) {
	t.Parallel()

	c := compare.New()
	verdicts := c.LiveVerdicts("hello wrld zzzzz", "hello world example")
	if len(verdicts) != 3 {
		t.Fatalf("verdicts = %v, want 3 entries", verdicts)
	}
	if verdicts[0] != compare.VerdictCorrect {
		t.Errorf("verdicts[0] = %q, want correct", verdicts[0])
	}
	if verdicts[1] != compare.VerdictSimilar {
		// "wrld" vs "world": distance 1 over length 5, ratio exactly 0.8.
		t.Errorf("verdicts[1] = %q, want similar", verdicts[1])
	}
	if verdicts[2] != compare.VerdictError {
		t.Errorf("verdicts[2] = %q, want error", verdicts[2])
	}
}

func TestLiveVerdictThresholds(t *testing.T) {
	t.Parallel()

	c := compare.New()

	// Exact match is always correct.
	if v := c.LiveVerdicts("hello", "hello"); v[0] != compare.VerdictCorrect {
		t.Fatalf("exact word verdict = %q, want correct", v[0])
	}

	// ratio exactly 0.8 is similar, not correct (classification is strict >).
	// "wrld" vs "world": levenshtein 1, max length 5, ratio 0.8.
	if v := c.LiveVerdicts("wrld", "world"); v[0] != compare.VerdictSimilar {
		t.Fatalf("boundary verdict = %q, want similar", v[0])
	}

	// Completely unrelated word is an error.
	if v := c.LiveVerdicts("zzz", "world"); v[0] != compare.VerdictError {
		t.Fatalf("unrelated word verdict = %q, want error", v[0])
	}
}

func TestLiveVerdictsDoNotAffectScoring(t *testing.T) {
	t.Parallel()

	c := compare.New()
	// "wrld" is similar in live feedback but wrong in the scoring pass.
	res := c.Check("wrld", "world")
	if res.CorrectWords != 0 {
		t.Fatalf("scoring pass counted a fuzzy match as correct: %+v", res)
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want float64
	}{
		{"hello", "hello", 1},
		{"", "", 1},
		{"abc", "xyz", 0},
		{"world", "wrld", 0.8},
	}
	for _, tc := range tests {
		got := compare.Similarity(tc.a, tc.b)
		if got < tc.want-0.0001 || got > tc.want+0.0001 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestTypingSpeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		secs float64
		want float64
	}{
		{"two words in half a minute", "hello world", 30, 4},
		{"zero time", "hello world", 0, 0},
		{"negative time", "hello", -1, 0},
		{"empty text", "", 30, 0},
		{"one word per second", "a b c d e f g h i j", 10, 60},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := compare.TypingSpeed(tc.text, tc.secs); got != tc.want {
				t.Fatalf("TypingSpeed(%q, %v) = %v, want %v", tc.text, tc.secs, got, tc.want)
			}
		})
	}
}
