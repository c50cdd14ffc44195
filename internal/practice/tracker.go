package practice

// DefaultCompletionThreshold is the best-accuracy percentage at which a
// segment counts as completed.
const DefaultCompletionThreshold = 95.0

// Recompute derives a full [SegmentProgress] from an attempt history. It is a
// pure function: replaying the same history against the same threshold
// always produces the same aggregate. Completed here reflects only the
// supplied threshold; the session manager keeps completion sticky across
// threshold changes by carrying the previous record's flag forward.
func Recompute(attempts []Attempt, completionThreshold float64) SegmentProgress {
	sp := SegmentProgress{
		Attempts:     attempts,
		TypingSpeeds: make([]float64, 0, len(attempts)),
	}

	var totalTime float64
	for _, a := range attempts {
		if a.Accuracy > sp.BestAccuracy {
			sp.BestAccuracy = a.Accuracy
		}
		totalTime += a.TimeTaken
		sp.TypingSpeeds = append(sp.TypingSpeeds, a.TypingSpeed)
	}
	if len(attempts) > 0 {
		sp.AverageTime = totalTime / float64(len(attempts))
	}
	sp.Completed = sp.BestAccuracy >= completionThreshold
	return sp
}
