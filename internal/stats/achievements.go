package stats

// Achievement is a named milestone unlocked by practice performance.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type achievementRule struct {
	Achievement
	unlocked func(CurrentStats) bool
}

var achievementRules = []achievementRule{
	{
		Achievement: Achievement{
			ID:          "speed_demon",
			Name:        "Speed Demon 🚀",
			Description: "Type faster than 60 WPM",
		},
		unlocked: func(s CurrentStats) bool { return s.TypingSpeed > 60 },
	},
	{
		Achievement: Achievement{
			ID:          "accuracy_master",
			Name:        "Accuracy Master 🎯",
			Description: "Achieve 95% accuracy",
		},
		unlocked: func(s CurrentStats) bool { return s.Accuracy >= 95 },
	},
	{
		Achievement: Achievement{
			ID:          "practice_streak",
			Name:        "Practice Streak 🔥",
			Description: "Practice for 5 days in a row",
		},
		unlocked: func(s CurrentStats) bool { return s.PracticeStreak >= 5 },
	},
}

// Unlocked returns every achievement whose condition holds for stats.
func Unlocked(stats CurrentStats) []Achievement {
	var out []Achievement
	for _, rule := range achievementRules {
		if rule.unlocked(stats) {
			out = append(out, rule.Achievement)
		}
	}
	return out
}
