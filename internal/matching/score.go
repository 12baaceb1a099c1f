package matching

// Score returns the percentage (0..100) of required skills present in the
// applicant's set, rounded half up. An empty required set scores 0.
func Score(applicant, required SkillSet) int {
	n := len(required)
	if n == 0 {
		return 0
	}
	matched := 0
	for k := range required {
		if _, ok := applicant[k]; ok {
			matched++
		}
	}
	// round(100*m/n) half up, in integers: floor((200m + n) / 2n)
	return (200*matched + n) / (2 * n)
}

// ScoreLabels normalizes both label lists and scores them.
func ScoreLabels(applicant, required []string) int {
	return Score(NewSkillSet(applicant...), NewSkillSet(required...))
}
