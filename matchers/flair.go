package matchers

// MatchesFlair applies a flair allow-list. An empty list allows every post;
// otherwise the post needs a flair that equals one of the entries exactly.
func MatchesFlair(allow []string, flair *string) bool {
	if len(allow) == 0 {
		return true
	}
	if flair == nil {
		return false
	}

	for _, allowed := range allow {
		if allowed == *flair {
			return true
		}
	}

	return false
}
