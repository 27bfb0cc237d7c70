package domain

// ApplyStarCounts returns a copy of base where every comment listed in
// candidatesByIndex points at its best-starred candidate URI.
//
// A candidate replaces the current choice only if its known count is
// strictly greater, so the first candidate wins ties and all-zero results
// keep the primary URI. base is not modified.
func ApplyStarCounts(base BookmarkViewModel, candidatesByIndex map[int][]string, counts map[string]int) BookmarkViewModel {
	out := base.Clone()

	for index, candidates := range candidatesByIndex {
		if index < 0 || index >= len(out.Comments) {
			continue
		}
		c := &out.Comments[index]

		bestURI := c.StarTargetURI
		bestCount := c.Stars

		for _, uri := range candidates {
			n, known := counts[uri]
			if known && n > bestCount {
				bestCount = n
				u := uri
				bestURI = &u
			}
		}

		c.Stars = bestCount
		c.StarTargetURI = bestURI
	}

	return out
}
