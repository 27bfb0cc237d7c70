package domain

import (
	"regexp"
	"sort"
	"strconv"
	"time"
)

// SortOrder selects how comments are ordered for display.
type SortOrder string

const (
	SortByStars SortOrder = "stars"
	SortByDate  SortOrder = "date"
)

var timestampPattern = regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})\s+(\d{1,2}):(\d{1,2})`)

// ParseTimestamp parses "2021/07/19 23:36". Unparseable input yields the zero time.
func ParseTimestamp(ts string) time.Time {
	m := timestampPattern.FindStringSubmatch(ts)
	if m == nil {
		return time.Time{}
	}
	parts := make([]int, 5)
	for i := range parts {
		parts[i], _ = strconv.Atoi(m[i+1])
	}
	return time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], 0, 0, time.Local)
}

// SortComments returns a sorted copy: most stars first, or newest first.
// Unknown orders keep the upstream order.
func SortComments(comments []BookmarkComment, order SortOrder) []BookmarkComment {
	out := make([]BookmarkComment, len(comments))
	copy(out, comments)

	switch order {
	case SortByStars:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Stars > out[j].Stars
		})
	case SortByDate:
		sort.SliceStable(out, func(i, j int) bool {
			return ParseTimestamp(out[i].Timestamp).After(ParseTimestamp(out[j].Timestamp))
		})
	}
	return out
}
