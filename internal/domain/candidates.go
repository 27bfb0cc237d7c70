package domain

import (
	"fmt"
	"regexp"
)

const (
	// StarBaseURL is the host under which bookmark comments collect stars.
	StarBaseURL = "https://b.hatena.ne.jp"
)

var datePrefix = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})`)

// BuildStarCandidates lists the URIs under which the stars of bookmark b on
// entry eid may be recorded, most likely first. The comment permalink is
// always present; the dated anchor form is added only when the timestamp
// carries a date. The result is deduplicated and deterministic.
func BuildStarCandidates(eid string, b EntryBookmark) []string {
	uris := make([]string, 0, 2)
	uris = append(uris, fmt.Sprintf("%s/entry/%s/comment/%s", StarBaseURL, eid, b.User))

	if ymd, ok := ToYYYYMMDD(b.Timestamp); ok {
		uris = append(uris, fmt.Sprintf("%s/%s/%s#bookmark-%s", StarBaseURL, b.User, ymd, eid))
	}

	return Unique(uris)
}

// ToYYYYMMDD turns a "YYYY/M/D ..." timestamp into "YYYYMMDD".
func ToYYYYMMDD(timestamp string) (string, bool) {
	m := datePrefix.FindStringSubmatch(timestamp)
	if m == nil {
		return "", false
	}
	return m[1] + pad2(m[2]) + pad2(m[3]), true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// Unique removes duplicates keeping first occurrences in order.
func Unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
