package domain

// EntryBookmark is one user's bookmark of a target URL, as listed by the
// entry API.
type EntryBookmark struct {
	User      string
	Comment   string
	Timestamp string // "YYYY/M/D H:mm", service local time
	Tags      []string
}

// Entry is the upstream record aggregating all bookmarks of one target URL.
type Entry struct {
	// EID is the entry identifier. Empty means no entry exists.
	EID string

	// Count is the total number of users who bookmarked the URL,
	// including those without a public comment.
	Count int

	// EntryURL is the human-facing entry page, when the API provides one.
	EntryURL string

	// Bookmarks is the public bookmark list.
	Bookmarks []EntryBookmark

	// HasBookmarkList is false when the response carried no bookmark array
	// at all (as opposed to an empty one).
	HasBookmarkList bool
}

// BookmarkComment is one displayed comment. Stars and StarTargetURI are
// filled in by ApplyStarCounts; everything else is fixed once built.
type BookmarkComment struct {
	User          string   `json:"user"`
	Comment       string   `json:"comment"`
	Timestamp     string   `json:"timestamp"`
	Tags          []string `json:"tags"`
	Stars         int      `json:"stars"`
	StarTargetURI *string  `json:"starTargetUri"`
}

// BookmarkViewModel is what the panel renders for one target URL.
//
// Invariant: EID == nil implies Comments is empty and BookmarkCount is 0.
type BookmarkViewModel struct {
	TargetURL     string            `json:"targetUrl"`
	EID           *string           `json:"eid"`
	BookmarkCount int               `json:"bookmarkCount"`
	Comments      []BookmarkComment `json:"comments"`
	EntryURL      *string           `json:"entryUrl"`
}

// EmptyViewModel is the "no entry" view for targetURL.
func EmptyViewModel(targetURL string) BookmarkViewModel {
	return BookmarkViewModel{
		TargetURL: targetURL,
		Comments:  []BookmarkComment{},
	}
}

// HasEntry reports whether the view model refers to an existing entry.
func (vm BookmarkViewModel) HasEntry() bool {
	return vm.EID != nil
}

// Clone returns a copy whose comment slice can be mutated independently.
func (vm BookmarkViewModel) Clone() BookmarkViewModel {
	out := vm
	out.Comments = make([]BookmarkComment, len(vm.Comments))
	copy(out.Comments, vm.Comments)
	return out
}

// StringPtr returns nil for "" and &s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
