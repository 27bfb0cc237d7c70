package domain

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	got := ParseTimestamp("2021/7/9 3:05")
	want := time.Date(2021, time.July, 9, 3, 5, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("ParseTimestamp() = %v, want %v", got, want)
	}
	if !ParseTimestamp("garbage").IsZero() {
		t.Error("expected zero time for unparseable input")
	}
}

func TestSortComments(t *testing.T) {
	in := []BookmarkComment{
		{User: "a", Stars: 1, Timestamp: "2021/01/01 10:00"},
		{User: "b", Stars: 5, Timestamp: "2020/12/31 10:00"},
		{User: "c", Stars: 1, Timestamp: "2021/02/01 10:00"},
	}

	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortByStars, []string{"b", "a", "c"}},
		{SortByDate, []string{"c", "a", "b"}},
		{SortOrder("upstream"), []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			got := SortComments(in, tt.order)
			for i, u := range tt.want {
				if got[i].User != u {
					t.Fatalf("position %d = %s, want %s", i, got[i].User, u)
				}
			}
		})
	}

	if in[0].User != "a" || in[1].User != "b" {
		t.Error("input slice was reordered")
	}
}

func TestPercent(t *testing.T) {
	tests := []struct{ done, total, want int }{
		{0, 0, 100},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 66},
		{3, 3, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.done, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}
