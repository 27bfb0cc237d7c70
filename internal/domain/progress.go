package domain

// Phase of a star-count fetch.
type Phase string

const (
	PhaseStart    Phase = "start"
	PhaseProgress Phase = "progress"
	PhaseDone     Phase = "done"
)

// ProgressReport describes how far a star-count fetch has got.
type ProgressReport struct {
	Phase        Phase `json:"phase"`
	DoneBatches  int   `json:"doneBatches"`
	TotalBatches int   `json:"totalBatches"`
	DoneURIs     int   `json:"doneUris"`
	TotalURIs    int   `json:"totalUris"`
	Percent      int   `json:"percent"`
}

// Percent returns floor(done/total*100), or 100 when total is zero.
func Percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return done * 100 / total
}
