package sequencer

import "sync/atomic"

// Stream names an independent sequence of requests.
type Stream int

const (
	// Bookmarks is the per-tab bookmark/comment stream.
	Bookmarks Stream = iota
	// OriginPopular is the per-host popularity stream.
	OriginPopular

	numStreams
)

func (s Stream) String() string {
	switch s {
	case Bookmarks:
		return "bookmarks"
	case OriginPopular:
		return "origin-popular"
	default:
		return "unknown"
	}
}

// Sequencer hands out increasing tokens per stream so that work started for
// an older request can tell it has been superseded.
type Sequencer struct {
	counters [numStreams]atomic.Uint64
}

// New returns a sequencer with every stream at zero.
func New() *Sequencer {
	return &Sequencer{}
}

// Next increments the stream's counter and returns it. The first token is 1.
func (s *Sequencer) Next(stream Stream) uint64 {
	return s.counters[stream].Add(1)
}

// Current returns the most recently issued token for stream (0 if none).
func (s *Sequencer) Current(stream Stream) uint64 {
	return s.counters[stream].Load()
}

// IsStale reports whether token has been superseded. Token 0 is never stale;
// background work uses it.
func (s *Sequencer) IsStale(stream Stream, token uint64) bool {
	return token > 0 && token < s.Current(stream)
}

// ParseStream maps a stream name back to its Stream.
func ParseStream(name string) (Stream, bool) {
	for s := Stream(0); s < numStreams; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}
