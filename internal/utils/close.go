package utils

import (
	"io"

	"github.com/MrSnakeDoc/sidemark/internal/logger"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup in defer where error handling is not critical.
func Close(c io.Closer) {
	_ = c.Close()
}

// DrainClose discards what is left of a response body, up to limit bytes,
// then closes it so the connection can be reused.
func DrainClose(rc io.ReadCloser, limit int64) {
	_, _ = io.CopyN(io.Discard, rc, limit)
	_ = rc.Close()
}

// MustClose closes c and logs any error.
func MustClose(c io.Closer, log logger.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.Error(err))
	}
}
