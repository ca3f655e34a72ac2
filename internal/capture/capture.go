// Package capture records raw upstream responses to disk so they can be
// replayed as test fixtures.
package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Recorder writes numbered capture files under <dir>/<session>/. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	dir     string
	session string
	seq     atomic.Uint64
}

// New returns a recorder rooted at dir, or nil when dir is empty.
func New(dir string) *Recorder {
	if dir == "" {
		return nil
	}
	return &Recorder{
		dir:     dir,
		session: time.Now().Format("20060102-150405"),
	}
}

// Write stores data as <category>-<seq>.<ext> and returns the path written.
// Failures are logged and otherwise ignored.
func (r *Recorder) Write(category, ext string, data []byte) string {
	if r == nil {
		return ""
	}

	sessionDir := filepath.Join(r.dir, r.session)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", sessionDir).Msg("capture: failed to create directory")
		return ""
	}

	path := filepath.Join(sessionDir, fmt.Sprintf("%s-%04d.%s", category, r.seq.Add(1), ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("capture: failed to write file")
		return ""
	}

	log.Debug().Str("path", path).Msg("capture: wrote file")
	return path
}
