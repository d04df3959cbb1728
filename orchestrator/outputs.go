package orchestrator

import (
	"os"
	"path/filepath"
	"time"
)

// SessionDir creates outputs/session_<timestamp> for the charts of one run.
func SessionDir(outputsRoot string) (string, string, error) {
	ts := time.Now().Format("20060102-150405")
	sid := "session_" + ts
	dir := filepath.Join(outputsRoot, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	return sid, dir, nil
}
