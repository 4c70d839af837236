package launcher

import (
	"bufio"
	"os"
	"strings"
	"time"
)

// RequirementsInfo describes the dependency manifest as found on disk.
type RequirementsInfo struct {
	Path     string    `json:"path"`
	Present  bool      `json:"present"`
	ModTime  time.Time `json:"mod_time,omitempty"`
	Packages int       `json:"packages"`
}

// InspectRequirements stats and scans the manifest. Packages counts
// requirement lines, skipping blanks, comments, and pip option lines.
func InspectRequirements(path string) RequirementsInfo {
	info := RequirementsInfo{Path: path}

	st, err := os.Stat(path)
	if err != nil {
		return info
	}
	info.Present = true
	info.ModTime = st.ModTime()

	f, err := os.Open(path)
	if err != nil {
		return info
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		info.Packages++
	}

	return info
}
