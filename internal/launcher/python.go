package launcher

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"automationhub/internal/execute"
	"automationhub/internal/logging"
)

// pythonProbeOrder is the discovery cascade used when no interpreter is
// configured. "py" is the Windows launcher shim.
var pythonProbeOrder = []string{"python3", "python", "py"}

// ErrInterpreterNotFound is the documented hard failure for the
// virtual-environment variant: no usable Python on the search path.
var ErrInterpreterNotFound = fmt.Errorf("python interpreter not found on PATH")

// Version is a parsed Python interpreter version. Zero components act as
// wildcards in IsSatisfiedBy, so "3.11" is satisfied by any 3.11.x.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses "3", "3.11", "3.11.4", or `python --version` output
// such as "Python 3.11.4".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Python ")
	// Anaconda builds report e.g. "Python 3.11.4 :: Anaconda, Inc."
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return Version{}, fmt.Errorf("empty version string")
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid version string: %q", s)
	}

	var v Version
	dst := []*int{&v.Major, &v.Minor, &v.Patch}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version component %q in %q", part, s)
		}
		*dst[i] = n
	}
	return v, nil
}

// String renders the version in "major.minor.patch" form, dropping
// trailing zero components.
func (v Version) String() string {
	if v.Patch > 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor > 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(v.Major)
}

// IsZero reports whether the version is entirely unset.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0 && v.Patch == 0
}

// IsSatisfiedBy reports whether other satisfies v, treating zero
// components of v as wildcards.
func (v Version) IsSatisfiedBy(other Version) bool {
	if v.Major != 0 && v.Major != other.Major {
		return false
	}
	if v.Minor != 0 && v.Minor != other.Minor {
		return false
	}
	if v.Patch != 0 && v.Patch != other.Patch {
		return false
	}
	return true
}

// LookPathFunc resolves a binary name on the search path.
// It matches the signature of exec.LookPath and exists for test injection.
type LookPathFunc func(file string) (string, error)

// findInterpreter resolves the system Python used to create environments.
// An explicitly configured path wins; otherwise the probe cascade is
// walked in order. Returns ErrInterpreterNotFound when nothing resolves.
func findInterpreter(configured string, lookPath LookPathFunc) (string, error) {
	if configured != "" {
		path, err := lookPath(configured)
		if err != nil {
			return "", fmt.Errorf("configured interpreter %q not found: %w", configured, ErrInterpreterNotFound)
		}
		logging.EnvDebug("Using configured interpreter: %s", path)
		return path, nil
	}

	for _, name := range pythonProbeOrder {
		path, err := lookPath(name)
		if err == nil {
			logging.EnvDebug("Discovered interpreter %q at %s", name, path)
			return path, nil
		}
	}

	return "", ErrInterpreterNotFound
}

// probeVersion asks an interpreter for its version. Older interpreters
// print to stderr, so the combined output is parsed.
func probeVersion(ctx context.Context, executor execute.Executor, python string) (Version, error) {
	result, err := executor.Execute(ctx, execute.Command{
		Binary:    python,
		Arguments: []string{"--version"},
	})
	if err != nil {
		return Version{}, fmt.Errorf("version probe failed: %w", err)
	}
	if result.IsError() {
		return Version{}, fmt.Errorf("version probe failed: %s", result.Error)
	}
	return ParseVersion(result.Output())
}
