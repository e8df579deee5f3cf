// Package verify checks the evidence a hardware test run leaves behind.
//
// Validate counts pattern matches in report files written by the target and
// by the host, and Compare/WriteHostReport produce the host report from the
// files captured by a duplex run.
package verify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrValidation matches every *ValidationError with errors.Is
var ErrValidation = errors.New("evidence validation failed")

// Report locations relative to the project root and their markers
const (
	TargetReport  = "testing/target.rpt"
	TargetPattern = `^Tile\[(\d{1})\]\|FCore\[(\d{1})\]\|(\d+)\|TEST\|PASS USB$`

	// TargetFailPattern matches a four-character verdict other than PASS
	TargetFailPattern = `^Tile\[(\d{1})\]\|FCore\[(\d{1})\]\|(\d+)\|TEST\|([^\WP]\w{3}|P[^\WA]\w{2}|PA[^\WS]\w|PAS[^\WS]) USB$`

	HostReport  = "testing/host.rpt"
	HostPattern = `^\[TEST PASS\]:`
)

// EvidencePattern expects Pattern to match exactly Expected times in the file at Path
type EvidencePattern struct {
	Name     string `mapstructure:"name"`
	Path     string `mapstructure:"path"`
	Pattern  string `mapstructure:"pattern"`
	Expected int    `mapstructure:"expected"`
}

// DefaultPatterns returns the target and host patterns for a project root.
// Each core under test reports one PASS line to the target report and no
// core may report any other verdict.
func DefaultPatterns(root string, cores int) []EvidencePattern {
	return []EvidencePattern{
		{
			Name:     "target",
			Path:     filepath.Join(root, TargetReport),
			Pattern:  TargetPattern,
			Expected: cores,
		},
		{
			Name:     "host",
			Path:     filepath.Join(root, HostReport),
			Pattern:  HostPattern,
			Expected: 1,
		},
		{
			Name:     "target-verdicts",
			Path:     filepath.Join(root, TargetReport),
			Pattern:  TargetFailPattern,
			Expected: 0,
		},
	}
}

// Failure is one pattern that did not hold
type Failure struct {
	Index   int // position of Pattern in the Validate argument
	Pattern EvidencePattern
	Actual  int
	Err     error // set when the file could not be read or the pattern did not compile
}

func (f Failure) String() string {
	name := f.Pattern.Name
	if name == "" {
		name = f.Pattern.Pattern
	}
	if f.Err != nil {
		return fmt.Sprintf("%s (%s): %v", name, f.Pattern.Path, f.Err)
	}
	return fmt.Sprintf("%s (%s): expected %d matches, got %d", name, f.Pattern.Path, f.Pattern.Expected, f.Actual)
}

// ValidationError lists every failing pattern of a Validate call
type ValidationError struct {
	Failures []Failure
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		lines[i] = f.String()
	}
	return fmt.Sprintf("%d evidence check(s) failed: %s", len(e.Failures), strings.Join(lines, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validate checks every pattern and reports all failures in one *ValidationError
func Validate(patterns []EvidencePattern) error {
	var failures []Failure
	for i, p := range patterns {
		n, err := CountFile(p.Path, p.Pattern)
		if err != nil {
			failures = append(failures, Failure{Index: i, Pattern: p, Err: err})
			continue
		}
		if n != p.Expected {
			failures = append(failures, Failure{Index: i, Pattern: p, Actual: n})
		}
	}

	if len(failures) > 0 {
		return &ValidationError{Failures: failures}
	}
	return nil
}

// CountFile counts the matches of pattern in the file at path
func CountFile(path, pattern string) (int, error) {
	re, err := Compile(pattern)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return Count(re, string(data)), nil
}

// Compile compiles pattern in multi-line mode, so ^ and $ match at every line
func Compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?m)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

// Count returns the number of non-overlapping matches of re in text.
// CRLF and bare CR line endings are treated as LF.
func Count(re *regexp.Regexp, text string) int {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return len(re.FindAllStringIndex(text, -1))
}
