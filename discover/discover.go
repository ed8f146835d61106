// Package discover extracts the set of firmware files the running kernel
// actually loaded, by scanning kernel log lines for firmware-load records.
//
// The kernel only logs a firmware load when debug logging for that code
// path is enabled, and the ring buffer may have rotated out early boot
// messages. Both are environmental preconditions the user must manage;
// an empty result is valid, not an error.
package discover

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"sort"
	"strings"
)

// firmwareLoadPattern matches kernel firmware-load records, e.g.
//
//	[1.234] usb 1-1: Loading firmware from "iwlwifi-1.ucode"
//	[2.001] ath10k_pci 0000:02:00.0: direct-loading firmware ath10k/cal-pci.bin
var firmwareLoadPattern = regexp.MustCompile(`(?i)loading firmware`)

// firmwareRootPrefix is stripped from tokens the kernel logged as
// absolute paths, so every collected path is relative to the source root.
const firmwareRootPrefix = "/lib/firmware/"

// PathSet is a deduplicated set of firmware file paths relative to the
// firmware source root. Order is irrelevant; Sorted gives a stable view.
type PathSet struct {
	paths map[string]struct{}
}

// NewPathSet returns an empty path set.
func NewPathSet() *PathSet {
	return &PathSet{paths: make(map[string]struct{})}
}

// Add inserts a path. Duplicates collapse silently.
func (s *PathSet) Add(path string) {
	s.paths[path] = struct{}{}
}

// Contains reports whether path is in the set.
func (s *PathSet) Contains(path string) bool {
	_, ok := s.paths[path]
	return ok
}

// Len returns the number of distinct paths.
func (s *PathSet) Len() int {
	return len(s.paths)
}

// Sorted returns the paths in lexical order.
func (s *PathSet) Sorted() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Scan reads kernel log lines from r and collects the referenced firmware
// paths. For every line matching the firmware-load record pattern, the
// final whitespace-delimited token is taken as the path, with surrounding
// quotes stripped.
func Scan(r io.Reader) (*PathSet, error) {
	set := NewPathSet()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !firmwareLoadPattern.MatchString(line) {
			continue
		}
		if path := extractPath(line); path != "" {
			set.Add(path)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// ScanBytes is Scan over an in-memory kernel log.
func ScanBytes(data []byte) (*PathSet, error) {
	return Scan(bytes.NewReader(data))
}

// extractPath pulls the firmware path out of one matching log line.
// Returns "" when the line carries no usable token.
func extractPath(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	token := strings.Trim(fields[len(fields)-1], `"'`)
	token = strings.TrimPrefix(token, firmwareRootPrefix)
	token = strings.TrimPrefix(token, "/")
	return token
}
