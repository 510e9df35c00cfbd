// Package discovery lists candidate output files in a working directory
// by extension and size cap, with an optional .gxignore pre-filter,
// grounded on the source project's findLogFiles and on internal/scanner's
// filepath.WalkDir + gitignore-matching pattern.
package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// defaultExtensions is the set substituted when the caller requests the
// default ".log" extension: Gaussian output is conventionally named
// either way.
var defaultExtensions = []string{".log", ".out"}

// ignoreFileName is the optional gitignore-syntax exclude file consulted
// before the extension/size rules apply. Its absence is a no-op.
const ignoreFileName = ".gxignore"

// Options configures a discovery pass.
type Options struct {
	Dir        string
	Extensions []string // e.g. [".log"]; expanded to {.log,.out} automatically
	MaxSizeMB  int64    // 0 disables the size cap
}

// Find lists regular files directly in opts.Dir whose extension
// (case-insensitive) is in the requested set and whose size is within the
// cap, after removing any paths matched by a .gxignore file in opts.Dir.
// Results are deduplicated and sorted by name.
func Find(opts Options) ([]string, error) {
	exts := normalizeExtensions(opts.Extensions)
	matcher := loadIgnoreMatcher(opts.Dir)

	entries, err := os.ReadDir(opts.Dir)
	if err != nil {
		return nil, err
	}

	maxBytes := opts.MaxSizeMB * 1024 * 1024

	seen := make(map[string]bool, len(entries))
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !hasExtension(name, exts) {
			continue
		}
		if matcher != nil && matcher.Match([]string{name}, false) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if maxBytes > 0 && info.Size() > maxBytes {
			continue
		}

		path := filepath.Join(opts.Dir, name)
		if seen[path] {
			continue
		}
		seen[path] = true
		files = append(files, path)
	}

	sort.Strings(files)
	return files, nil
}

// batchSize bounds the chunk size used by FindBatched so memory stays
// proportional to one chunk rather than the full directory listing.
const batchSize = 10000

// FindBatched behaves like Find but streams matching paths to fn in fixed-
// size chunks, bounding memory use for directories with millions of
// entries. fn is called with a non-empty, sorted slice for every chunk
// except possibly it returns early if fn returns an error.
func FindBatched(opts Options, fn func(chunk []string) error) error {
	exts := normalizeExtensions(opts.Extensions)
	matcher := loadIgnoreMatcher(opts.Dir)
	maxBytes := opts.MaxSizeMB * 1024 * 1024

	entries, err := os.ReadDir(opts.Dir)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, batchSize)
	chunk := make([]string, 0, batchSize)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		sort.Strings(chunk)
		if err := fn(chunk); err != nil {
			return err
		}
		chunk = chunk[:0]
		return nil
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !hasExtension(name, exts) {
			continue
		}
		if matcher != nil && matcher.Match([]string{name}, false) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if maxBytes > 0 && info.Size() > maxBytes {
			continue
		}

		path := filepath.Join(opts.Dir, name)
		if seen[path] {
			continue
		}
		seen[path] = true
		chunk = append(chunk, path)

		if len(chunk) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	return flush()
}

func normalizeExtensions(requested []string) []string {
	if len(requested) == 1 && strings.EqualFold(requested[0], ".log") {
		return defaultExtensions
	}
	if len(requested) == 0 {
		return defaultExtensions
	}
	return requested
}

func hasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// loadIgnoreMatcher reads dir/.gxignore, if present, and returns a
// gitignore matcher for its patterns, or nil if the file is absent or
// empty. Read errors other than "does not exist" are treated the same as
// absence: the ignore file is strictly an optional convenience.
func loadIgnoreMatcher(dir string) gitignore.Matcher {
	path := filepath.Join(dir, ignoreFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	if len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}
