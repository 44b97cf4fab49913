package connectors

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoFiles is returned when a directory holds no file with the requested
// extension.
var ErrNoFiles = errors.New("no matching files found")

type FileMeta struct {
	Path     string
	Size     int64
	Modified time.Time
}

type DiscoveryOptions struct {
	Recursive      bool
	MinSize        int64
	MaxSize        int64
	ModifiedAfter  time.Time
	ModifiedBefore time.Time
}

// DiscoverFiles lists the files under root with extension ext, sorted by
// path.
func DiscoverFiles(root string, ext string, options DiscoveryOptions) ([]FileMeta, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory cannot be empty")
	}

	stat, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access directory %s: %w", root, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return nil, fmt.Errorf("file extension cannot be empty")
	}

	var files []FileMeta
	walkFunc := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if d.IsDir() {
			if path != root && !options.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), "."+ext) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("error getting file info for %s: %w", path, err)
		}
		if !options.matches(info) {
			return nil
		}

		files = append(files, FileMeta{
			Path:     path,
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
		return nil
	}

	if err := filepath.WalkDir(root, walkFunc); err != nil {
		return nil, fmt.Errorf("directory walk error: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, root)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (o DiscoveryOptions) matches(info fs.FileInfo) bool {
	if o.MinSize > 0 && info.Size() < o.MinSize {
		return false
	}
	if o.MaxSize > 0 && info.Size() > o.MaxSize {
		return false
	}
	if !o.ModifiedAfter.IsZero() && info.ModTime().Before(o.ModifiedAfter) {
		return false
	}
	if !o.ModifiedBefore.IsZero() && info.ModTime().After(o.ModifiedBefore) {
		return false
	}
	return true
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", time.DateOnly}

// ParseTime reads a modification time bound given as RFC 3339, as a local
// date-time without zone, or as a bare date. Values without a zone are taken
// in loc.
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, want RFC 3339 or YYYY-MM-DD", value)
}

// Pair is an original file and its transformed counterpart.
type Pair struct {
	Original    FileMeta
	Transformed FileMeta
}

// Name is the original file name without directory or extension.
func (p Pair) Name() string {
	base := filepath.Base(p.Original.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// PairFiles matches dir/name.ext with dir/name<suffix>.ext. Files that are
// neither side of a pair are returned as unpaired.
func PairFiles(files []FileMeta, suffix string) (pairs []Pair, unpaired []FileMeta) {
	if suffix == "" {
		return nil, files
	}

	byPath := make(map[string]FileMeta, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}

	used := make(map[string]bool, len(files))
	for _, f := range files {
		ext := filepath.Ext(f.Path)
		stem := strings.TrimSuffix(f.Path, ext)
		if strings.HasSuffix(stem, suffix) {
			continue
		}
		t, ok := byPath[stem+suffix+ext]
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{Original: f, Transformed: t})
		used[f.Path] = true
		used[t.Path] = true
	}

	for _, f := range files {
		if !used[f.Path] {
			unpaired = append(unpaired, f)
		}
	}
	return pairs, unpaired
}
