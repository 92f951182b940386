package episode

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dubmux/internal/logging"
)

// mediaExtensions lists the container and audio extensions considered during
// a scan (lowercase, with leading dot).
var mediaExtensions = map[string]bool{
	".mkv":  true,
	".mp4":  true,
	".m4v":  true,
	".mov":  true,
	".avi":  true,
	".mpg":  true,
	".ts":   true,
	".mka":  true,
	".flac": true,
	".aac":  true,
	".ac3":  true,
	".dts":  true,
	".opus": true,
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
}

// IsMediaFile reports whether name carries a recognized media extension.
func IsMediaFile(name string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(name))]
}

// Pair is an episode present in both trees.
type Pair struct {
	Key       Key
	BasePath  string
	DonorPath string
}

// statFunc is swapped in tests to simulate stat failures during tie-breaks.
var statFunc = os.Stat

// Scan walks root and maps every recognized media file to its episode key.
// Files without a key are ignored. When two files share a key the one at the
// shallower depth wins; at equal depth the most recently modified file wins.
// A stat failure during the tie-break keeps the file already recorded.
// Only an unreadable root is an error; entries below it that cannot be read
// are skipped and logged at debug.
func Scan(root string, extractor Extractor, logger *slog.Logger) (map[Key]string, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	mapping := make(map[Key]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Debug("unreadable entry skipped",
				logging.String("path", path),
				logging.Error(err),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsMediaFile(d.Name()) {
			return nil
		}
		key, ok := extractor.Extract(d.Name())
		if !ok {
			return nil
		}
		existing, seen := mapping[key]
		if !seen || prefer(path, existing) {
			mapping[key] = path
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return mapping, nil
}

// prefer reports whether candidate should replace incumbent for the same key.
func prefer(candidate, incumbent string) bool {
	cd, id := depth(candidate), depth(incumbent)
	if cd != id {
		return cd < id
	}
	ci, err := statFunc(candidate)
	if err != nil {
		return false
	}
	ii, err := statFunc(incumbent)
	if err != nil {
		return false
	}
	return ci.ModTime().After(ii.ModTime())
}

func depth(path string) int {
	return strings.Count(filepath.ToSlash(filepath.Clean(path)), "/")
}

// PairDirs scans both trees and returns the episodes present in each, sorted
// by key length and then key. Keys found in only one tree are dropped.
func PairDirs(baseDir, donorDir string, extractor Extractor, logger *slog.Logger) ([]Pair, error) {
	baseMap, err := Scan(baseDir, extractor, logger)
	if err != nil {
		return nil, err
	}
	donorMap, err := Scan(donorDir, extractor, logger)
	if err != nil {
		return nil, err
	}
	return Intersect(baseMap, donorMap), nil
}

// Intersect pairs two key maps.
func Intersect(baseMap, donorMap map[Key]string) []Pair {
	pairs := make([]Pair, 0, len(baseMap))
	for key, basePath := range baseMap {
		donorPath, ok := donorMap[key]
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{Key: key, BasePath: basePath, DonorPath: donorPath})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Key.Less(pairs[j].Key)
	})
	return pairs
}

// Unpaired returns the sorted keys present in only one of the two maps.
func Unpaired(baseMap, donorMap map[Key]string) (baseOnly, donorOnly []Key) {
	for key := range baseMap {
		if _, ok := donorMap[key]; !ok {
			baseOnly = append(baseOnly, key)
		}
	}
	for key := range donorMap {
		if _, ok := baseMap[key]; !ok {
			donorOnly = append(donorOnly, key)
		}
	}
	less := func(keys []Key) func(i, j int) bool {
		return func(i, j int) bool { return keys[i].Less(keys[j]) }
	}
	sort.Slice(baseOnly, less(baseOnly))
	sort.Slice(donorOnly, less(donorOnly))
	return baseOnly, donorOnly
}
