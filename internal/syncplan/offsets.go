package syncplan

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"dubmux/internal/episode"
	"dubmux/internal/logging"
)

// Offsets maps episode keys to signed millisecond offsets.
type Offsets map[episode.Key]int

// Lookup returns the offset for key, or 0 when the table has no entry.
func (o Offsets) Lookup(key episode.Key) int {
	if o == nil {
		return 0
	}
	return o[key]
}

// Keys returns the table keys in episode order.
func (o Offsets) Keys() []episode.Key {
	keys := make([]episode.Key, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadOffsets reads an offset table. The format follows the file extension:
// .toml and .yaml/.yml hold a flat key = offset mapping (optionally nested
// under an "offsets" table), anything else is read as CSV rows of
// key,offset_ms. Malformed rows are skipped with a warning. A missing file
// yields an empty table and a warning; an empty path yields an empty table.
func LoadOffsets(path string, logger *slog.Logger) (Offsets, error) {
	logger = logging.NewComponentLogger(logger, "offsets")
	path = strings.TrimSpace(path)
	if path == "" {
		return Offsets{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(logger, "offset table not found", "offsets_missing",
			logging.String("path", path),
			logging.String(logging.FieldImpact, "all episodes use a zero offset"),
			logging.String(logging.FieldErrorHint, "check batch.offsets_file or --offsets"),
		)
		return Offsets{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read offset table: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		raw := map[string]any{}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse offset table %s: %w", path, err)
		}
		return fromMapping(raw, logger), nil
	case ".yaml", ".yml":
		raw := map[string]any{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse offset table %s: %w", path, err)
		}
		return fromMapping(raw, logger), nil
	default:
		return parseCSV(bytes.NewReader(data), logger)
	}
}

func parseCSV(r io.Reader, logger *slog.Logger) (Offsets, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	offsets := Offsets{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			skipRow(logger, parseErr.Line, "unparseable row")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read offset csv: %w", err)
		}
		if len(row) < 2 {
			continue
		}
		key, ok := episode.ParseKey(row[0])
		if !ok {
			// Header rows land here too.
			continue
		}
		ms, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			line, _ := reader.FieldPos(1)
			skipRow(logger, line, "offset is not an integer")
			continue
		}
		offsets[key] = ms
	}
	return offsets, nil
}

func fromMapping(raw map[string]any, logger *slog.Logger) Offsets {
	if nested, ok := raw["offsets"].(map[string]any); ok {
		raw = nested
	}
	offsets := Offsets{}
	for name, value := range raw {
		key, ok := episode.ParseKey(name)
		if !ok {
			logger.Debug("offset entry skipped", logging.String("key", name), logging.String("reason", "not an episode key"))
			continue
		}
		ms, ok := toMillis(value)
		if !ok {
			logger.Warn("offset entry skipped",
				logging.String(logging.FieldEpisodeKey, key.String()),
				logging.String("reason", "offset is not an integer"),
				logging.String(logging.FieldEventType, "offset_row_skipped"),
			)
			continue
		}
		offsets[key] = ms
	}
	return offsets
}

func toMillis(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		if v > math.MaxInt32 {
			return 0, false
		}
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		ms, err := strconv.Atoi(strings.TrimSpace(v))
		return ms, err == nil
	default:
		return 0, false
	}
}

func skipRow(logger *slog.Logger, line int, reason string) {
	logger.Warn("offset row skipped",
		logging.Int("line", line),
		logging.String("reason", reason),
		logging.String(logging.FieldEventType, "offset_row_skipped"),
	)
}
