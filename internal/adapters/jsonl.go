package adapters

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"factorynet/internal/episode"
	"factorynet/internal/logging"
	"factorynet/internal/pipeline"
	"factorynet/internal/services"
	"factorynet/internal/taxonomy"
)

// JSONLName is the registry name of the JSON-lines adapter.
const JSONLName = "jsonl"

// MaxLineBytes bounds one encoded raw episode. A longer line ends the stream
// with an error.
const MaxLineBytes = 64 << 20

// JSONL reads raw episodes from a JSON-lines file.
type JSONL struct {
	path    string
	dataset string
	logger  *slog.Logger
	total   int
	counted bool
}

// NewJSONL is the Constructor for the jsonl adapter.
func NewJSONL(opts Options) (Adapter, error) {
	path := strings.TrimSpace(opts.Input)
	if path == "" {
		return nil, fmt.Errorf("input path is required")
	}
	return &JSONL{
		path:    path,
		dataset: strings.TrimSpace(opts.Dataset),
		logger:  logging.NewComponentLogger(opts.Logger, "adapter.jsonl"),
	}, nil
}

func (a *JSONL) Name() string { return JSONLName }

func (a *JSONL) Metadata() DatasetMetadata {
	name := a.dataset
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(a.path), filepath.Ext(a.path))
	}
	return DatasetMetadata{
		Name:        name,
		FullName:    name + " (JSON lines)",
		Description: "Raw episodes pre-converted to one JSON object per line",
		FileFormat:  ".jsonl",
		MachineType: "bearing_test_rig",
		MachineCode: taxonomy.MachineCode(name),
	}
}

// HealthCheck reports whether the input file can be opened.
func (a *JSONL) HealthCheck(context.Context) Health {
	info, err := os.Stat(a.path)
	switch {
	case err != nil:
		return Unhealthy(JSONLName, err.Error())
	case info.IsDir():
		return Unhealthy(JSONLName, fmt.Sprintf("%s is a directory", a.path))
	}
	f, err := os.Open(a.path)
	if err != nil {
		return Unhealthy(JSONLName, err.Error())
	}
	f.Close()
	return Healthy(JSONLName)
}

// Episodes opens the file on the first Next call and closes it once the
// stream ends.
func (a *JSONL) Episodes(context.Context) pipeline.Source {
	return &jsonlSource{adapter: a}
}

// Total counts non-blank lines. It is computed once per adapter and is only
// an estimate for progress logging: malformed lines are included.
func (a *JSONL) Total() int {
	if a.counted {
		return a.total
	}
	a.counted = true
	f, err := os.Open(a.path)
	if err != nil {
		return 0
	}
	defer f.Close()
	scanner := newLineScanner(f)
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
			a.total++
		}
	}
	return a.total
}

type jsonlSource struct {
	adapter *JSONL
	file    *os.File
	scanner *bufio.Scanner
	line    int
	done    bool
}

// Total lets the pipeline size its progress log.
func (s *jsonlSource) Total() int { return s.adapter.Total() }

func (s *jsonlSource) Next(ctx context.Context) (episode.RawEpisode, bool, error) {
	if s.done {
		return episode.RawEpisode{}, false, nil
	}
	if err := ctx.Err(); err != nil {
		s.close()
		return episode.RawEpisode{}, false, err
	}
	if s.file == nil {
		f, err := os.Open(s.adapter.path)
		if err != nil {
			s.done = true
			return episode.RawEpisode{}, false, services.Wrap(services.ErrExternal, "adapters", "open input", s.adapter.path, err)
		}
		s.file = f
		s.scanner = newLineScanner(f)
	}

	for s.scanner.Scan() {
		s.line++
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var raw episode.RawEpisode
		if err := json.Unmarshal(line, &raw); err != nil {
			logging.WarnWithContext(s.adapter.logger, "skipping malformed raw episode line", "raw_episode_skipped",
				logging.String("path", s.adapter.path),
				logging.Int("line", s.line),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "each line must be one complete RawEpisode JSON object"),
			)
			continue
		}
		s.fill(&raw)
		return raw, true, nil
	}

	err := s.scanner.Err()
	s.close()
	if err != nil {
		return episode.RawEpisode{}, false, services.Wrap(services.ErrExternal, "adapters", "read input",
			fmt.Sprintf("%s line %d", s.adapter.path, s.line+1), err)
	}
	return episode.RawEpisode{}, false, nil
}

func (s *jsonlSource) fill(raw *episode.RawEpisode) {
	if raw.RawID == "" {
		raw.RawID = fmt.Sprintf("line-%d", s.line)
	}
	if s.adapter.dataset != "" {
		raw.SourceDataset = s.adapter.dataset
	}
	if raw.SourceFile == "" {
		raw.SourceFile = filepath.Base(s.adapter.path)
	}
}

func (s *jsonlSource) close() {
	s.done = true
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
}

func newLineScanner(f *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(f)
	// Raw episodes carry full sample arrays, so lines run to megabytes.
	scanner.Buffer(make([]byte, 0, 1024*1024), MaxLineBytes)
	return scanner
}
