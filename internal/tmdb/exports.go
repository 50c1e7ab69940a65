package tmdb

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/filmatlas/filmatlas/internal/config"
)

// Export file lines can carry long original titles; one megabyte of
// scanner buffer is far beyond any observed line.
const maxExportLine = 1024 * 1024

// Export is one decoded daily ID export: the authoritative set of ids
// existing upstream for a kind on a given day.
type Export struct {
	IDs        []int64
	Popularity map[int64]float64

	// Malformed lines skipped during decoding.
	Skipped int
}

// Contains reports whether id is present in the export.
func (e *Export) Contains(id int64) bool {
	_, ok := e.Popularity[id]
	return ok
}

// SortByPopularity orders the id list by descending popularity so a
// limited subset picks the most popular entities first.
func (e *Export) SortByPopularity() {
	sort.SliceStable(e.IDs, func(i, j int) bool {
		return e.Popularity[e.IDs[i]] > e.Popularity[e.IDs[j]]
	})
}

// ExportReader downloads and decodes daily compressed ID export files.
// Export files live on a separate host with no request budget, so the
// reader does not go through the rate-limited client.
type ExportReader struct {
	baseURL    string
	httpClient *http.Client
	logger     hclog.Logger
}

// NewExportReader creates an ExportReader.
func NewExportReader(cfg config.TMDBConfig, logger hclog.Logger) *ExportReader {
	return &ExportReader{
		baseURL: cfg.ExportBaseURL,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute, // export files run to hundreds of megabytes
		},
		logger: logger.Named("exports"),
	}
}

// exportLine is the part of an export record the sync engine uses.
type exportLine struct {
	ID         int64   `json:"id"`
	Popularity float64 `json:"popularity"`
}

// Read fetches and decodes the export for a kind. A zero date means the
// most recent file (today, UTC). Malformed lines are skipped and
// counted, never fatal; an unavailable file is an error.
func (r *ExportReader) Read(ctx context.Context, kind Kind, date time.Time) (*Export, error) {
	prefix, ok := exportPrefixes[kind]
	if !ok {
		return nil, fmt.Errorf("no ID export for kind %q", kind)
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	exportURL := fmt.Sprintf("%s%s_ids_%s.json.gz", r.baseURL, prefix, date.Format("01_02_2006"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download ID export %s: %w", exportURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ID export %s returned status %d", exportURL, resp.StatusCode)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	export := &Export{Popularity: make(map[int64]float64)}

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxExportLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record exportLine
		if err := json.Unmarshal(line, &record); err != nil {
			export.Skipped++
			continue
		}
		if _, dup := export.Popularity[record.ID]; dup {
			continue
		}
		export.IDs = append(export.IDs, record.ID)
		export.Popularity[record.ID] = record.Popularity
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ID export stream: %w", err)
	}

	r.logger.Info("decoded ID export", "kind", kind, "ids", len(export.IDs), "skipped", export.Skipped)
	return export, nil
}
