package sheets

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/santacasa-ti/plantao-board/internal/config"
	"github.com/santacasa-ti/plantao-board/internal/models"
	"github.com/santacasa-ti/plantao-board/pkg/metrics"
)

var (
	// ErrSourceUnavailable covers network, auth and timeout failures against
	// the spreadsheet. Callers keep their last known good data
	ErrSourceUnavailable = errors.New("external source unavailable")

	// ErrSourceEmpty means the fetch succeeded but the grid held fewer than a
	// header plus one data row. Treated as a benign no-op, not an error
	ErrSourceEmpty = errors.New("external source returned no usable rows")
)

const sheetsAPIBase = "https://sheets.googleapis.com/v4/spreadsheets"

// Client fetches shift-change snapshots from a Google spreadsheet. It prefers
// the Sheets API v4 when an API key is configured and falls back to the
// published CSV export URL. A single-entry cache absorbs bursts of calls so a
// page full of auto-refreshing viewers does not hammer the Google quota
type Client struct {
	httpClient *http.Client
	apiURL     string
	csvURL     string
	cacheTTL   time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu        sync.Mutex
	cached    []models.SnapshotRow
	fetchedAt time.Time
}

// NewClient builds the adapter from configuration. cacheTTL of zero disables
// the snapshot cache entirely
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	var apiURL string
	if cfg.SheetID != "" && cfg.SheetsAPIKey != "" {
		apiURL = fmt.Sprintf("%s/%s/values/%s?key=%s",
			sheetsAPIBase, cfg.SheetID, url.PathEscape(cfg.SheetRange), url.QueryEscape(cfg.SheetsAPIKey))
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		apiURL:     apiURL,
		csvURL:     cfg.SheetCSVURL,
		cacheTTL:   cfg.CacheTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// FetchSnapshot returns the current set of parsed data rows from the sheet.
// Rows whose date cell is empty or repeats the header token are dropped
func (c *Client) FetchSnapshot(ctx context.Context) ([]models.SnapshotRow, error) {
	if rows, ok := c.cachedSnapshot(); ok {
		metrics.SourceCacheHits.Inc()
		c.logger.Debug("Serving snapshot from cache", "rows", len(rows))
		return rows, nil
	}

	start := time.Now()
	grid, err := c.fetchGrid(ctx)
	metrics.SourceFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if len(grid) < 2 {
		return nil, ErrSourceEmpty
	}

	header := grid[0]
	cols := resolveColumns(header)
	if cols[conceptDate] == absentColumn {
		// Without a date column every row would be dropped anyway; treat the
		// grid as unusable rather than silently producing nothing
		return nil, fmt.Errorf("%w: no date column in header %v", ErrSourceEmpty, header)
	}
	dateHeader := strings.TrimSpace(header[cols[conceptDate]])

	rows := make([]models.SnapshotRow, 0, len(grid)-1)
	for _, raw := range grid[1:] {
		date := cellAt(raw, cols[conceptDate])
		if date == "" || strings.EqualFold(date, dateHeader) {
			continue
		}
		rows = append(rows, models.SnapshotRow{
			Date:     canonicalDate(date),
			Building: cellAt(raw, cols[conceptBuilding]),
			Sector:   cellAt(raw, cols[conceptSector]),
			Outgoing: cellAt(raw, cols[conceptOutgoing]),
			Incoming: cellAt(raw, cols[conceptIncoming]),
			Notes:    cellAt(raw, cols[conceptNotes]),
		})
	}

	c.storeCache(rows)
	c.logger.Info("Snapshot fetched", "rows", len(rows))
	return rows, nil
}

func (c *Client) cachedSnapshot() ([]models.SnapshotRow, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cacheTTL <= 0 || len(c.cached) == 0 {
		return nil, false
	}
	if c.now().Sub(c.fetchedAt) >= c.cacheTTL {
		return nil, false
	}
	return c.cached, true
}

func (c *Client) storeCache(rows []models.SnapshotRow) {
	if c.cacheTTL <= 0 || len(rows) == 0 {
		return
	}
	c.mu.Lock()
	c.cached = rows
	c.fetchedAt = c.now()
	c.mu.Unlock()
}

// fetchGrid retrieves the raw 2-D grid of cells, row 0 being the header
func (c *Client) fetchGrid(ctx context.Context) ([][]string, error) {
	switch {
	case c.apiURL != "":
		return c.fetchGridFromAPI(ctx)
	case c.csvURL != "":
		return c.fetchGridFromCSV(ctx)
	default:
		return nil, fmt.Errorf("%w: no sheet source configured", ErrSourceUnavailable)
	}
}

func (c *Client) fetchGridFromAPI(ctx context.Context) ([][]string, error) {
	body, err := c.get(ctx, c.apiURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var payload struct {
		Values [][]string `json:"values"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding values response: %v", ErrSourceUnavailable, err)
	}
	return payload.Values, nil
}

func (c *Client) fetchGridFromCSV(ctx context.Context) ([][]string, error) {
	body, err := c.get(ctx, c.csvURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1

	var grid [][]string
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: reading csv export: %v", ErrSourceUnavailable, err)
		}
		grid = append(grid, record)
	}
	return grid, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrSourceUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected status %d", ErrSourceUnavailable, resp.StatusCode)
	}
	return resp.Body, nil
}

// dateLayouts are the cell formats seen in practice. DD/MM/YYYY first since
// that is what the sheet is supposed to contain
var dateLayouts = []string{"02/01/2006", "2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

// canonicalDate normalizes a date cell to DD/MM/YYYY. Unparseable values are
// passed through verbatim so the board still shows whatever the sheet holds
func canonicalDate(cell string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return cell
}
