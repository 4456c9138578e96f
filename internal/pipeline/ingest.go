package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"go-forum-analytics/internal/model"
	"go-forum-analytics/internal/warehouse"
	"go-forum-analytics/pkg/utils"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

// Fetcher runs a warehouse query. *warehouse.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, name, query string) (*model.Table, error)
}

// ------------------- Ingestion -------------------

// Load reads one input table. Every failure comes back as a DataFetchError.
func Load(ctx context.Context, name string, src model.Source, fetcher Fetcher) (*model.Table, error) {
	fmt.Printf("➡️ Loading %s from %s source\n", name, src.Type)

	var (
		t   *model.Table
		err error
	)
	switch strings.ToLower(src.Type) {
	case "warehouse", "sql":
		if fetcher == nil {
			return nil, warehouse.NewDataFetchError(name, src.Query, fmt.Errorf("no warehouse configured"))
		}
		if strings.TrimSpace(src.Query) == "" {
			return nil, warehouse.NewDataFetchError(name, src.Query, fmt.Errorf("empty query"))
		}
		t, err = fetcher.Fetch(ctx, name, src.Query)
		if err != nil {
			if warehouse.IsDataFetchError(err) {
				return nil, err
			}
			return nil, warehouse.NewDataFetchError(name, src.Query, err)
		}
	case "csv":
		t, err = loadCSV(ctx, name, src.URL)
	case "json", "api":
		t, err = loadJSON(ctx, name, src.URL)
	default:
		err = fmt.Errorf("unknown source type: %s", src.Type)
	}
	if err != nil {
		return nil, warehouse.NewDataFetchError(name, src.URL, err)
	}

	t.Name = name
	fmt.Printf("✅ Loaded %s: %d rows, %d columns\n", name, t.Len(), len(t.Columns))
	return t, nil
}

// open returns a reader for a local path or an http(s) URL.
func open(ctx context.Context, pathOrURL string) (io.ReadCloser, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pathOrURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to GET %s: %w", pathOrURL, err)
		}
		if resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("GET %s: unexpected status %s", pathOrURL, resp.Status)
		}
		return resp.Body, nil
	}

	file, err := os.Open(pathOrURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// ------------------- CSV Ingestion -------------------
func loadCSV(ctx context.Context, name, pathOrURL string) (*model.Table, error) {
	rc, err := open(ctx, pathOrURL)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadCSV(name, rc)
}

// ReadCSV parses delimited text with a header row. Cells are kept as text by
// the reader and typed afterwards, so blank, NaN and NULL cells become missing.
func ReadCSV(name string, r io.Reader) (*model.Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.WithLazyQuotes(true),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", df.Err)
	}

	records := df.Records()
	if len(records) == 0 {
		return nil, fmt.Errorf("failed to read CSV header")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		// header cells sometimes carry stray quotes from the export tool
		headers[i] = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
	}

	t := model.NewTable(name, headers...)
	for _, row := range records[1:] {
		rec := make(model.GenericRecord, len(headers))
		for i, h := range headers {
			rec[h] = utils.ParseValue(row[i])
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// ------------------- JSON / API Ingestion -------------------
func loadJSON(ctx context.Context, name, pathOrURL string) (*model.Table, error) {
	rc, err := open(ctx, pathOrURL)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadJSON(name, rc)
}

// ReadJSON decodes an array of objects, or a single object, into a table.
// Column order is first appearance, keys sorted within each object.
func ReadJSON(name string, r io.Reader) (*model.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	var items []interface{}
	switch data := raw.(type) {
	case []interface{}:
		items = data
	case map[string]interface{}:
		items = []interface{}{data}
	default:
		return nil, fmt.Errorf("unexpected JSON structure")
	}

	t := model.NewTable(name)
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected JSON element %T", item)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		rec := make(model.GenericRecord, len(m))
		for _, k := range keys {
			t.AddColumn(k)
			rec[k] = jsonValue(m[k])
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func jsonValue(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		return utils.ParseValue(val.String())
	case string:
		if utils.IsMissingToken(val) {
			return nil
		}
		return val
	default:
		return val
	}
}
