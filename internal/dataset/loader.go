// Package dataset loads the source tables and the logbook coverage
// reference list the pipeline consumes.
package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"lendlib/internal/errors"
	"lendlib/internal/member"
)

// datasetFiles maps the registered dataset names to their files under
// the data directory.
var datasetFiles = map[string]string{
	"events":  "events.csv",
	"members": "members.csv",
	"books":   "books.csv",
}

// eventColumns are the columns the events table must carry.
var eventColumns = []string{
	"event_type",
	"start_date",
	"end_date",
	"subscription_purchase_date",
	"member_uris",
	"member_names",
	"item_uri",
	"source_type",
	"subscription_duration",
	"subscription_duration_days",
	"subscription_volumes",
	"subscription_category",
}

// Table is a loaded tabular dataset: the header row and the data rows.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Loader reads registered datasets from the data directory.
type Loader struct {
	logger  *slog.Logger
	dataDir string
}

// NewLoader creates a loader rooted at the given data directory.
func NewLoader(logger *slog.Logger, dataDir string) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, dataDir: dataDir}
}

// Names returns the registered dataset names, sorted.
func Names() []string {
	names := make([]string, 0, len(datasetFiles))
	for name := range datasetFiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps dataset names to file paths, rejecting requests that
// include names not present in the registry. All unknown names are
// reported together.
func (l *Loader) Resolve(names ...string) ([]string, error) {
	var unknown []string
	paths := make([]string, 0, len(names))
	for _, name := range names {
		file, ok := datasetFiles[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		paths = append(paths, filepath.Join(l.dataDir, file))
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errors.NewUnknownDatasetError(unknown)
	}
	return paths, nil
}

// Load reads one registered dataset in full.
func (l *Loader) Load(ctx context.Context, name string) (*Table, error) {
	paths, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(paths[0])
	if err != nil {
		return nil, errors.NewStorageError("failed to open dataset "+name, err)
	}
	defer f.Close()

	table, err := readTable(name, f)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "loaded dataset",
		slog.String("dataset", name),
		slog.Int("rows", len(table.Rows)))

	return table, nil
}

// LoadEvents reads the events table and maps its rows to raw event
// records by column name. Missing required columns fail fast.
func (l *Loader) LoadEvents(ctx context.Context) ([]member.RawEvent, error) {
	table, err := l.Load(ctx, "events")
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(eventColumns))
	var missing []string
	for _, col := range eventColumns {
		i := table.ColumnIndex(col)
		if i < 0 {
			missing = append(missing, col)
			continue
		}
		idx[col] = i
	}
	if len(missing) > 0 {
		return nil, errors.NewMissingColumnError("events", missing)
	}

	records := make([]member.RawEvent, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, member.RawEvent{
			EventType:                row[idx["event_type"]],
			StartDate:                row[idx["start_date"]],
			EndDate:                  row[idx["end_date"]],
			SubscriptionPurchaseDate: row[idx["subscription_purchase_date"]],
			MemberURIs:               row[idx["member_uris"]],
			MemberNames:              row[idx["member_names"]],
			ItemURI:                  row[idx["item_uri"]],
			SourceType:               row[idx["source_type"]],
			SubscriptionDuration:     row[idx["subscription_duration"]],
			SubscriptionDurationDays: row[idx["subscription_duration_days"]],
			SubscriptionVolumes:      row[idx["subscription_volumes"]],
			SubscriptionCategory:     row[idx["subscription_category"]],
		})
	}
	return records, nil
}

func readTable(name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.NewParsingError("failed to read header of dataset "+name, err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParsingError("failed to read dataset "+name, err)
		}
		// Short rows pad out so column lookups stay in range.
		for len(row) < len(header) {
			row = append(row, "")
		}
		rows = append(rows, row)
	}

	return &Table{Name: name, Columns: header, Rows: rows}, nil
}
