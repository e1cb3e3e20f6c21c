package ingest

import (
	"fmt"
	"log"

	"github.com/mischavandenburg/health-api/internal/aggregator"
	"github.com/mischavandenburg/health-api/internal/models"
	"github.com/mischavandenburg/health-api/internal/oura"
	"github.com/mischavandenburg/health-api/internal/store"
)

// Writer is the persistence capability the pipelines depend on.
type Writer interface {
	UpsertRows(table store.Table, required []string, rows store.Rows) (int, error)
	UpsertBatch(table store.Table, records []store.Record) error
}

// TableSpec binds a push endpoint to its target table: which metric names
// it accepts and, for strict tables, which columns a row must carry in
// full before it is written.
type TableSpec struct {
	Table           store.Table
	AllowedMetrics  []string
	RequiredColumns []string
}

// DietSpec accepts dietary metrics into the diet table, one row per date,
// columns filled in as they arrive.
var DietSpec = TableSpec{
	Table:          store.Diet,
	AllowedMetrics: store.Diet.Columns,
}

// BodyCompositionSpec accepts body metrics into the body_composition table.
// The table is strict: a date is only written once all four metrics are
// present for it.
var BodyCompositionSpec = TableSpec{
	Table:           store.BodyComposition,
	AllowedMetrics:  store.BodyComposition.Columns,
	RequiredColumns: store.BodyComposition.Columns,
}

// Result summarizes one push ingestion for the caller.
type Result struct {
	SamplesProcessed int
	RowsWritten      int
}

// Service sequences the ingestion pipelines: aggregate or fetch, then
// write, then summarize. Failures from lower layers propagate as-is.
type Service struct {
	writer Writer
}

func NewService(w Writer) *Service {
	return &Service{writer: w}
}

// IngestMetrics runs the push pipeline for one payload: fold the metric
// batch into per-date rows scoped to the spec's allow-list, then upsert
// them into the spec's table in a single transaction.
func (s *Service) IngestMetrics(metrics []models.Metric, spec TableSpec) (Result, error) {
	rows, processed, err := aggregator.Aggregate(metrics, spec.AllowedMetrics, spec.Table.Name)
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		log.Printf("No rows to write to table %s (%d samples processed)", spec.Table.Name, processed)
		return Result{SamplesProcessed: processed}, nil
	}

	written, err := s.writer.UpsertRows(spec.Table, spec.RequiredColumns, rows)
	if err != nil {
		return Result{SamplesProcessed: processed}, fmt.Errorf("failed to write rows to table %s: %w", spec.Table.Name, err)
	}
	log.Printf("Wrote %d rows to table %s from %d samples", written, spec.Table.Name, processed)
	return Result{SamplesProcessed: processed, RowsWritten: written}, nil
}

// SyncSleep runs the pull pipeline for sleep sessions: fetch the vendor's
// flat records for the date window and upsert them keyed by session id.
func (s *Service) SyncSleep(client oura.Client, startDate, endDate string) (int, error) {
	records, err := client.FetchSleep(startDate, endDate)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch sleep sessions: %w", err)
	}
	return s.syncRecords(store.SleepData, records)
}

// SyncHeartRate runs the pull pipeline for heart-rate samples, keyed by
// sample timestamp.
func (s *Service) SyncHeartRate(client oura.Client, startDate, endDate string) (int, error) {
	records, err := client.FetchHeartRate(startDate, endDate)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch heart-rate samples: %w", err)
	}
	return s.syncRecords(store.HeartRate, records)
}

func (s *Service) syncRecords(table store.Table, records []store.Record) (int, error) {
	filtered := make([]store.Record, 0, len(records))
	for _, rec := range records {
		filtered = append(filtered, filterRecord(table, rec))
	}
	if err := s.writer.UpsertBatch(table, filtered); err != nil {
		return 0, fmt.Errorf("failed to write batch to table %s: %w", table.Name, err)
	}
	log.Printf("Upserted %d records into table %s", len(filtered), table.Name)
	return len(filtered), nil
}

// filterRecord drops vendor fields outside the table's declared column
// set, such as array-valued phase data the relational schema has no home
// for. The key set that survives still has to be uniform across the batch;
// the writer enforces that.
func filterRecord(table store.Table, rec store.Record) store.Record {
	filtered := make(store.Record, len(rec))
	for name, value := range rec {
		if name == table.KeyColumn || table.HasColumn(name) {
			filtered[name] = value
			continue
		}
		log.Printf("Dropping field %q of a %s record: not a declared column", name, table.Name)
	}
	return filtered
}
