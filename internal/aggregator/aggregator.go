package aggregator

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mischavandenburg/health-api/internal/models"
	"github.com/mischavandenburg/health-api/internal/store"
)

// timestampLayout is the exporter's sample timestamp format,
// e.g. "2024-08-18 08:00:00 +0000".
const timestampLayout = "2006-01-02 15:04:05 -0700"

// dateLayout is the calendar-date form used as the row key.
const dateLayout = "2006-01-02"

var (
	errMissingDate = errors.New(`sample is missing required field "date"`)
	errMissingQty  = errors.New(`sample is missing required field "qty"`)
)

// ParseError reports a sample that cannot be ingested, either because its
// timestamp is malformed or because a required field is missing. The whole
// request fails; nothing is written.
type ParseError struct {
	Metric string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bad sample %q of metric %s: %v", e.Value, e.Metric, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Aggregate folds a metric batch into one row per calendar date, keeping
// only metrics named in the allow-list. Samples of metrics outside the
// allow-list are dropped with a warning; batches legitimately carry metrics
// destined for other pipelines. Within one batch the later sample wins for
// the same metric and date.
//
// The returned count is the number of samples that contributed to the
// result. An empty batch yields an empty result and count zero.
func Aggregate(metrics []models.Metric, allowed []string, tableName string) (store.Rows, int, error) {
	allowedSet := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = true
	}

	rows := make(store.Rows)
	processed := 0
	for _, metric := range metrics {
		if !allowedSet[metric.Name] {
			log.Printf("Metric %q is not accepted by table %s, dropping %d samples", metric.Name, tableName, len(metric.Data))
			continue
		}
		for _, sample := range metric.Data {
			if sample.Date == "" {
				return nil, 0, &ParseError{Metric: metric.Name, Err: errMissingDate}
			}
			if sample.Qty == nil {
				return nil, 0, &ParseError{Metric: metric.Name, Value: sample.Date, Err: errMissingQty}
			}
			ts, err := time.Parse(timestampLayout, sample.Date)
			if err != nil {
				return nil, 0, &ParseError{Metric: metric.Name, Value: sample.Date, Err: err}
			}
			// Truncate to the calendar date in the sample's own zone.
			date := ts.Format(dateLayout)
			if _, ok := rows[date]; !ok {
				rows[date] = make(store.Row)
			}
			rows[date][metric.Name] = ConvertUnit(metric.Name, *sample.Qty)
			processed++
		}
	}
	return rows, processed, nil
}
