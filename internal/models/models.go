package models

// HealthPayload is the body pushed by the phone health-data exporter:
// a list of named metrics, each carrying its own sparse set of timestamped
// samples. The payload is immutable once received.
type HealthPayload struct {
	Data HealthData `json:"data" binding:"required"`
}

// HealthData wraps the metric list. An empty list is a valid no-op batch.
type HealthData struct {
	Metrics []Metric `json:"metrics"`
}

// Metric is one named series of samples.
type Metric struct {
	Name string   `json:"name"`
	Data []Sample `json:"data"`
}

// Sample is a single observation: a timestamp with zone offset and a
// numeric quantity in the exporter's native unit. Qty is a pointer so a
// sample that omitted its quantity is distinguishable from a genuine zero;
// such samples are rejected rather than stored as 0.
type Sample struct {
	Date string   `json:"date"`
	Qty  *float64 `json:"qty"`
}
