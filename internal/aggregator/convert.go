package aggregator

// kilojoulesPerKilocalorie converts the exporter's energy unit to the
// stored one.
const kilojoulesPerKilocalorie = 4.184

// ConvertUnit converts a raw quantity from the exporter's native unit to
// the unit the target table stores. Only dietary_energy needs conversion
// (kilojoules to kilocalories); every other metric passes through.
func ConvertUnit(metricName string, qty float64) float64 {
	if metricName == "dietary_energy" {
		return qty / kilojoulesPerKilocalorie
	}
	return qty
}
