package dataset

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is embedded in every output file name
const TimestampLayout = "20060102_150405"

// Columns is the persisted schema, in order
var Columns = []string{"username", "rating", "review", "date", "thumbs_up", "sentiment"}

// Paths groups the files written for one collection run
type Paths struct {
	CSV  string
	JSON string
	XLSX string
}

// NewPaths builds <prefix>_<timestamp>.{csv,json,xlsx}
func NewPaths(prefix string, at time.Time) Paths {
	base := fmt.Sprintf("%s_%s", prefix, at.Format(TimestampLayout))
	return Paths{
		CSV:  base + ".csv",
		JSON: base + ".json",
		XLSX: base + ".xlsx",
	}
}

// BalancedPath derives the balanced dataset file name from a CSV path
func BalancedPath(csvPath string) string {
	if strings.HasSuffix(csvPath, ".csv") {
		return strings.TrimSuffix(csvPath, ".csv") + "_balanced.csv"
	}
	return csvPath + "_balanced.csv"
}
