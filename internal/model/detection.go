package model

import (
	"encoding/json"
	"time"
)

// RiskLevel is the tier attached to a detected pedestrian.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// RiskLevels lists the tiers in labeling order.
var RiskLevels = []RiskLevel{RiskHigh, RiskMedium, RiskLow}

// TimestampLayout is the wire format of DetectionRecord.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DetectionRecord represents one detected pedestrian. Records are never
// mutated after the detector emits them.
type DetectionRecord struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	RiskLevel  RiskLevel `json:"risk_level"`
	Confidence float64   `json:"confidence"`
	PositionX  int       `json:"position_x"`
	PositionY  int       `json:"position_y"`
	SessionID  string    `json:"session_id"`
}

// FormattedTimestamp returns the timestamp in UTC with millisecond precision.
func (r DetectionRecord) FormattedTimestamp() string {
	return r.Timestamp.UTC().Format(TimestampLayout)
}

// MarshalJSON writes the timestamp in the same layout the CSV export uses.
func (r DetectionRecord) MarshalJSON() ([]byte, error) {
	type Alias DetectionRecord
	return json.Marshal(&struct {
		Timestamp string `json:"timestamp"`
		Alias
	}{
		Timestamp: r.FormattedTimestamp(),
		Alias:     (Alias)(r),
	})
}
