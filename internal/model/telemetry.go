package model

// SessionTotals holds the counts of the most recent tick only.
type SessionTotals struct {
	TotalPedestrians int `json:"totalPedestrians"`
	HighRisk         int `json:"highRisk"`
	MediumRisk       int `json:"mediumRisk"`
	LowRisk          int `json:"lowRisk"`
}

// Count returns the number of pedestrians in the given tier.
func (t SessionTotals) Count(level RiskLevel) int {
	switch level {
	case RiskHigh:
		return t.HighRisk
	case RiskMedium:
		return t.MediumRisk
	case RiskLow:
		return t.LowRisk
	}
	return 0
}

// TimeSeriesPoint is a snapshot of SessionTotals at one tick.
type TimeSeriesPoint struct {
	Time   string `json:"time"`
	Total  int    `json:"total"`
	High   int    `json:"high"`
	Medium int    `json:"medium"`
	Low    int    `json:"low"`
}

// PointFromTotals builds the series point for a tick labeled with label.
func PointFromTotals(label string, t SessionTotals) TimeSeriesPoint {
	return TimeSeriesPoint{
		Time:   label,
		Total:  t.TotalPedestrians,
		High:   t.HighRisk,
		Medium: t.MediumRisk,
		Low:    t.LowRisk,
	}
}

// Peak returns the largest of the point's four values.
func (p TimeSeriesPoint) Peak() int {
	return max(p.Total, p.High, p.Medium, p.Low)
}
