package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/akashabrah/StreetSense/internal/model"
)

// ErrNoData is returned when there is no history to export.
var ErrNoData = errors.New("no data to download")

// Header is the first row of every export.
var Header = []string{"id", "timestamp", "risk_level", "confidence", "position_x", "position_y", "session_id"}

// Filename returns the download name for a session's export.
func Filename(sessionID string) string {
	return fmt.Sprintf("pedestrian-data-%s.csv", sessionID)
}

// WriteCSV writes the header and one row per record.
func WriteCSV(w io.Writer, records []model.DetectionRecord) error {
	if len(records) == 0 {
		return ErrNoData
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range records {
		if err := cw.Write(Row(rec)); err != nil {
			return fmt.Errorf("failed to write record %s: %w", rec.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Row formats a record in header order.
func Row(rec model.DetectionRecord) []string {
	return []string{
		rec.ID,
		rec.FormattedTimestamp(),
		string(rec.RiskLevel),
		strconv.FormatFloat(rec.Confidence, 'f', -1, 64),
		strconv.Itoa(rec.PositionX),
		strconv.Itoa(rec.PositionY),
		rec.SessionID,
	}
}
