package detector

import (
	"context"

	"github.com/akashabrah/StreetSense/internal/model"
	"github.com/akashabrah/StreetSense/internal/service/camera"
)

// Batch is what one tick of detection produces.
type Batch struct {
	Records []model.DetectionRecord
	Totals  model.SessionTotals
}

// Detector turns a frame into a detection batch. A real inference backend
// replaces Simulated behind this interface.
type Detector interface {
	Detect(ctx context.Context, frame camera.Frame, sessionID string) (Batch, error)
}
