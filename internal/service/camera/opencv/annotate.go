package opencv

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/akashabrah/StreetSense/internal/model"
	"github.com/akashabrah/StreetSense/internal/service/camera"
)

// Marker size around a detection's position, in pixels.
const (
	markerWidth  = 40
	markerHeight = 80
)

var tierColors = map[model.RiskLevel]color.RGBA{
	model.RiskHigh:   {R: 239, G: 68, B: 68, A: 0},
	model.RiskMedium: {R: 245, G: 158, B: 11, A: 0},
	model.RiskLow:    {R: 16, G: 185, B: 129, A: 0},
}

// Annotator draws detections onto preview frames.
type Annotator struct{}

// NewAnnotator creates an Annotator.
func NewAnnotator() *Annotator {
	return &Annotator{}
}

// Annotate boxes every record's position in its tier color and returns the
// re-encoded frame. Frames without a JPEG are returned unchanged.
func (a *Annotator) Annotate(frame camera.Frame, records []model.DetectionRecord) (camera.Frame, error) {
	if len(frame.JPEG) == 0 || len(records) == 0 {
		return frame, nil
	}

	mat, err := gocv.IMDecode(frame.JPEG, gocv.IMReadColor)
	if err != nil {
		return frame, fmt.Errorf("failed to decode frame: %w", err)
	}
	defer mat.Close()

	for _, rec := range records {
		c := tierColors[rec.RiskLevel]
		rect := image.Rect(
			rec.PositionX-markerWidth/2, rec.PositionY-markerHeight/2,
			rec.PositionX+markerWidth/2, rec.PositionY+markerHeight/2,
		)
		if err := gocv.Rectangle(&mat, rect, c, 2); err != nil {
			return frame, fmt.Errorf("failed to draw marker: %w", err)
		}

		label := fmt.Sprintf("%s (%.2f)", rec.RiskLevel, rec.Confidence)
		if err := gocv.PutText(&mat, label, image.Pt(rect.Min.X, rect.Min.Y-5), gocv.FontHersheySimplex, 0.5, c, 1); err != nil {
			return frame, fmt.Errorf("failed to draw label: %w", err)
		}
	}

	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		return frame, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	out := frame
	out.JPEG = make([]byte, len(buf.GetBytes()))
	copy(out.JPEG, buf.GetBytes())
	return out, nil
}
