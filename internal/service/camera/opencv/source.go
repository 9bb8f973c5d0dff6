// Package opencv opens local capture devices through gocv.
package opencv

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"

	"github.com/akashabrah/StreetSense/internal/logger"
	"github.com/akashabrah/StreetSense/internal/service/camera"
)

// Source opens a gocv VideoCapture on a configured device.
type Source struct {
	device string
	logger *logger.Logger
}

// NewSource creates a Source for device, either an index ("0") or a path.
func NewSource(device string, logger *logger.Logger) *Source {
	return &Source{device: device, logger: logger}
}

// Open acquires the capture device and applies the resolution hints.
// Facing mode has no meaning for a V4L2 device and is only logged.
func (s *Source) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var device interface{} = s.device
	if n, err := strconv.Atoi(s.device); err == nil {
		device = n
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil || !vc.IsOpened() {
		if vc != nil {
			vc.Close()
		}
		if probeErr := camera.ProbeDevice(camera.DevicePath(s.device)); probeErr != nil {
			return nil, probeErr
		}
		if err == nil {
			err = fmt.Errorf("device %s did not open", s.device)
		}
		return nil, camera.Unavailable(camera.ReasonNoDevice, err)
	}

	if c.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(c.Width))
	}
	if c.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(c.Height))
	}

	s.logger.Info("📷 Camera %s opened (%dx%d, facing %s)", s.device, c.Width, c.Height, c.FacingMode)

	return &stream{vc: vc, mat: gocv.NewMat()}, nil
}

// stream wraps a VideoCapture. Read and Close are called from the
// session's tick goroutine and Stop respectively, never concurrently.
type stream struct {
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	once   sync.Once
	closed bool
}

// Read grabs one frame and encodes it as JPEG for the live preview.
func (s *stream) Read() (camera.Frame, error) {
	if s.closed {
		return camera.Frame{}, fmt.Errorf("stream closed")
	}
	if ok := s.vc.Read(&s.mat); !ok || s.mat.Empty() {
		return camera.Frame{}, nil
	}

	frame := camera.Frame{Width: s.mat.Cols(), Height: s.mat.Rows()}

	buf, err := gocv.IMEncode(".jpg", s.mat)
	if err != nil {
		return frame, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	frame.JPEG = make([]byte, len(buf.GetBytes()))
	copy(frame.JPEG, buf.GetBytes())

	return frame, nil
}

func (s *stream) Close() error {
	var err error
	s.once.Do(func() {
		s.closed = true
		s.mat.Close()
		err = s.vc.Close()
	})
	return err
}
