package camera

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// ErrUnavailable is matched by every camera acquisition failure.
var ErrUnavailable = errors.New("camera unavailable")

// Reason classifies why the camera could not be acquired.
type Reason string

const (
	ReasonPermissionDenied Reason = "permission_denied"
	ReasonNoDevice         Reason = "no_device"
	ReasonInsecureContext  Reason = "insecure_context"
)

// UnavailableError is returned when the camera cannot be opened.
type UnavailableError struct {
	Reason Reason
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrUnavailable, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrUnavailable, e.Reason)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// UserMessage is the text shown to the person who pressed start.
func (e *UnavailableError) UserMessage() string {
	switch e.Reason {
	case ReasonPermissionDenied:
		return "Camera permission was denied. Please grant access to the camera and try again."
	case ReasonNoDevice:
		return "No camera was found. Please connect a camera and make sure no other application is using it."
	case ReasonInsecureContext:
		return "Camera access is not available. Please use HTTPS or localhost."
	}
	return "Could not access camera. Please check permissions and ensure you're using HTTPS."
}

// Unavailable builds an UnavailableError.
func Unavailable(reason Reason, err error) error {
	return &UnavailableError{Reason: reason, Err: err}
}

// Constraints are the hints passed when a stream is requested.
type Constraints struct {
	Width      int
	Height     int
	FacingMode string
}

// DefaultConstraints matches the demo page: 640x480, user facing.
func DefaultConstraints() Constraints {
	return Constraints{Width: 640, Height: 480, FacingMode: "user"}
}

// Frame is a single preview frame. JPEG may be nil when the source has no encoder.
type Frame struct {
	Width  int
	Height int
	JPEG   []byte
}

// Empty reports whether the frame carries no picture yet.
func (f Frame) Empty() bool {
	return f.Width == 0 || f.Height == 0
}

// Stream is a live camera handle.
type Stream interface {
	Read() (Frame, error)
	Close() error
}

// Source opens camera streams.
type Source interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// SecureContext checks that a request may use the camera: it must arrive over
// TLS (directly or behind a proxy) or be addressed to a loopback host.
func SecureContext(host string, tls bool, forwardedProto string) error {
	if tls || strings.EqualFold(forwardedProto, "https") {
		return nil
	}

	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}
	hostname = strings.Trim(hostname, "[]")

	if strings.EqualFold(hostname, "localhost") {
		return nil
	}
	if ip := net.ParseIP(hostname); ip != nil && ip.IsLoopback() {
		return nil
	}

	return Unavailable(ReasonInsecureContext, fmt.Errorf("origin %q is neither https nor localhost", host))
}

// DevicePath maps a device setting ("0", "/dev/video2") to its device node.
func DevicePath(device string) string {
	if n, err := strconv.Atoi(device); err == nil {
		return fmt.Sprintf("/dev/video%d", n)
	}
	return device
}

// ProbeDevice inspects a device node so that an open failure can be reported
// with a reason. It returns nil when nothing is wrong with the node itself.
func ProbeDevice(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Unavailable(ReasonNoDevice, err)
		}
		if os.IsPermission(err) {
			return Unavailable(ReasonPermissionDenied, err)
		}
		return Unavailable(ReasonNoDevice, err)
	}
	return f.Close()
}
