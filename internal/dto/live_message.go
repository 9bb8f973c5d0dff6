package dto

// Live feed message types.
const (
	MessageState = "state"
	MessageFrame = "frame"
)

// StateMessage carries the session state after each tick.
type StateMessage struct {
	Type  string       `json:"type"`
	State SessionState `json:"state"`
}

// FrameMessage carries a base64 JPEG preview frame.
type FrameMessage struct {
	Type   string `json:"type"`
	Camera string `json:"camera"`
	Image  string `json:"image"`
}
