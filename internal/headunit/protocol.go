// Package headunit serves the head unit's WebSocket channels.
package headunit

import "encoding/json"

// Inbound frame types (head unit -> phone).
const (
	FrameTypePlay     = "play"
	FrameTypePause    = "pause"
	FrameTypeStop     = "stop"
	FrameTypePlayByID = "play_by_id"
)

// Outbound frame types (phone -> head unit).
const (
	FrameTypeNowPlaying = "now_playing"
	FrameTypeBrowseTree = "browse_tree"
	FrameTypeScreen     = "screen"
	FrameTypeError      = "error"
)

// Frame is the wire envelope in both directions.
type Frame struct {
	Type     string          `json:"type"`
	TrackID  string          `json:"track_id,omitempty"`
	ScreenID string          `json:"screen_id,omitempty"`
	Message  string          `json:"message,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

func marshalFrame(frameType, screenID string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Type: frameType, ScreenID: screenID, Data: raw})
}
