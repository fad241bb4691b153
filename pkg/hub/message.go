// Package hub fans out server-pushed websocket frames to every connected
// browser. findit runs two hubs: one for screen state snapshots and one
// for camera preview frames.
package hub

// MessageType selects the websocket opcode a frame is written with.
type MessageType int

const (
	// JSONMessage is a text frame carrying an encoded screen state.
	JSONMessage MessageType = iota
	// BinaryMessage is a binary frame carrying one JPEG preview image.
	BinaryMessage
)

// String returns the frame kind for logs.
func (t MessageType) String() string {
	if t == BinaryMessage {
		return "binary"
	}
	return "json"
}

// Message is one outbound frame. Data is shared by every client it is
// queued for and must not be modified after broadcast.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps an encoded preview frame.
func NewBinaryMessage(frame []byte) Message {
	return Message{Type: BinaryMessage, Data: frame}
}

// Size returns the payload length in bytes.
func (m Message) Size() int {
	return len(m.Data)
}
