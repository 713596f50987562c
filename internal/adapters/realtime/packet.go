package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Engine.IO v4 packet types.
const (
	engineOpen    = '0'
	engineClose   = '1'
	enginePing    = '2'
	enginePong    = '3'
	engineMessage = '4'
	engineNoop    = '6'
)

// Socket.IO v5 packet types, carried inside an Engine.IO message.
const (
	socketConnect      = '0'
	socketDisconnect   = '1'
	socketEvent        = '2'
	socketAck          = '3'
	socketConnectError = '4'
)

const defaultNamespace = "/"

var errMalformedPacket = errors.New("malformed packet")

// Event is one named realtime event with its JSON arguments.
type Event struct {
	Name string
	Args []json.RawMessage
}

// Decode unmarshals the first argument into v.
func (e Event) Decode(v any) error {
	if len(e.Args) == 0 {
		return fmt.Errorf("event %q has no payload", e.Name)
	}
	if err := json.Unmarshal(e.Args[0], v); err != nil {
		return fmt.Errorf("decode event %q: %w", e.Name, err)
	}
	return nil
}

type frame struct {
	engine    byte
	socket    byte
	namespace string
	payload   json.RawMessage
}

type openPayload struct {
	SID          string `json:"sid"`
	PingInterval int64  `json:"pingInterval"`
	PingTimeout  int64  `json:"pingTimeout"`
	MaxPayload   int64  `json:"maxPayload"`
}

// readTimeout is how long the server may stay silent before the connection is
// considered dead.
func (p openPayload) readTimeout() time.Duration {
	interval := time.Duration(p.PingInterval) * time.Millisecond
	timeout := time.Duration(p.PingTimeout) * time.Millisecond
	if interval <= 0 {
		interval = 25 * time.Second
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return interval + timeout
}

func parseFrame(raw []byte) (frame, error) {
	if len(raw) == 0 {
		return frame{}, errMalformedPacket
	}

	f := frame{engine: raw[0], namespace: defaultNamespace}
	rest := string(raw[1:])
	if f.engine != engineMessage {
		f.payload = json.RawMessage(rest)
		return f, nil
	}

	if rest == "" {
		return frame{}, fmt.Errorf("%w: empty socket packet", errMalformedPacket)
	}
	f.socket = rest[0]
	rest = rest[1:]

	if strings.HasPrefix(rest, "/") {
		end := strings.IndexByte(rest, ',')
		if end < 0 {
			f.namespace = rest
			rest = ""
		} else {
			f.namespace = rest[:end]
			rest = rest[end+1:]
		}
	}

	// Skip an ack id; acks are not requested by this client.
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	rest = rest[i:]

	if rest != "" && !json.Valid([]byte(rest)) {
		return frame{}, fmt.Errorf("%w: invalid json payload", errMalformedPacket)
	}
	f.payload = json.RawMessage(rest)
	return f, nil
}

func decodeEvent(payload json.RawMessage) (Event, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(payload, &parts); err != nil {
		return Event{}, fmt.Errorf("%w: %w", errMalformedPacket, err)
	}
	if len(parts) == 0 {
		return Event{}, fmt.Errorf("%w: event without name", errMalformedPacket)
	}

	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return Event{}, fmt.Errorf("%w: event name: %w", errMalformedPacket, err)
	}
	return Event{Name: name, Args: parts[1:]}, nil
}

func encodeEvent(name string, data any) ([]byte, error) {
	parts := []any{name}
	if data != nil {
		parts = append(parts, data)
	}
	encoded, err := json.Marshal(parts)
	if err != nil {
		return nil, fmt.Errorf("encode event %q: %w", name, err)
	}
	return append([]byte{engineMessage, socketEvent}, encoded...), nil
}

func encodeConnect(auth map[string]string) ([]byte, error) {
	packet := []byte{engineMessage, socketConnect}
	if len(auth) == 0 {
		return packet, nil
	}
	encoded, err := json.Marshal(auth)
	if err != nil {
		return nil, fmt.Errorf("encode connect auth: %w", err)
	}
	return append(packet, encoded...), nil
}
