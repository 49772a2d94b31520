package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when decoding an envelope with an unrecognized kind.
var ErrUnknownKind = errors.New("unknown message kind")

// Envelope is the JSON form of a message: {"kind": "...", "payload": {...}}.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode wraps msg in an envelope.
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, errors.New("encode message: nil message")
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", msg.Kind(), err)
	}
	return json.Marshal(Envelope{Kind: msg.Kind(), Payload: payload})
}

// Decode parses an envelope into its typed message.
func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var msg Message
	switch env.Kind {
	case KindPageReady:
		return PageReady{}, nil
	case KindCloseRequested:
		return CloseRequested{}, nil
	case KindIsoSelected:
		var m IsoSelected
		if err := unmarshalPayload(env, &m); err != nil {
			return nil, err
		}
		msg = m
	case KindSave:
		var m Save
		if err := unmarshalPayload(env, &m); err != nil {
			return nil, err
		}
		msg = m
	case KindCreationError:
		var m CreationError
		if err := unmarshalPayload(env, &m); err != nil {
			return nil, err
		}
		msg = m
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	return msg, nil
}

func unmarshalPayload(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("decode %s: missing payload", env.Kind)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Kind, err)
	}
	return nil
}
