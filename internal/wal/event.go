package wal

import (
	"encoding/binary"
	"errors"
)

// ErrInvalidEvent is returned when a byte slice cannot be decoded into an
// Event: its tag is not one of {Write, Delete}, or it is truncated.
var ErrInvalidEvent = errors.New("wal: invalid event")

// EventKind distinguishes the two event variants the WAL carries.
type EventKind byte

const (
	// EventWrite records a key/value pair being set.
	EventWrite EventKind = 1
	// EventDelete records a key being removed.
	EventDelete EventKind = 2
)

// Event is the application-level payload carried inside WAL records: a
// tagged union of Write{key,value} and Delete{key}. It is a pure value
// type with owned or borrowed slices depending on how it was constructed;
// Serialize always copies into a fresh buffer, and DeserializeEvent always
// returns views into its input.
type Event struct {
	Kind  EventKind
	Key   []byte
	Value []byte // unset (nil) for EventDelete
}

// NewWriteEvent builds a Write event for key/value.
func NewWriteEvent(key, value []byte) Event {
	return Event{Kind: EventWrite, Key: key, Value: value}
}

// NewDeleteEvent builds a Delete event for key.
func NewDeleteEvent(key []byte) Event {
	return Event{Kind: EventDelete, Key: key}
}

// Size returns the number of bytes Serialize will produce.
func (e Event) Size() int {
	switch e.Kind {
	case EventWrite:
		return 1 + 4 + len(e.Key) + 4 + len(e.Value)
	case EventDelete:
		return 1 + 4 + len(e.Key)
	default:
		return 0
	}
}

// Serialize encodes the event little-endian as:
//
//	write:  u8 tag=1 ‖ u32 key_len ‖ key ‖ u32 value_len ‖ value
//	delete: u8 tag=2 ‖ u32 key_len ‖ key
func (e Event) Serialize() []byte {
	buf := make([]byte, e.Size())
	buf[0] = byte(e.Kind)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(e.Key)))
	copy(buf[5:], e.Key)

	if e.Kind == EventWrite {
		off := 5 + len(e.Key)
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(e.Value)))
		copy(buf[off+4:], e.Value)
	}
	return buf
}

// DeserializeEvent decodes data into an Event. The returned Key and Value
// slices are views into data, not copies; callers that need to retain them
// past data's lifetime must copy explicitly.
func DeserializeEvent(data []byte) (Event, error) {
	if len(data) < 5 {
		return Event{}, ErrInvalidEvent
	}
	kind := EventKind(data[0])
	if kind != EventWrite && kind != EventDelete {
		return Event{}, ErrInvalidEvent
	}

	keyLen := binary.LittleEndian.Uint32(data[1:5])
	off := 5
	if uint64(off)+uint64(keyLen) > uint64(len(data)) {
		return Event{}, ErrInvalidEvent
	}
	key := data[off : off+int(keyLen)]
	off += int(keyLen)

	if kind == EventDelete {
		return Event{Kind: kind, Key: key}, nil
	}

	if uint64(off)+4 > uint64(len(data)) {
		return Event{}, ErrInvalidEvent
	}
	valLen := binary.LittleEndian.Uint32(data[off : off+4])
	off += 4
	if uint64(off)+uint64(valLen) > uint64(len(data)) {
		return Event{}, ErrInvalidEvent
	}
	value := data[off : off+int(valLen)]

	return Event{Kind: kind, Key: key, Value: value}, nil
}
