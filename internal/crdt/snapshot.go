package crdt

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidSnapshot indicates that a snapshot payload cannot be decoded.
var ErrInvalidSnapshot = errors.New("crdt: invalid snapshot")

// Snapshot framing: two magic bytes, one version byte, JSON payload. Callers
// outside this package treat the encoding as an opaque blob.
var snapshotMagic = [2]byte{'L', 'C'}

const snapshotVersion byte = 1

// EncodeSnapshot serializes an engine document into its binary snapshot form.
func EncodeSnapshot(doc *Doc) ([]byte, error) {
	if doc == nil {
		doc = &Doc{}
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	raw := make([]byte, 0, len(payload)+3)
	raw = append(raw, snapshotMagic[0], snapshotMagic[1], snapshotVersion)
	return append(raw, payload...), nil
}

// DecodeSnapshot parses a binary snapshot back into an engine document.
func DecodeSnapshot(raw []byte) (*Doc, error) {
	if len(raw) < 3 || raw[0] != snapshotMagic[0] || raw[1] != snapshotMagic[1] {
		return nil, fmt.Errorf("%w: missing header", ErrInvalidSnapshot)
	}
	if raw[2] != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, raw[2])
	}
	doc := &Doc{}
	if err := json.Unmarshal(raw[3:], doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return doc, nil
}
