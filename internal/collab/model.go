package collab

import (
	"errors"
	"fmt"
	"strings"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidDocumentID indicates that a document identifier is empty or exceeds storage bounds.
	ErrInvalidDocumentID = errors.New("collab: invalid document id")
	// ErrInvalidUserID indicates that a user identifier is empty or exceeds storage bounds.
	ErrInvalidUserID = errors.New("collab: invalid user id")
	// ErrInvalidShareLevel indicates that a stored share level is outside the enum.
	ErrInvalidShareLevel = errors.New("collab: invalid share level")
)

// DocumentID identifies one collaborative document. It equals the note id:
// one engine document per note is a hard invariant.
type DocumentID string

// NewDocumentID validates raw input and returns a DocumentID.
func NewDocumentID(rawInput string) (DocumentID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDocumentID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidDocumentID, maxIdentifierLength)
	}
	return DocumentID(trimmed), nil
}

// String returns the underlying string identifier.
func (id DocumentID) String() string {
	return string(id)
}

// UserID represents a validated user identifier.
type UserID string

// NewUserID validates raw input and returns a UserID.
func NewUserID(rawInput string) (UserID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUserID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidUserID, maxIdentifierLength)
	}
	return UserID(trimmed), nil
}

// String returns the underlying string identifier.
func (id UserID) String() string {
	return string(id)
}

// Permission enumerates the access levels a caller can hold on a document.
type Permission string

const (
	// PermissionOwner grants full read-write access to the note owner.
	PermissionOwner Permission = "owner"
	// PermissionEdit grants read-write access via a share.
	PermissionEdit Permission = "edit"
	// PermissionView grants read-only access via a share.
	PermissionView Permission = "view"
)

// ReadOnly reports whether sessions under this permission must reject edits.
func (p Permission) ReadOnly() bool {
	return p == PermissionView
}

// ParseShareLevel converts a stored share level into a Permission.
func ParseShareLevel(value string) (Permission, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(PermissionEdit):
		return PermissionEdit, nil
	case string(PermissionView):
		return PermissionView, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidShareLevel, value)
	}
}

// Note models the persisted note. Content is the canonical markdown mirror;
// once a snapshot exists it becomes a derived projection of the engine state.
type Note struct {
	NoteID           string `gorm:"column:note_id;primaryKey;size:190;not null"`
	OwnerID          string `gorm:"column:owner_id;size:190;not null;index:idx_notes_owner"`
	Title            string `gorm:"column:title;size:512;not null;default:''"`
	Content          string `gorm:"column:content;type:text;not null"`
	IsDeleted        bool   `gorm:"column:is_deleted;not null;default:false"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Note) TableName() string {
	return "notes"
}

// NoteShare grants a non-owner user view or edit access to a note.
type NoteShare struct {
	NoteID           string `gorm:"column:note_id;primaryKey;size:190;not null"`
	GranteeID        string `gorm:"column:grantee_id;primaryKey;size:190;not null;index:idx_note_shares_grantee"`
	Level            string `gorm:"column:level;size:16;not null"`
	Revoked          bool   `gorm:"column:revoked;not null;default:false"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (NoteShare) TableName() string {
	return "note_shares"
}

// CrdtSnapshot stores the opaque engine snapshot, keyed 1:1 by note id. The
// row is created lazily on the first collaborative session for a note.
type CrdtSnapshot struct {
	NoteID           string `gorm:"column:note_id;primaryKey;size:190;not null"`
	Snapshot         []byte `gorm:"column:snapshot;type:blob;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (CrdtSnapshot) TableName() string {
	return "note_crdt_snapshots"
}
