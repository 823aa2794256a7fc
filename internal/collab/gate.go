package collab

import (
	"context"
	"errors"
	"time"

	"github.com/lumen-notes/lumen/backend/internal/auth"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opGateNew   = "collab.gate.new"
	opAuthorize = "collab.authorize"

	reasonCredentialInvalid = "credential_invalid"
	reasonSubjectInvalid    = "subject_invalid"
	reasonUnknownDocument   = "unknown_document"
	reasonNoteLookupFailed  = "note_lookup_failed"
	reasonNoShare           = "no_share"
	reasonShareLookupFailed = "share_lookup_failed"
	reasonShareLevelInvalid = "share_level_invalid"
)

// ErrAccessDenied is the single outcome surfaced for every authorization
// failure. Invalid credential, unknown document and missing share are
// deliberately indistinguishable so callers cannot probe which documents
// exist or why a token was rejected.
var ErrAccessDenied = errors.New("collab: access denied")

// CredentialVerifier validates a bearer credential and resolves the caller.
type CredentialVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// IdentityRecorder persists the identity attached to an authorized session
// and resolves a display name when the credential omits one.
type IdentityRecorder interface {
	RecordSession(userID, displayName string) (string, error)
}

// SessionContext is handed to the session server for an established
// connection: who the caller is, how to render them, and whether the session
// layer must reject incoming edits from this connection.
type SessionContext struct {
	UserID      string
	DisplayName string
	Color       string
	Permission  Permission
	ReadOnly    bool
}

// GateConfig describes the dependencies of the access control gate.
type GateConfig struct {
	Database   *gorm.DB
	Verifier   CredentialVerifier
	Identities IdentityRecorder
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Gate intercepts session establishment: it authenticates the caller's bearer
// credential, computes the caller's permission for the target document and
// instructs the session server whether the connection is read-only.
type Gate struct {
	db         *gorm.DB
	verifier   CredentialVerifier
	identities IdentityRecorder
	clock      func() time.Time
	logger     *zap.Logger
}

// NewGate constructs a Gate from the provided configuration.
func NewGate(cfg GateConfig) (*Gate, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opGateNew, reasonMissingDatabase, errMissingDatabase)
	}
	if cfg.Verifier == nil {
		return nil, newServiceError(opGateNew, "missing_verifier", errMissingVerifier)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Gate{
		db:         cfg.Database,
		verifier:   cfg.Verifier,
		identities: cfg.Identities,
		clock:      clock,
		logger:     logger,
	}, nil
}

// Authorize runs the session establishment pipeline: verify the credential,
// resolve the caller, compute the permission for the document. The owner
// holds OWNER; an active share grants its stored level; everything else is
// denied. The precise denial cause is logged, never returned.
func (g *Gate) Authorize(ctx context.Context, bearer string, documentID DocumentID) (SessionContext, error) {
	claims, err := g.verifier.Verify(bearer)
	if err != nil {
		return g.deny(reasonCredentialInvalid, err, documentID)
	}
	userID, err := NewUserID(claims.Subject)
	if err != nil {
		return g.deny(reasonSubjectInvalid, err, documentID)
	}

	var note Note
	err = g.db.WithContext(ctx).
		Where("note_id = ? AND is_deleted = ?", documentID.String(), false).
		Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return g.deny(reasonUnknownDocument, err, documentID)
	}
	if err != nil {
		return g.deny(reasonNoteLookupFailed, err, documentID)
	}

	permission, denyReason, err := g.resolvePermission(ctx, note, userID, documentID)
	if err != nil {
		return g.deny(denyReason, err, documentID)
	}

	displayName := claims.DisplayName
	if g.identities != nil {
		if resolved, recordErr := g.identities.RecordSession(userID.String(), displayName); recordErr == nil {
			displayName = resolved
		} else {
			g.logger.Warn("identity record failed",
				zap.String(fieldDocumentID, documentID.String()),
				zap.Error(recordErr))
		}
	}

	return SessionContext{
		UserID:      userID.String(),
		DisplayName: displayName,
		Color:       CursorColor(userID.String()),
		Permission:  permission,
		ReadOnly:    permission.ReadOnly(),
	}, nil
}

func (g *Gate) resolvePermission(ctx context.Context, note Note, userID UserID, documentID DocumentID) (Permission, string, error) {
	if note.OwnerID == userID.String() {
		return PermissionOwner, "", nil
	}

	var share NoteShare
	err := g.db.WithContext(ctx).
		Where("note_id = ? AND grantee_id = ? AND revoked = ?", documentID.String(), userID.String(), false).
		Take(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", reasonNoShare, err
	}
	if err != nil {
		return "", reasonShareLookupFailed, err
	}

	permission, err := ParseShareLevel(share.Level)
	if err != nil {
		return "", reasonShareLevelInvalid, err
	}
	return permission, "", nil
}

func (g *Gate) deny(reason string, err error, documentID DocumentID) (SessionContext, error) {
	logError(g.logger, opAuthorize, reason, err,
		zap.String(fieldDocumentID, documentID.String()))
	return SessionContext{}, ErrAccessDenied
}
