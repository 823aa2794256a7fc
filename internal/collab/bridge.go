package collab

import (
	"context"
	"errors"
	"time"

	"github.com/lumen-notes/lumen/backend/internal/crdt"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	opBridgeNew = "collab.bridge.new"
	opLoad      = "collab.load"
	opSave      = "collab.save"

	fieldDocumentID = "document_id"
	fieldPhase      = "phase"

	phaseSnapshotLookup = "snapshot_lookup"
	phaseNoteLookup     = "note_lookup"
	phaseConvert        = "convert"
	phaseSnapshotUpsert = "snapshot_upsert"
	phaseMirrorUpdate   = "mirror_update"

	reasonMissingDatabase = "missing_database"
)

// snapshotUpsert makes load and save last-writer-wins on the snapshot row
// without an explicit lock: both paths upsert rather than check-then-write.
var snapshotUpsert = clause.OnConflict{
	Columns:   []clause.Column{{Name: "note_id"}},
	DoUpdates: clause.AssignmentColumns([]string{"snapshot", "updated_at_s"}),
}

// BridgeConfig describes the dependencies of the persistence bridge.
type BridgeConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Bridge implements the two hook points the external session server requires:
// load state for a document and save state for a document. Both hooks are
// idempotent and safe to invoke concurrently for the same document id. They
// return errors for the caller to log; the hook adapter absorbs them so a
// single note's persistence fault never crashes the shared process.
type Bridge struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewBridge constructs a Bridge from the provided configuration.
func NewBridge(cfg BridgeConfig) (*Bridge, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opBridgeNew, reasonMissingDatabase, errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Bridge{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Load returns the engine snapshot for a document. An existing snapshot row
// is returned verbatim. Otherwise the note's markdown content is converted
// into a fresh snapshot, persisted via upsert (a concurrent first load for
// the same note converges to one row) and returned. A missing or soft-deleted
// note yields (nil, nil) so the session server starts an empty untracked
// document instead of failing the connection.
func (b *Bridge) Load(ctx context.Context, documentID DocumentID) ([]byte, error) {
	var row CrdtSnapshot
	err := b.db.WithContext(ctx).
		Where("note_id = ?", documentID.String()).
		Take(&row).Error
	if err == nil {
		return row.Snapshot, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		b.logLoadError(phaseSnapshotLookup, err, documentID)
		return nil, newServiceError(opLoad, phaseSnapshotLookup, err)
	}

	var note Note
	err = b.db.WithContext(ctx).
		Where("note_id = ? AND is_deleted = ?", documentID.String(), false).
		Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		b.logLoadError(phaseNoteLookup, err, documentID)
		return nil, newServiceError(opLoad, phaseNoteLookup, err)
	}

	snapshot, err := crdt.EncodeSnapshot(crdt.FromMarkdown(note.Content))
	if err != nil {
		b.logLoadError(phaseConvert, err, documentID)
		return nil, newServiceError(opLoad, phaseConvert, err)
	}

	if err := b.upsertSnapshot(ctx, documentID, snapshot); err != nil {
		b.logLoadError(phaseSnapshotUpsert, err, documentID)
		return nil, newServiceError(opLoad, phaseSnapshotUpsert, err)
	}
	return snapshot, nil
}

// Save persists the engine snapshot and refreshes the markdown mirror. The
// snapshot upsert is the primary guarantee and always runs first; the mirror
// refresh is best-effort and its failure is logged, never returned, so it can
// neither roll back nor block snapshot durability. The mirror update is
// scoped to non-deleted notes: a note deleted mid-session matches zero rows,
// which is not an error and keeps deleted content from resurrecting.
func (b *Bridge) Save(ctx context.Context, documentID DocumentID, snapshot []byte) error {
	if err := b.upsertSnapshot(ctx, documentID, snapshot); err != nil {
		logError(b.logger, opSave, phaseSnapshotUpsert, err,
			zap.String(fieldDocumentID, documentID.String()),
			zap.String(fieldPhase, phaseSnapshotUpsert))
		return newServiceError(opSave, phaseSnapshotUpsert, err)
	}

	doc, err := crdt.DecodeSnapshot(snapshot)
	if err != nil {
		logError(b.logger, opSave, phaseConvert, err,
			zap.String(fieldDocumentID, documentID.String()),
			zap.String(fieldPhase, phaseConvert))
		return nil
	}

	markdown := crdt.ToMarkdown(doc)
	err = b.db.WithContext(ctx).
		Model(&Note{}).
		Where("note_id = ? AND is_deleted = ?", documentID.String(), false).
		Updates(map[string]any{
			"content":      markdown,
			"updated_at_s": b.clock().UTC().Unix(),
		}).Error
	if err != nil {
		logError(b.logger, opSave, phaseMirrorUpdate, err,
			zap.String(fieldDocumentID, documentID.String()),
			zap.String(fieldPhase, phaseMirrorUpdate))
	}
	return nil
}

func (b *Bridge) upsertSnapshot(ctx context.Context, documentID DocumentID, snapshot []byte) error {
	row := CrdtSnapshot{
		NoteID:           documentID.String(),
		Snapshot:         snapshot,
		UpdatedAtSeconds: b.clock().UTC().Unix(),
	}
	return b.db.WithContext(ctx).Clauses(snapshotUpsert).Create(&row).Error
}

func (b *Bridge) logLoadError(phase string, err error, documentID DocumentID) {
	logError(b.logger, opLoad, phase, err,
		zap.String(fieldDocumentID, documentID.String()),
		zap.String(fieldPhase, phase))
}
