package collab

import (
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var testClock = func() time.Time { return time.Unix(1700000000, 0) }

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	databasePath := filepath.Join(t.TempDir(), "collab.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&Note{}, &NoteShare{}, &CrdtSnapshot{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func mustDocumentID(t *testing.T, raw string) DocumentID {
	t.Helper()
	documentID, err := NewDocumentID(raw)
	if err != nil {
		t.Fatalf("document id %q: %v", raw, err)
	}
	return documentID
}

func seedNote(t *testing.T, db *gorm.DB, noteID, ownerID, content string, deleted bool) {
	t.Helper()
	note := Note{
		NoteID:           noteID,
		OwnerID:          ownerID,
		Title:            "seeded",
		Content:          content,
		IsDeleted:        deleted,
		CreatedAtSeconds: testClock().Unix(),
		UpdatedAtSeconds: testClock().Unix(),
	}
	if err := db.Create(&note).Error; err != nil {
		t.Fatalf("seed note %s: %v", noteID, err)
	}
}

func seedShare(t *testing.T, db *gorm.DB, noteID, granteeID, level string, revoked bool) {
	t.Helper()
	share := NoteShare{
		NoteID:           noteID,
		GranteeID:        granteeID,
		Level:            level,
		Revoked:          revoked,
		CreatedAtSeconds: testClock().Unix(),
	}
	if err := db.Create(&share).Error; err != nil {
		t.Fatalf("seed share %s -> %s: %v", noteID, granteeID, err)
	}
}

func fetchNote(t *testing.T, db *gorm.DB, noteID string) Note {
	t.Helper()
	var note Note
	if err := db.Where("note_id = ?", noteID).Take(&note).Error; err != nil {
		t.Fatalf("fetch note %s: %v", noteID, err)
	}
	return note
}

func fetchSnapshotRow(t *testing.T, db *gorm.DB, noteID string) CrdtSnapshot {
	t.Helper()
	var row CrdtSnapshot
	if err := db.Where("note_id = ?", noteID).Take(&row).Error; err != nil {
		t.Fatalf("fetch snapshot %s: %v", noteID, err)
	}
	return row
}

func countSnapshotRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var total int64
	if err := db.Model(&CrdtSnapshot{}).Count(&total).Error; err != nil {
		t.Fatalf("count snapshots: %v", err)
	}
	return total
}
