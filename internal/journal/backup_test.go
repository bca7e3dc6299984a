package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func openSeededJournal(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")

	db, err := Open(DefaultConfig(path))
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db.Conn())
	if err := repo.Record(context.Background(), &Entry{CardID: "c1", Field: FieldQuantity, OldValue: "1", NewValue: "2"}); err != nil {
		t.Fatalf("failed to seed journal: %v", err)
	}
	return db, path
}

func TestBackupAndVerify(t *testing.T) {
	_, path := openSeededJournal(t)
	bm := NewBackupManager(path)

	backupPath, err := bm.Backup("")
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if _, err := os.Stat(backupPath); err != nil {
		t.Fatalf("backup file missing: %v", err)
	}

	if err := bm.VerifyBackup(backupPath); err != nil {
		t.Errorf("backup verification failed: %v", err)
	}

	// The backup is a full copy; the seeded entry must be in it.
	copyDB, err := sql.Open("sqlite", backupPath)
	if err != nil {
		t.Fatalf("failed to open backup: %v", err)
	}
	defer copyDB.Close()

	var count int
	if err := copyDB.QueryRow(`SELECT COUNT(*) FROM journal_entries`).Scan(&count); err != nil {
		t.Fatalf("failed to query backup: %v", err)
	}
	if count != 1 {
		t.Errorf("backup entries = %d, want 1", count)
	}
}

func TestVerifyBackup_RejectsForeignDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE unrelated (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	bm := NewBackupManager(path)
	if err := bm.VerifyBackup(path); err == nil {
		t.Error("expected verification to fail without the journal table")
	}
}

func TestListBackupsWithChecksums(t *testing.T) {
	_, path := openSeededJournal(t)
	bm := NewBackupManager(path)

	if _, err := bm.Backup(""); err != nil {
		t.Fatalf("backup failed: %v", err)
	}

	backups, err := bm.ListBackups("")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("backups = %d, want 1", len(backups))
	}
	if backups[0].Checksum == "" || backups[0].Checksum == "unknown" {
		t.Errorf("checksum = %q", backups[0].Checksum)
	}
	if backups[0].Size == 0 {
		t.Error("backup size is zero")
	}
}

func TestListBackups_EmptyDirectory(t *testing.T) {
	bm := NewBackupManager(filepath.Join(t.TempDir(), "journal.db"))

	backups, err := bm.ListBackups("")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("backups = %d, want 0", len(backups))
	}
}
