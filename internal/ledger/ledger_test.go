package ledger

import (
	"os"
	"testing"
	"time"

	"github.com/starford/wallhub/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "wallhub-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"notifications", "uploads", "runs"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestNotifications(t *testing.T) {
	db := testDB(t)
	ok, err := db.Notified("bing", "2025-12-10", KindImage)
	if err != nil || ok {
		t.Fatalf("Notified before record = %v, %v", ok, err)
	}
	if err := db.RecordNotification("bing", "2025-12-10", KindImage); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordNotification("bing", "2025-12-10", KindImage); err != nil {
		t.Fatalf("second record: %v", err)
	}
	ok, _ = db.Notified("bing", "2025-12-10", KindImage)
	if !ok {
		t.Error("notification not recorded")
	}
	ok, _ = db.Notified("bing", "2025-12-10", KindStory)
	if ok {
		t.Error("kinds are not independent")
	}
}

func TestUploads(t *testing.T) {
	db := testDB(t)
	cs, err := db.UploadChecksum("wallpapers/bing/2025-12-10/meta.json")
	if err != nil || cs != "" {
		t.Fatalf("UploadChecksum = %q, %v", cs, err)
	}
	if err := db.RecordUpload("wallpapers/bing/2025-12-10/meta.json", "abc", "https://x/1"); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordUpload("wallpapers/bing/2025-12-10/meta.json", "def", "https://x/1"); err != nil {
		t.Fatal(err)
	}
	cs, _ = db.UploadChecksum("wallpapers/bing/2025-12-10/meta.json")
	if cs != "def" {
		t.Errorf("checksum = %q, want def", cs)
	}
}

func TestRuns(t *testing.T) {
	db := testDB(t)
	base := time.Date(2025, 12, 10, 8, 0, 0, 0, time.UTC)
	for i, cmd := range []string{"fetch", "backfill", "index"} {
		_, err := db.RecordRun(models.Run{
			Command:    cmd,
			Source:     "bing",
			Target:     "2025-12",
			Created:    i,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
		})
		if err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d, want 2", len(runs))
	}
	if runs[0].Command != "index" || runs[1].Command != "backfill" {
		t.Errorf("order = %s, %s", runs[0].Command, runs[1].Command)
	}
	if runs[0].Created != 2 || !runs[0].StartedAt.Equal(base.Add(2*time.Hour)) {
		t.Errorf("run = %+v", runs[0])
	}
}
