package ledger

import "github.com/starford/wallhub/internal/models"

// Notification kinds.
const (
	KindImage        = "image"
	KindAnnouncement = "announcement"
	KindStory        = "story"
)

// Ledger defines the side-effect record. Consumers depend on this interface
// rather than the concrete *DB type.
type Ledger interface {
	Notified(source, date, kind string) (bool, error)
	RecordNotification(source, date, kind string) error
	UploadChecksum(key string) (string, error)
	RecordUpload(key, checksum, url string) error
	RecordRun(r models.Run) (int64, error)
	ListRuns(limit int) ([]models.Run, error)
	Close() error
}

// Verify *DB satisfies Ledger at compile time.
var _ Ledger = (*DB)(nil)
