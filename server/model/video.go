package model

import (
	"github.com/cyclopcam/dbh"
)

// VideoStatus is the content moderation state of a video.
// A video starts out pending, and transitions exactly once to safe or flagged.
type VideoStatus string

const (
	VideoStatusPending VideoStatus = "pending"
	VideoStatusSafe    VideoStatus = "safe"
	VideoStatusFlagged VideoStatus = "flagged"
)

// IsTerminal returns true once classification has finished.
func (s VideoStatus) IsTerminal() bool {
	return s == VideoStatusSafe || s == VideoStatusFlagged
}

type Video struct {
	BaseModel
	OwnerID     int64         `json:"ownerId"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	StorageRef  string        `json:"storageRef"` // Key of the blob in the storage backend. Immutable once set.
	Status      VideoStatus   `json:"status"`
	Progress    int           `json:"progress"` // 0..100. Reaches 100 when, and only when, Status is terminal.
	CreatedAt   dbh.MilliTime `json:"createdAt"`
}
