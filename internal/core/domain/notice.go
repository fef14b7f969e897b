package domain

import "time"

// NoticeLevel classifies a user-visible notification.
type NoticeLevel string

const (
	NoticeError NoticeLevel = "error"
	NoticeInfo  NoticeLevel = "info"
)

// Notice is a transient message surfaced to the user, e.g. after a rollback.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Source  string      `json:"source"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}
