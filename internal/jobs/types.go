package jobs

import "time"

const (
	// TaskTypeLoginRecorded はログイン成功を記録するタスクです。
	TaskTypeLoginRecorded = "auth:login_recorded"

	queueName = "auth"
)

// LoginRecordedPayload は TaskTypeLoginRecorded のペイロードです。
type LoginRecordedPayload struct {
	UserID string    `json:"userId"`
	At     time.Time `json:"at"`
}
