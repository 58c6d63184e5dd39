package models

import "time"

type TaskStatus string

const (
	TaskQueued TaskStatus = "queued"
	TaskSent   TaskStatus = "sent"
	TaskDemo   TaskStatus = "demo"
	TaskFailed TaskStatus = "failed"
)

const TaskKindOrderConfirmation = "order_confirmation"

// NotificationTask is the outbox row for one asynchronous notification.
type NotificationTask struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Kind        string     `json:"kind" gorm:"type:varchar(40);not null"`
	OrderID     string     `json:"order_id" gorm:"type:varchar(36);index"`
	Channel     Channel    `json:"channel" gorm:"type:varchar(20);not null"`
	Destination string     `json:"destination" gorm:"type:varchar(255);not null"`
	Status      TaskStatus `json:"status" gorm:"type:varchar(20);index;not null"`
	Attempts    int        `json:"attempts" gorm:"not null;default:0"`
	LastError   string     `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CartSnapshot stores a serialized cart under an opaque key (user or device).
type CartSnapshot struct {
	Key       string    `gorm:"primaryKey;column:cart_key;type:varchar(64)"`
	Payload   []byte    `gorm:"not null"`
	UpdatedAt time.Time
}
