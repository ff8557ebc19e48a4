package dto

// ── 通知模块 DTO ──

// NotificationResponse 站内通知
type NotificationResponse struct {
	ID        uint                   `json:"id"`
	NotifType string                 `json:"notif_type"`
	Title     string                 `json:"title"`
	Payload   map[string]interface{} `json:"payload"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt string                 `json:"created_at"`
}
