package domain

import "strings"

type NotificationAction string

const (
	NotificationActionUpsert NotificationAction = "upsert"
	NotificationActionDelete NotificationAction = "delete"
	NotificationActionIgnore NotificationAction = "ignore"
)

type NotificationDetails struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// NotificationEvent is a decoded frame webhook event for one user.
type NotificationEvent struct {
	Event               string               `json:"event"`
	FID                 int64                `json:"fid"`
	NotificationDetails *NotificationDetails `json:"notificationDetails,omitempty"`
}

// Action maps the event name onto the token lifecycle. Both the frame event
// names ("frame_added") and their bare forms ("added") are accepted.
func (e NotificationEvent) Action() NotificationAction {
	name := strings.ToLower(strings.TrimSpace(e.Event))
	switch {
	case strings.HasSuffix(name, "added"), strings.HasSuffix(name, "enabled"):
		return NotificationActionUpsert
	case strings.HasSuffix(name, "removed"), strings.HasSuffix(name, "disabled"):
		return NotificationActionDelete
	default:
		return NotificationActionIgnore
	}
}
