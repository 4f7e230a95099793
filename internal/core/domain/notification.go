package domain

// NotificationKind tells an error banner from a success toast.
type NotificationKind string

const (
	NotifyError   NotificationKind = "error"
	NotifySuccess NotificationKind = "success"
)

// Notification is the single transient message shown on the dashboard.
type Notification struct {
	Kind    NotificationKind
	Message string
}
