package notify

import "loklagbe/internal/domain"

// View names the detail screen a notification opens.
type View string

const (
	ViewGeneral       View = "general"
	ViewAccepted      View = "accepted"
	ViewAcceptedSent  View = "accepted_sent"
	ViewCompletedSent View = "completed_sent"
	ViewCompleted     View = "completed"
)

var routes = map[domain.NotificationType]View{
	domain.NotificationGeneral:       ViewGeneral,
	domain.NotificationAccepted:      ViewAccepted,
	domain.NotificationAcceptedSent:  ViewAcceptedSent,
	domain.NotificationCompletedSent: ViewCompletedSent,
	domain.NotificationCompleted:     ViewCompleted,
}

// Route maps a notification type to its view. Unknown and empty types fall
// back to the general view.
func Route(t domain.NotificationType) View {
	if v, ok := routes[t]; ok {
		return v
	}
	return ViewGeneral
}
