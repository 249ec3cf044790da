package gallery

import "github.com/Luismorlan/mediamux/realtime"

// Toast is the notification shown to operators for a change event.
type Toast struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Event       realtime.ChangeEvent `json:"event"`
}

// Notice categorizes a change event for display.
func Notice(event realtime.ChangeEvent) Toast {
	t := Toast{Event: event}
	switch event.Type {
	case realtime.EventInsert:
		t.Title = "New media"
		t.Description = "A new media item was added"
	case realtime.EventUpdate:
		t.Title = "Media updated"
		t.Description = "A media item was updated"
	case realtime.EventDelete:
		t.Title = "Media deleted"
		t.Description = "A media item was removed"
	default:
		t.Title = "Media changed"
	}
	if event.Table != "media" {
		t.Title = "Data changed"
		t.Description = event.Table + " changed"
	}
	return t
}
