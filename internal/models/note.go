// Package models defines the domain types for Ansuz.
package models

// Theme is the UI color scheme.
type Theme string

// Supported themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Note represents one document in the notes collection. Timestamps are
// unix milliseconds; CreatedAt never changes after creation.
type Note struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`
	IsDefault   bool     `json:"isDefault,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Category    string   `json:"category,omitempty"`
	WordCount   int      `json:"wordCount,omitempty"`
	ReadingTime int      `json:"readingTime,omitempty"`
}

// Clone returns a deep copy so callers can hand notes out without
// aliasing the repository's slices.
func (n *Note) Clone() *Note {
	c := *n
	if n.Tags != nil {
		c.Tags = make([]string, len(n.Tags))
		copy(c.Tags, n.Tags)
	}
	return &c
}

// ViewState holds the persisted UI selection state. Each field is stored
// under its own key and restored independently on load.
type ViewState struct {
	ActiveID  string `json:"activeId"`
	Search    string `json:"search"`
	Collapsed bool   `json:"collapsed"`
	Theme     Theme  `json:"theme"`
}

// Notification kinds.
const (
	NotificationWarning = "warning"
	NotificationError   = "error"
)

// Notification is an abstract toast event emitted by the autosave
// controller. Presentation is up to the consumer.
type Notification struct {
	Kind          string `json:"kind"`
	Message       string `json:"message"`
	AutoDismissMs int    `json:"autoDismissMs"`
}
