package api

import (
	"strings"

	"github.com/starford/ansuz/internal/analyzer"
	"github.com/starford/ansuz/internal/models"
)

// RenameRequest is the request body for renaming a note.
type RenameRequest struct {
	Title string `json:"title"`
}

// ContentRequest is the request body for a content edit.
type ContentRequest struct {
	Content string `json:"content"`
}

// TagRequest is the request body for attaching a tag.
type TagRequest struct {
	Tag string `json:"tag"`
}

// ViewRequest is a partial view-state update; absent fields are left
// untouched.
type ViewRequest struct {
	ActiveID  *string `json:"activeId"`
	Search    *string `json:"search"`
	Collapsed *bool   `json:"collapsed"`
	Theme     *string `json:"theme"`
}

// MailRequest is the contact-form submission body.
type MailRequest struct {
	FromEmail string `json:"fromEmail"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

// SidebarItem is the list representation of a note: trimmed tags,
// stripped content preview, no full body.
type SidebarItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	UpdatedAt   int64    `json:"updatedAt"`
	IsDefault   bool     `json:"isDefault,omitempty"`
	Category    string   `json:"category,omitempty"`
	WordCount   int      `json:"wordCount"`
	ReadingTime int      `json:"readingTime"`
	// DisplayTags carries at most two tags, uppercased for the chip
	// row; ExtraTags is how many more the note has.
	DisplayTags []string `json:"displayTags,omitempty"`
	ExtraTags   int      `json:"extraTags,omitempty"`
	Preview     string   `json:"preview"`
}

// NoteListResponse wraps a sidebar listing.
type NoteListResponse struct {
	Notes []SidebarItem `json:"notes"`
	Total int           `json:"total"`
}

const (
	previewRunes    = 120
	sidebarMaxChips = 2
)

func toSidebarItem(n *models.Note) SidebarItem {
	item := SidebarItem{
		ID:          n.ID,
		Title:       n.Title,
		UpdatedAt:   n.UpdatedAt,
		IsDefault:   n.IsDefault,
		Category:    n.Category,
		WordCount:   n.WordCount,
		ReadingTime: n.ReadingTime,
		Preview:     preview(n.Content),
	}
	for i, tag := range n.Tags {
		if i == sidebarMaxChips {
			item.ExtraTags = len(n.Tags) - sidebarMaxChips
			break
		}
		item.DisplayTags = append(item.DisplayTags, strings.ToUpper(tag))
	}
	return item
}

func preview(content string) string {
	plain := analyzer.StripMarkup(content)
	runes := []rune(plain)
	if len(runes) <= previewRunes {
		return plain
	}
	return string(runes[:previewRunes])
}
