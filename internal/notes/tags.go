package notes

import (
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// AddTag attaches a tag to a note. The tag is trimmed; a blank result is
// a no-op, as is adding a tag the note already carries. Case is
// preserved and duplicates are compared exactly.
func (r *Repository) AddTag(id, tag string) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.findLocked(id)
	if n == nil {
		return nil, apperr.ErrNotFound
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return n.Clone(), nil
	}
	for _, t := range n.Tags {
		if t == tag {
			return n.Clone(), nil
		}
	}
	n.Tags = append(n.Tags, tag)
	n.UpdatedAt = r.now().UnixMilli()
	r.persistLocked()
	return n.Clone(), nil
}

// RemoveTag detaches a tag from a note. Removing a tag the note does
// not carry is a no-op.
func (r *Repository) RemoveTag(id, tag string) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.findLocked(id)
	if n == nil {
		return nil, apperr.ErrNotFound
	}
	for i, t := range n.Tags {
		if t != tag {
			continue
		}
		n.Tags = append(n.Tags[:i], n.Tags[i+1:]...)
		if len(n.Tags) == 0 {
			n.Tags = nil
		}
		n.UpdatedAt = r.now().UnixMilli()
		r.persistLocked()
		break
	}
	return n.Clone(), nil
}
