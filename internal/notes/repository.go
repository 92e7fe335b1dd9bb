// Package notes holds the note collection: CRUD operations, tag
// management, view state, and persistence through the obfuscated
// key/value store. The collection is never empty and always contains
// exactly one default note.
package notes

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/analyzer"
	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/kvstore"
	"github.com/starford/ansuz/internal/models"
)

// Storage keys, all namespaced by the store itself.
const (
	notesKey     = "notes"
	activeKey    = "active"
	searchKey    = "search"
	themeKey     = "ui_theme"
	collapsedKey = "ui_collapsed"
)

const (
	untitledTitle = "Untitled"
	emptyDocument = "<p></p>"
)

// Repository owns the live note collection. All methods are safe for
// concurrent use and return copies; callers never see the internal
// slice or its elements.
type Repository struct {
	mu     sync.RWMutex
	store  *kvstore.Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	notes []*models.Note
	view  models.ViewState
}

// Options tune a Repository. The zero value is usable.
type Options struct {
	// Logger receives load recovery and persistence diagnostics.
	Logger *slog.Logger
	// Now supplies timestamps, for tests.
	Now func() time.Time
	// NewID mints note ids, for tests.
	NewID func() string
}

// NewRepository loads the collection from the store, repairing whatever
// it finds: a missing or corrupt snapshot seeds the default note, a
// snapshot without a default note gets one prepended, and a stale active
// id falls back to the most recent note.
func NewRepository(store *kvstore.Store, opts Options) *Repository {
	r := &Repository{
		store:  store,
		logger: opts.Logger,
		now:    opts.Now,
		newID:  opts.NewID,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newID == nil {
		r.newID = func() string { return "n_" + uuid.NewString() }
	}
	r.load()
	return r
}

func (r *Repository) load() {
	loaded := kvstore.Get(r.store, notesKey, []*models.Note(nil))

	notes := make([]*models.Note, 0, len(loaded)+1)
	haveDefault := false
	for _, n := range loaded {
		if n == nil || n.ID == "" {
			continue
		}
		if n.IsDefault {
			if haveDefault {
				r.logger.Warn("notes: dropping extra default note", "id", n.ID)
				continue
			}
			haveDefault = true
			n.Content = DefaultDocument
		}
		notes = append(notes, n)
	}
	if !haveDefault {
		if len(loaded) > 0 {
			r.logger.Warn("notes: persisted snapshot lost its default note, reseeding")
		}
		notes = append([]*models.Note{r.makeDefault()}, notes...)
	}
	r.notes = notes

	r.view = models.ViewState{
		ActiveID:  kvstore.Get(r.store, activeKey, ""),
		Search:    kvstore.Get(r.store, searchKey, ""),
		Collapsed: kvstore.Get(r.store, collapsedKey, false),
		Theme:     kvstore.Get(r.store, themeKey, models.ThemeDark),
	}
	if r.view.Theme != models.ThemeLight && r.view.Theme != models.ThemeDark {
		r.view.Theme = models.ThemeDark
	}
	if r.findLocked(r.view.ActiveID) == nil {
		r.view.ActiveID = r.mostRecentLocked().ID
	}
}

func (r *Repository) makeDefault() *models.Note {
	at := r.now().UnixMilli()
	res := analyzer.Analyze(DefaultDocument)
	return &models.Note{
		ID:          DefaultNoteID,
		Title:       DefaultNoteTitle,
		Content:     DefaultDocument,
		CreatedAt:   at,
		UpdatedAt:   at,
		IsDefault:   true,
		Category:    res.Category,
		WordCount:   res.WordCount,
		ReadingTime: res.ReadingTime,
	}
}

// List returns the collection sorted by last update, newest first. A
// non-empty filter keeps only notes whose title contains it, case
// insensitively; filtering never drops the sort order.
func (r *Repository) List(filter string) []*models.Note {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Note, 0, len(r.notes))
	needle := strings.ToLower(strings.TrimSpace(filter))
	for _, n := range r.notes {
		if needle != "" && !strings.Contains(strings.ToLower(n.Title), needle) {
			continue
		}
		out = append(out, n.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt > out[j].UpdatedAt
	})
	return out
}

// Get returns a copy of one note.
func (r *Repository) Get(id string) (*models.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.findLocked(id)
	if n == nil {
		return nil, apperr.ErrNotFound
	}
	return n.Clone(), nil
}

// Create adds a fresh untitled note, makes it active, and persists.
func (r *Repository) Create() *models.Note {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := r.now().UnixMilli()
	n := &models.Note{
		ID:        r.newID(),
		Title:     untitledTitle,
		Content:   emptyDocument,
		CreatedAt: at,
		UpdatedAt: at,
		Category:  analyzer.CategoryGeneral,
	}
	r.notes = append(r.notes, n)
	r.view.ActiveID = n.ID
	r.persistLocked()
	r.store.Set(activeKey, n.ID)
	return n.Clone()
}

// Rename sets a note's title, falling back to "Untitled" when the new
// title is blank, and bumps its update time.
func (r *Repository) Rename(id, title string) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.findLocked(id)
	if n == nil {
		return nil, apperr.ErrNotFound
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = untitledTitle
	}
	n.Title = title
	n.UpdatedAt = r.now().UnixMilli()
	r.persistLocked()
	return n.Clone(), nil
}

// UpdateContent replaces a note's content, re-derives its word count,
// reading time, category, and hashtag tags, and persists. Tags already
// on the note survive the re-derivation; only new hashtags are added.
func (r *Repository) UpdateContent(id, content string) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.findLocked(id)
	if n == nil {
		return nil, apperr.ErrNotFound
	}
	res := analyzer.Analyze(content)
	n.Content = content
	n.WordCount = res.WordCount
	n.ReadingTime = res.ReadingTime
	n.Category = res.Category
	n.Tags = mergeTags(n.Tags, res.Tags)
	n.UpdatedAt = r.now().UnixMilli()
	r.persistLocked()
	return n.Clone(), nil
}

// Delete removes a note. The default note is protected and cannot be
// removed. Deleting the active note moves activation to the most recent
// survivor; the collection itself can never reach zero because the
// default note always remains.
func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, n := range r.notes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperr.ErrNotFound
	}
	if r.notes[idx].IsDefault {
		return apperr.ErrProtected
	}
	r.notes = append(r.notes[:idx], r.notes[idx+1:]...)
	if r.view.ActiveID == id {
		r.view.ActiveID = r.mostRecentLocked().ID
		r.store.Set(activeKey, r.view.ActiveID)
	}
	r.persistLocked()
	return nil
}

// View returns the current view state.
func (r *Repository) View() models.ViewState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

// ActiveID returns the id of the active note.
func (r *Repository) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view.ActiveID
}

// SetActive switches the active note.
func (r *Repository) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findLocked(id) == nil {
		return apperr.ErrNotFound
	}
	r.view.ActiveID = id
	r.store.Set(activeKey, id)
	return nil
}

// SetSearch stores the sidebar filter text.
func (r *Repository) SetSearch(q string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view.Search = q
	r.store.Set(searchKey, q)
}

// SetCollapsed stores the sidebar collapse flag.
func (r *Repository) SetCollapsed(collapsed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view.Collapsed = collapsed
	r.store.Set(collapsedKey, collapsed)
}

// SetTheme stores the editor theme. Unknown values are ignored.
func (r *Repository) SetTheme(theme models.Theme) {
	if theme != models.ThemeLight && theme != models.ThemeDark {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view.Theme = theme
	r.store.Set(themeKey, theme)
}

// Persist writes the current snapshot to the store. Mutating methods
// already persist; this exists for shutdown paths that want one final
// write regardless.
func (r *Repository) Persist() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persistLocked()
}

// persistLocked snapshots the collection into the store. The default
// note is pinned to its canonical content in the snapshot, whatever its
// in-memory content is right now.
func (r *Repository) persistLocked() {
	snapshot := make([]*models.Note, len(r.notes))
	for i, n := range r.notes {
		c := n.Clone()
		if c.IsDefault {
			c.Content = DefaultDocument
		}
		snapshot[i] = c
	}
	r.store.Set(notesKey, snapshot)
}

func (r *Repository) findLocked(id string) *models.Note {
	if id == "" {
		return nil
	}
	for _, n := range r.notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// mostRecentLocked returns the newest note by update time. The caller
// guarantees the collection is non-empty.
func (r *Repository) mostRecentLocked() *models.Note {
	best := r.notes[0]
	for _, n := range r.notes[1:] {
		if n.UpdatedAt > best.UpdatedAt {
			best = n
		}
	}
	return best
}

// mergeTags keeps every existing tag in order and appends derived tags
// that are not already present. Comparison is exact, so a manually
// cased tag and its lower-cased hashtag twin coexist.
func mergeTags(existing, derived []string) []string {
	if len(derived) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing))
	out := make([]string, 0, len(existing)+len(derived))
	for _, t := range existing {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range derived {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
