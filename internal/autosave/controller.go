// Package autosave sits between the editing surface and the note
// repository. It enforces the character ceiling, reverts over-limit
// edits, and coalesces bursts of keystrokes into single repository
// writes on a debounce timer.
package autosave

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/starford/ansuz/internal/analyzer"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/notes"
)

// Defaults for the shipped configuration.
const (
	DefaultCeiling  = 500
	DefaultDebounce = 400 * time.Millisecond

	warningDismissMs = 3000
	errorDismissMs   = 4000
)

// State of the active document.
type State int

const (
	StateIdle State = iota
	StateEditing
	StateWarning
	StateExceeded
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateWarning:
		return "warning"
	case StateExceeded:
		return "exceeded"
	default:
		return "idle"
	}
}

// Status of one edit event.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusWarning  Status = "warning"
	StatusRejected Status = "rejected"
)

// Result tells the editing surface what to do with an edit: on
// rejection Content carries the last accepted document that the
// surface must display again.
type Result struct {
	Status    Status `json:"status"`
	Content   string `json:"content"`
	Length    int    `json:"length"`
	Remaining int    `json:"remaining"`
}

// Notifier receives the transient warning and error toasts.
type Notifier interface {
	Notify(models.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(models.Notification) {}

type stopper interface{ Stop() bool }

// Controller is the autosave state machine. It tracks one active
// document at a time; switching documents flushes the pending write of
// the previous one so no settled keystroke batch is ever dropped.
type Controller struct {
	repo     *notes.Repository
	notifier Notifier
	logger   *slog.Logger
	ceiling  int
	debounce time.Duration
	after    func(time.Duration, func()) stopper

	mu       sync.Mutex
	state    State
	activeID string
	accepted string
	pending  string
	dirty    bool
	gen      uint64
	timer    stopper
}

// Options configure a Controller. The zero value uses the shipped
// defaults and swallows notifications.
type Options struct {
	Notifier Notifier
	Logger   *slog.Logger
	// Ceiling is the plain-text character limit per note.
	Ceiling int
	// Debounce is how long a keystroke batch waits before committing.
	Debounce time.Duration

	// after schedules the debounce callback, for tests.
	after func(time.Duration, func()) stopper
}

// NewController builds a controller bound to the repository's active
// note.
func NewController(repo *notes.Repository, opts Options) *Controller {
	c := &Controller{
		repo:     repo,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		ceiling:  opts.Ceiling,
		debounce: opts.Debounce,
		after:    opts.after,
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.ceiling <= 0 {
		c.ceiling = DefaultCeiling
	}
	if c.debounce <= 0 {
		c.debounce = DefaultDebounce
	}
	if c.after == nil {
		c.after = func(d time.Duration, fn func()) stopper {
			return time.AfterFunc(d, fn)
		}
	}
	c.adoptLocked(repo.ActiveID())
	return c
}

// Edit feeds one edit event for a note. When the note is not the one
// currently tracked, the previous note's pending batch is flushed
// first. The returned Result says whether the edit was accepted; a
// rejected edit's Result carries the content to revert the surface to.
func (c *Controller) Edit(id, content string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id != c.activeID {
		c.flushLocked()
		if err := c.repo.SetActive(id); err != nil {
			return Result{}, err
		}
		c.adoptLocked(id)
	}

	length := utf8.RuneCountInString(analyzer.StripMarkup(content))
	if length > c.ceiling {
		c.state = StateExceeded
		c.notifier.Notify(models.Notification{
			Kind:          models.NotificationError,
			Message:       fmt.Sprintf("Character limit exceeded. Maximum %d characters allowed.", c.ceiling),
			AutoDismissMs: errorDismissMs,
		})
		return Result{
			Status:    StatusRejected,
			Content:   c.accepted,
			Length:    length,
			Remaining: 0,
		}, nil
	}

	c.accepted = content
	c.pending = content
	c.dirty = true
	c.scheduleLocked()

	res := Result{
		Status:    StatusAccepted,
		Content:   content,
		Length:    length,
		Remaining: c.ceiling - length,
	}
	if length*10 >= c.ceiling*9 {
		c.state = StateWarning
		res.Status = StatusWarning
		c.notifier.Notify(models.Notification{
			Kind:          models.NotificationWarning,
			Message:       fmt.Sprintf("%d characters remaining", c.ceiling-length),
			AutoDismissMs: warningDismissMs,
		})
	} else {
		c.state = StateEditing
	}
	return res, nil
}

// SetActive switches the tracked note, flushing whatever the previous
// note still had pending.
func (c *Controller) SetActive(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == c.activeID {
		return nil
	}
	c.flushLocked()
	if err := c.repo.SetActive(id); err != nil {
		return err
	}
	c.adoptLocked(id)
	return nil
}

// Flush commits any pending batch immediately.
func (c *Controller) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
}

// Close flushes and stops the controller. Used on shutdown.
func (c *Controller) Close() error {
	c.Flush()
	return nil
}

// ActiveID returns the id of the tracked note.
func (c *Controller) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// State returns the current state of the tracked document.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// adoptLocked points the controller at a note and loads its committed
// content as the revert baseline.
func (c *Controller) adoptLocked(id string) {
	c.activeID = id
	c.accepted = ""
	c.dirty = false
	c.state = StateIdle
	if id == "" {
		return
	}
	if n, err := c.repo.Get(id); err == nil {
		c.accepted = n.Content
	}
}

// scheduleLocked (re)arms the debounce timer. Each arm bumps the
// generation so a timer that lost the race against a flush or a later
// keystroke commits nothing.
func (c *Controller) scheduleLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = c.after(c.debounce, func() {
		c.settle(gen)
	})
}

func (c *Controller) settle(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.commitLocked()
	c.state = StateIdle
}

// flushLocked cancels the timer and commits the pending batch, if any.
func (c *Controller) flushLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	c.commitLocked()
	c.state = StateIdle
}

// commitLocked performs the single repository update for the batch.
func (c *Controller) commitLocked() {
	if !c.dirty {
		return
	}
	c.dirty = false
	if _, err := c.repo.UpdateContent(c.activeID, c.pending); err != nil {
		c.logger.Error("autosave: commit failed", "id", c.activeID, "error", err)
	}
}
