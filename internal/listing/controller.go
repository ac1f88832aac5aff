// Package listing keeps the local view of the property collection in step
// with the server, including optimistic soft deletes.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/evcraddock/property-listing/internal/client"
	"github.com/evcraddock/property-listing/internal/notify"
	"github.com/evcraddock/property-listing/internal/property"
)

// MsgDeleted is shown after the server confirms a soft delete.
const MsgDeleted = "Property deleted successfully."

var (
	// ErrClosed is returned once the controller has been closed.
	ErrClosed = errors.New("listing closed")
	// ErrNothingPending is returned by ConfirmDelete when no delete was requested.
	ErrNothingPending = errors.New("no delete pending confirmation")
	// ErrDeleteFailed is returned when the server did not confirm a delete.
	ErrDeleteFailed = errors.New("delete failed")
	// ErrReloadFailed accompanies ErrDeleteFailed when the list could not be
	// reloaded afterwards. The local list is then stale.
	ErrReloadFailed = errors.New("reload failed")
)

// API is the subset of the listing API the controller needs.
type API interface {
	ListProperties(ctx context.Context) ([]property.Property, error)
	CancelProperty(ctx context.Context, id int64) client.CancelResult
}

// Controller owns the local copy of the property list. It is safe for
// concurrent use.
type Controller struct {
	api      API
	notifier notify.Notifier

	mu      sync.Mutex
	props   []property.Property
	loaded  bool
	pending *property.Property
	gone    bool
}

// New creates a listing controller with an empty local list.
func New(api API, notifier notify.Notifier) *Controller {
	return &Controller{api: api, notifier: notifier}
}

// Load fetches the full list and replaces local state. On failure the
// previous state is kept and the caller decides whether to retry.
func (c *Controller) Load(ctx context.Context) error {
	if c.isGone() {
		return ErrClosed
	}

	props, err := c.api.ListProperties(ctx)

	c.mu.Lock()
	if c.gone {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		c.mu.Unlock()
		c.notify(notify.Error, client.UserMessage(err))
		return fmt.Errorf("loading properties: %w", err)
	}
	c.props = props
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Loaded reports whether at least one Load has succeeded.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// All returns a copy of the local list, soft-deleted records included.
func (c *Controller) All() []property.Property {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]property.Property, len(c.props))
	copy(out, c.props)
	return out
}

// Visible returns the properties that may be displayed.
func (c *Controller) Visible() []property.Property {
	c.mu.Lock()
	defer c.mu.Unlock()
	return property.Visible(c.props)
}

// Search returns the visible properties whose location matches query.
func (c *Controller) Search(query string) []property.Property {
	return property.FilterByLocation(c.Visible(), query)
}

// Get returns a visible property by ID.
func (c *Controller) Get(id int64) (property.Property, bool) {
	return property.Find(c.Visible(), id)
}

// RequestDelete stages p for deletion. Nothing changes until ConfirmDelete.
func (c *Controller) RequestDelete(p property.Property) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &p
}

// Pending returns the property awaiting confirmation, if any.
func (c *Controller) Pending() (property.Property, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return property.Property{}, false
	}
	return *c.pending, true
}

// CancelDelete drops the staged delete.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// ConfirmDelete soft-deletes the staged property. It is removed from local
// state before the server is asked, and any failure is corrected by
// reloading the full list from the server.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.gone {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.pending == nil {
		c.mu.Unlock()
		return ErrNothingPending
	}
	id := c.pending.ID
	c.pending = nil
	c.mu.Unlock()

	c.applyLocal(id)
	result := c.api.CancelProperty(ctx, id)
	return c.reconcile(ctx, id, result)
}

// applyLocal removes id from the local list.
func (c *Controller) applyLocal(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]property.Property, 0, len(c.props))
	for _, p := range c.props {
		if p.ID != id {
			out = append(out, p)
		}
	}
	c.props = out
}

// reconcile settles local state once the server has answered. Success needs
// no further work. Anything else reloads authoritative state instead of
// reinserting the removed record, so concurrent changes by other clients are
// picked up.
func (c *Controller) reconcile(ctx context.Context, id int64, result client.CancelResult) error {
	if c.isGone() {
		return ErrClosed
	}

	if result.Success {
		c.notify(notify.Success, MsgDeleted)
		return nil
	}

	msg := result.Message
	if msg == "" {
		msg = client.DefaultMessage
	}
	c.notify(notify.Error, msg)
	slog.Warn("delete not confirmed, reloading", "id", id, "message", msg)

	props, err := c.api.ListProperties(ctx)
	if err != nil {
		// The notification above already covers this failure.
		slog.Error("reloading after failed delete", "id", id, "error", err)
		return fmt.Errorf("%w: %s; %w: %w", ErrDeleteFailed, msg, ErrReloadFailed, err)
	}

	c.mu.Lock()
	if !c.gone {
		c.props = props
		c.loaded = true
	}
	c.mu.Unlock()
	return fmt.Errorf("%w: %s", ErrDeleteFailed, msg)
}

// Close marks the controller as gone; results still in flight are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gone = true
}

func (c *Controller) isGone() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gone
}

func (c *Controller) notify(level notify.Level, msg string) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(notify.Notification{Level: level, Message: msg})
}
