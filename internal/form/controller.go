// Package form manages the lifecycle of a single create or edit draft.
package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/evcraddock/property-listing/internal/client"
	"github.com/evcraddock/property-listing/internal/notify"
	"github.com/evcraddock/property-listing/internal/property"
)

// DefaultDelay is how long a success message stays up before the form closes.
const DefaultDelay = 1500 * time.Millisecond

// Notification texts.
const (
	MsgNoImage       = "Please upload an image before submitting!"
	MsgImageUploaded = "Image uploaded successfully!"
	MsgNotFound      = "Property not found!"
	MsgLoadFailed    = "Failed to load property data!"
)

var (
	// ErrClosed is returned once the form has been closed.
	ErrClosed = errors.New("form closed")
	// ErrBusy is returned when a submit or upload is already in flight.
	ErrBusy = errors.New("request already in flight")
	// ErrNotReady is returned when the form cannot accept the action in its
	// current state.
	ErrNotReady = errors.New("form not ready")
	// ErrNoImage is returned when submitting without an uploaded image.
	ErrNoImage = errors.New("no image uploaded")
	// ErrNotFound is returned by Hydrate when the property no longer exists.
	ErrNotFound = errors.New("property not found")
)

// Mode selects between creating a new property and editing an existing one.
type Mode int

const (
	Create Mode = iota
	Edit
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "create"
}

// State is the lifecycle position of a form.
type State int

const (
	Empty State = iota
	Hydrating
	Ready
	NotFound
	Submitting
	Closed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Hydrating:
		return "hydrating"
	case Ready:
		return "ready"
	case NotFound:
		return "not found"
	case Submitting:
		return "submitting"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// API is the subset of the listing API a form needs.
type API interface {
	ListProperties(ctx context.Context) ([]property.Property, error)
	CreateProperty(ctx context.Context, d property.Draft) (*client.MutationResult, error)
	EditProperty(ctx context.Context, id int64, d property.Draft) (*client.MutationResult, error)
	UploadImage(ctx context.Context, filename string, r io.Reader) (*client.UploadResult, error)
}

// Options configures a Controller.
type Options struct {
	Mode Mode
	// ID is the property being edited. Ignored in create mode.
	ID int64
	// Delay between the success notification and closing. Zero or less
	// means DefaultDelay.
	Delay time.Duration
	// OnClose navigates away from the form. It runs after a successful
	// submit or when the edited property does not exist.
	OnClose func()
}

// Controller holds one draft and drives it from open to submit.
// It is safe for concurrent use.
type Controller struct {
	api      API
	notifier notify.Notifier
	opts     Options

	mu        sync.Mutex
	state     State
	draft     property.Draft
	uploading bool
	gone      bool
}

// New creates a form controller. Create forms start Empty; edit forms start
// Hydrating and must be loaded with Hydrate.
func New(api API, notifier notify.Notifier, opts Options) *Controller {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	c := &Controller{
		api:      api,
		notifier: notifier,
		opts:     opts,
		state:    Empty,
		draft:    property.NewDraft(),
	}
	if opts.Mode == Edit {
		c.state = Hydrating
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Uploading reports whether an image upload is in flight.
func (c *Controller) Uploading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploading
}

// Draft returns a snapshot of the draft.
func (c *Controller) Draft() property.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// CanSubmit reports whether the submit control should be enabled.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == Ready && c.draft.Valid()
}

// Hydrate loads the edited property into the draft. The whole list is
// fetched and searched so a soft-deleted or missing ID is detected the same
// way the listing sees it.
func (c *Controller) Hydrate(ctx context.Context) error {
	c.mu.Lock()
	if c.gone {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.opts.Mode != Edit || c.state != Hydrating {
		c.mu.Unlock()
		return ErrNotReady
	}
	c.mu.Unlock()

	props, err := c.api.ListProperties(ctx)

	c.mu.Lock()
	if c.gone {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		c.mu.Unlock()
		slog.Debug("hydrating form", "id", c.opts.ID, "error", err)
		c.notify(notify.Error, MsgLoadFailed)
		return fmt.Errorf("loading property %d: %w", c.opts.ID, err)
	}

	p, ok := property.Find(props, c.opts.ID)
	if !ok {
		c.state = NotFound
		c.mu.Unlock()
		c.notify(notify.Error, MsgNotFound)
		c.close()
		return ErrNotFound
	}

	c.draft = property.DraftFromProperty(p)
	c.draft.ImageName = p.Image
	c.state = Ready
	c.mu.Unlock()
	return nil
}

// Set updates one draft field by its wire name.
func (c *Controller) Set(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Closed, NotFound:
		return ErrClosed
	case Hydrating:
		return ErrNotReady
	}
	if err := c.draft.Set(field, value); err != nil {
		return err
	}
	if c.state == Empty {
		c.state = Ready
	}
	return nil
}

// UploadImage uploads r and, once the server answers, points the draft at
// the stored file. Until then the draft keeps its previous image.
func (c *Controller) UploadImage(ctx context.Context, name string, r io.Reader) error {
	c.mu.Lock()
	if c.gone || c.state == Closed || c.state == NotFound {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state == Hydrating {
		c.mu.Unlock()
		return ErrNotReady
	}
	if c.uploading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.uploading = true
	c.mu.Unlock()

	res, err := c.api.UploadImage(ctx, name, r)

	c.mu.Lock()
	c.uploading = false
	if c.gone || c.state == Closed || c.state == NotFound {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		c.mu.Unlock()
		c.notify(notify.Error, client.UserMessage(err))
		return fmt.Errorf("uploading image: %w", err)
	}

	c.draft.Image = res.Filename()
	c.draft.ImageName = name
	if c.state == Empty {
		c.state = Ready
	}
	c.mu.Unlock()

	c.notify(notify.Success, MsgImageUploaded)
	return nil
}

// Submit sends the draft to the server. A draft without an image or with an
// invalid field is rejected locally. On success the form closes after the
// configured delay; on failure the draft is kept as it was.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.gone {
		c.mu.Unlock()
		return ErrClosed
	}
	switch c.state {
	case Submitting:
		c.mu.Unlock()
		return ErrBusy
	case Closed, NotFound:
		c.mu.Unlock()
		return ErrClosed
	case Hydrating:
		c.mu.Unlock()
		return ErrNotReady
	}

	draft := c.draft
	if !draft.HasImage() {
		c.mu.Unlock()
		c.notify(notify.Warning, MsgNoImage)
		return ErrNoImage
	}
	if err := draft.Validate(); err != nil {
		c.mu.Unlock()
		c.notify(notify.Warning, client.UserMessage(err))
		return err
	}

	prev := c.state
	c.state = Submitting
	c.mu.Unlock()

	var (
		res *client.MutationResult
		err error
	)
	if c.opts.Mode == Edit {
		res, err = c.api.EditProperty(ctx, c.opts.ID, draft)
	} else {
		res, err = c.api.CreateProperty(ctx, draft)
	}

	c.mu.Lock()
	if c.gone {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		c.state = prev
		c.mu.Unlock()
		c.notify(notify.Error, client.UserMessage(err))
		return fmt.Errorf("submitting %s form: %w", c.opts.Mode, err)
	}
	c.mu.Unlock()

	c.notify(notify.Success, res.Message)

	timer := time.NewTimer(c.opts.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}

	c.mu.Lock()
	if c.gone {
		c.mu.Unlock()
		return nil
	}
	c.state = Closed
	c.mu.Unlock()
	c.close()
	return nil
}

// Close marks the form as gone. Requests still in flight finish, but their
// results are discarded without notifications or navigation.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gone = true
	if c.state != NotFound {
		c.state = Closed
	}
}

func (c *Controller) close() {
	if c.opts.OnClose != nil {
		c.opts.OnClose()
	}
}

func (c *Controller) notify(level notify.Level, msg string) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(notify.Notification{Level: level, Message: msg})
}
