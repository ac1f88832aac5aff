package form

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/property-listing/internal/client"
	"github.com/evcraddock/property-listing/internal/notify"
	"github.com/evcraddock/property-listing/internal/property"
)

const testDelay = 20 * time.Millisecond

type fakeAPI struct {
	mu sync.Mutex

	props   []property.Property
	listErr error

	createRes *client.MutationResult
	createErr error
	editRes   *client.MutationResult
	editErr   error

	uploadRes  *client.UploadResult
	uploadErr  error
	uploadGate chan struct{}
	submitGate chan struct{}

	listCalls   int
	createCalls []property.Draft
	editCalls   map[int64][]property.Draft
	uploadNames []string
}

func (f *fakeAPI) ListProperties(ctx context.Context) ([]property.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.props, f.listErr
}

func (f *fakeAPI) CreateProperty(ctx context.Context, d property.Draft) (*client.MutationResult, error) {
	f.mu.Lock()
	f.createCalls = append(f.createCalls, d)
	gate := f.submitGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.createRes, f.createErr
}

func (f *fakeAPI) EditProperty(ctx context.Context, id int64, d property.Draft) (*client.MutationResult, error) {
	f.mu.Lock()
	if f.editCalls == nil {
		f.editCalls = make(map[int64][]property.Draft)
	}
	f.editCalls[id] = append(f.editCalls[id], d)
	gate := f.submitGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.editRes, f.editErr
}

func (f *fakeAPI) UploadImage(ctx context.Context, filename string, r io.Reader) (*client.UploadResult, error) {
	f.mu.Lock()
	f.uploadNames = append(f.uploadNames, filename)
	gate := f.uploadGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.uploadRes, f.uploadErr
}

func (f *fakeAPI) networkCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.createCalls) + len(f.uploadNames)
	for _, calls := range f.editCalls {
		n += len(calls)
	}
	return n
}

// closeCounter counts OnClose calls.
type closeCounter struct {
	mu sync.Mutex
	n  int
}

func (c *closeCounter) inc() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *closeCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func towerFields() map[string]string {
	return map[string]string{
		"title":              "Tower A",
		"location":           "Indore",
		"price":              "50000",
		"square_feet":        "1200",
		"year_built":         "2020",
		"description":        "Glass-front commercial tower",
		"property_type":      "Showroom",
		"parking":            "Basement",
		"amenities":          "Lift, Power backup",
		"property_condition": "new",
		"floors":             "4",
		"image":              "tower.jpg",
	}
}

func fill(t *testing.T, c *Controller, fields map[string]string) {
	t.Helper()
	for k, v := range fields {
		require.NoError(t, c.Set(k, v))
	}
}

func existing() property.Property {
	return property.Property{
		ID:                7,
		Title:             "Plaza",
		Location:          "Pune",
		Price:             90000,
		SquareFeet:        3000,
		YearBuilt:         2015,
		Description:       "Corner plot",
		PropertyType:      property.TypeShowroom,
		Parking:           "Open",
		Amenities:         "Lift",
		PropertyCondition: property.ConditionGood,
		Floors:            "2",
		Image:             "plaza.jpg",
		Status:            1,
	}
}

func TestCreateScenario(t *testing.T) {
	api := &fakeAPI{createRes: &client.MutationResult{Message: "Property added successfully"}}
	rec := &notify.Recorder{}
	closed := &closeCounter{}
	c := New(api, rec, Options{Mode: Create, Delay: testDelay, OnClose: closed.inc})

	assert.Equal(t, Empty, c.State())
	fill(t, c, towerFields())
	assert.Equal(t, Ready, c.State())
	assert.True(t, c.CanSubmit())

	start := time.Now()
	require.NoError(t, c.Submit(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), testDelay, "form must not close before the delay")

	require.Len(t, api.createCalls, 1)
	assert.Equal(t, "Tower A", api.createCalls[0].Title)
	assert.Equal(t, "tower.jpg", api.createCalls[0].Image)

	assert.Equal(t, []notify.Notification{
		{Level: notify.Success, Message: "Property added successfully"},
	}, rec.All())
	assert.Equal(t, 1, closed.count())
	assert.Equal(t, Closed, c.State())
}

func TestSuccessShownBeforeClose(t *testing.T) {
	api := &fakeAPI{createRes: &client.MutationResult{Message: "ok"}}
	closed := &closeCounter{}
	var notifiedBeforeClose bool
	n := notify.Func(func(notify.Notification) {
		notifiedBeforeClose = closed.count() == 0
	})
	c := New(api, n, Options{Delay: testDelay, OnClose: closed.inc})
	fill(t, c, towerFields())

	require.NoError(t, c.Submit(context.Background()))
	assert.True(t, notifiedBeforeClose)
	assert.Equal(t, 1, closed.count())
}

func TestEditInvalidSquareFeet(t *testing.T) {
	api := &fakeAPI{props: []property.Property{existing()}}
	rec := &notify.Recorder{}
	c := New(api, rec, Options{Mode: Edit, ID: 7, Delay: testDelay})

	require.NoError(t, c.Hydrate(context.Background()))
	assert.True(t, c.CanSubmit())

	require.NoError(t, c.Set("square_feet", "-5"))
	assert.False(t, c.CanSubmit())

	err := c.Submit(context.Background())
	var verr *property.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "square_feet")
	assert.Zero(t, api.networkCalls())

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.Warning, last.Level)
	assert.Equal(t, Ready, c.State())
}

func TestSubmitWithoutImage(t *testing.T) {
	api := &fakeAPI{}
	rec := &notify.Recorder{}
	c := New(api, rec, Options{Delay: testDelay})
	fields := towerFields()
	delete(fields, "image")
	fill(t, c, fields)

	err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Zero(t, api.networkCalls())
	assert.Equal(t, []notify.Notification{
		{Level: notify.Warning, Message: MsgNoImage},
	}, rec.All())
}

func TestSubmitBlankField(t *testing.T) {
	for _, field := range property.Fields {
		if field == "image" {
			continue
		}
		t.Run(field, func(t *testing.T) {
			api := &fakeAPI{}
			rec := &notify.Recorder{}
			c := New(api, rec, Options{Delay: testDelay})
			fill(t, c, towerFields())
			require.NoError(t, c.Set(field, "   "))

			assert.False(t, c.CanSubmit())
			assert.Error(t, c.Submit(context.Background()))
			assert.Zero(t, api.networkCalls())
			assert.Len(t, rec.All(), 1)
		})
	}
}

func TestSubmitEmptyForm(t *testing.T) {
	api := &fakeAPI{}
	c := New(api, &notify.Recorder{}, Options{})
	assert.False(t, c.CanSubmit())
	assert.ErrorIs(t, c.Submit(context.Background()), ErrNoImage)
	assert.Zero(t, api.networkCalls())
}

func TestSubmitFailurePreservesDraft(t *testing.T) {
	api := &fakeAPI{createErr: &client.ServerError{Status: 400, Message: "Title already used"}}
	rec := &notify.Recorder{}
	closed := &closeCounter{}
	c := New(api, rec, Options{Delay: testDelay, OnClose: closed.inc})
	fill(t, c, towerFields())
	before := c.Draft()

	err := c.Submit(context.Background())
	require.Error(t, err)

	assert.Equal(t, before, c.Draft())
	assert.Equal(t, Ready, c.State())
	assert.Zero(t, closed.count())
	assert.Equal(t, []notify.Notification{
		{Level: notify.Error, Message: "Title already used"},
	}, rec.All())

	// The user can fix things and try again.
	api.createErr = nil
	api.createRes = &client.MutationResult{Message: "Property added successfully"}
	require.NoError(t, c.Submit(context.Background()))
	assert.Len(t, api.createCalls, 2)
}

func TestSubmitReentry(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{createRes: &client.MutationResult{Message: "ok"}, submitGate: gate}
	c := New(api, &notify.Recorder{}, Options{Delay: testDelay})
	fill(t, c, towerFields())

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()

	require.Eventually(t, func() bool { return c.State() == Submitting }, time.Second, time.Millisecond)
	assert.False(t, c.CanSubmit())
	assert.ErrorIs(t, c.Submit(context.Background()), ErrBusy)

	close(gate)
	require.NoError(t, <-done)
	assert.Len(t, api.createCalls, 1)
}

func TestEditSubmit(t *testing.T) {
	api := &fakeAPI{
		props:   []property.Property{existing()},
		editRes: &client.MutationResult{Message: "Property updated successfully"},
	}
	rec := &notify.Recorder{}
	closed := &closeCounter{}
	c := New(api, rec, Options{Mode: Edit, ID: 7, Delay: testDelay, OnClose: closed.inc})

	require.NoError(t, c.Hydrate(context.Background()))
	d := c.Draft()
	assert.Equal(t, "Plaza", d.Title)
	assert.Equal(t, "90000", d.Price)
	assert.Equal(t, "plaza.jpg", d.ImageName)

	require.NoError(t, c.Set("title", "Plaza II"))
	require.NoError(t, c.Submit(context.Background()))

	require.Len(t, api.editCalls[7], 1)
	assert.Equal(t, "Plaza II", api.editCalls[7][0].Title)
	assert.Empty(t, api.createCalls)
	assert.Equal(t, 1, closed.count())
}

func TestHydrateNotFound(t *testing.T) {
	api := &fakeAPI{props: []property.Property{existing()}}
	rec := &notify.Recorder{}
	closed := &closeCounter{}
	c := New(api, rec, Options{Mode: Edit, ID: 99, OnClose: closed.inc})

	assert.ErrorIs(t, c.Hydrate(context.Background()), ErrNotFound)
	assert.Equal(t, NotFound, c.State())
	assert.Equal(t, 1, closed.count())
	assert.Equal(t, []notify.Notification{
		{Level: notify.Error, Message: MsgNotFound},
	}, rec.All())

	assert.ErrorIs(t, c.Set("title", "x"), ErrClosed)
	assert.ErrorIs(t, c.Submit(context.Background()), ErrClosed)
}

func TestHydrateFetchFailure(t *testing.T) {
	api := &fakeAPI{listErr: &client.FetchError{Status: 500, Message: "Failed to fetch properties"}}
	rec := &notify.Recorder{}
	closed := &closeCounter{}
	c := New(api, rec, Options{Mode: Edit, ID: 7, OnClose: closed.inc})

	require.Error(t, c.Hydrate(context.Background()))
	assert.Equal(t, Hydrating, c.State())
	assert.Zero(t, closed.count())
	assert.Equal(t, []notify.Notification{
		{Level: notify.Error, Message: MsgLoadFailed},
	}, rec.All())

	// A later retry can still succeed.
	api.listErr = nil
	api.props = []property.Property{existing()}
	require.NoError(t, c.Hydrate(context.Background()))
	assert.Equal(t, Ready, c.State())
}

func TestHydrateRequiresEditMode(t *testing.T) {
	c := New(&fakeAPI{}, nil, Options{Mode: Create})
	assert.ErrorIs(t, c.Hydrate(context.Background()), ErrNotReady)
}

func TestSetBeforeHydrate(t *testing.T) {
	c := New(&fakeAPI{}, nil, Options{Mode: Edit, ID: 7})
	assert.ErrorIs(t, c.Set("title", "x"), ErrNotReady)
}

func TestSetUnknownField(t *testing.T) {
	c := New(&fakeAPI{}, nil, Options{})
	assert.Error(t, c.Set("bedrooms", "3"))
}

func TestUploadImage(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{
		uploadRes:  &client.UploadResult{FilePath: "uploads/1700-tower.jpg"},
		uploadGate: gate,
		createRes:  &client.MutationResult{Message: "ok"},
	}
	rec := &notify.Recorder{}
	c := New(api, rec, Options{Delay: testDelay})
	fill(t, c, towerFields())
	require.NoError(t, c.Set("image", "old.jpg"))

	done := make(chan error, 1)
	go func() { done <- c.UploadImage(context.Background(), "My Tower.jpg", strings.NewReader("img")) }()

	require.Eventually(t, c.Uploading, time.Second, time.Millisecond)
	d := c.Draft()
	assert.Equal(t, "old.jpg", d.Image, "image keeps its prior value while uploading")
	assert.Empty(t, d.ImageName)
	assert.True(t, c.CanSubmit(), "submission stays possible during an upload")
	assert.ErrorIs(t, c.UploadImage(context.Background(), "other.jpg", strings.NewReader("x")), ErrBusy)

	close(gate)
	require.NoError(t, <-done)
	assert.False(t, c.Uploading())

	d = c.Draft()
	assert.Equal(t, "1700-tower.jpg", d.Image)
	assert.Equal(t, "My Tower.jpg", d.ImageName)
	assert.Equal(t, []notify.Notification{
		{Level: notify.Success, Message: MsgImageUploaded},
	}, rec.All())
}

func TestUploadImageFailure(t *testing.T) {
	api := &fakeAPI{uploadErr: &client.UploadError{Status: 500, Message: "HTTP Error! Status: 500"}}
	rec := &notify.Recorder{}
	c := New(api, rec, Options{})
	fill(t, c, towerFields())
	before := c.Draft()

	require.Error(t, c.UploadImage(context.Background(), "a.jpg", strings.NewReader("x")))
	assert.Equal(t, before, c.Draft())
	assert.Equal(t, []notify.Notification{
		{Level: notify.Error, Message: "HTTP Error! Status: 500"},
	}, rec.All())
}

func TestUploadMakesEmptyFormReady(t *testing.T) {
	api := &fakeAPI{uploadRes: &client.UploadResult{FilePath: "x/a.png"}}
	c := New(api, &notify.Recorder{}, Options{})
	require.NoError(t, c.UploadImage(context.Background(), "a.png", strings.NewReader("x")))
	assert.Equal(t, Ready, c.State())
	assert.True(t, c.Draft().HasImage())
}

func TestCloseIgnoresLateSubmit(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{createRes: &client.MutationResult{Message: "ok"}, submitGate: gate}
	rec := &notify.Recorder{}
	closed := &closeCounter{}
	c := New(api, rec, Options{Delay: testDelay, OnClose: closed.inc})
	fill(t, c, towerFields())

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()
	require.Eventually(t, func() bool { return c.State() == Submitting }, time.Second, time.Millisecond)

	c.Close()
	close(gate)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Empty(t, rec.All())
	assert.Zero(t, closed.count())
	assert.Equal(t, Closed, c.State())
}

func TestCloseIgnoresLateUpload(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{uploadRes: &client.UploadResult{FilePath: "a.png"}, uploadGate: gate}
	rec := &notify.Recorder{}
	c := New(api, rec, Options{})

	done := make(chan error, 1)
	go func() { done <- c.UploadImage(context.Background(), "a.png", strings.NewReader("x")) }()
	require.Eventually(t, c.Uploading, time.Second, time.Millisecond)

	c.Close()
	close(gate)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Empty(t, rec.All())
	assert.False(t, c.Draft().HasImage())
}

func TestUploadLandingAfterSubmitIsDropped(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{
		uploadRes:  &client.UploadResult{FilePath: "uploads/new.jpg"},
		uploadGate: gate,
		createRes:  &client.MutationResult{Message: "Property added"},
	}
	rec := &notify.Recorder{}
	closed := &closeCounter{}
	c := New(api, rec, Options{Delay: testDelay, OnClose: closed.inc})
	fill(t, c, towerFields())

	done := make(chan error, 1)
	go func() { done <- c.UploadImage(context.Background(), "new.jpg", strings.NewReader("x")) }()
	require.Eventually(t, c.Uploading, time.Second, time.Millisecond)

	require.NoError(t, c.Submit(context.Background()))
	require.Equal(t, Closed, c.State())
	close(gate)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Equal(t, "tower.jpg", c.Draft().Image)
	assert.Equal(t, []notify.Notification{
		{Level: notify.Success, Message: "Property added"},
	}, rec.All())
	assert.Equal(t, 1, closed.count())
}

func TestCloseIgnoresLateHydrate(t *testing.T) {
	api := &fakeAPI{}
	rec := &notify.Recorder{}
	closed := &closeCounter{}
	c := New(api, rec, Options{Mode: Edit, ID: 99, OnClose: closed.inc})
	c.Close()

	assert.ErrorIs(t, c.Hydrate(context.Background()), ErrClosed)
	assert.Empty(t, rec.All())
	assert.Zero(t, closed.count())
}

func TestSubmitCancelledDuringDelay(t *testing.T) {
	api := &fakeAPI{createRes: &client.MutationResult{Message: "ok"}}
	closed := &closeCounter{}
	c := New(api, &notify.Recorder{}, Options{Delay: time.Hour, OnClose: closed.inc})
	fill(t, c, towerFields())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The request itself ignores ctx in the fake; only the wait is cut short.
	require.NoError(t, c.Submit(ctx))
	assert.Equal(t, 1, closed.count())
}

func TestDefaultDelay(t *testing.T) {
	c := New(&fakeAPI{}, nil, Options{})
	assert.Equal(t, DefaultDelay, c.opts.Delay)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "not found", NotFound.String())
	assert.Equal(t, "edit", Edit.String())
}
