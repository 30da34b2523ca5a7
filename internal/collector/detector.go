// Package collector contains the page-facing detection lifecycle and the
// action dispatch surface consumed by the popup and options UIs.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"careeros/collector-service/internal/extract"
	"careeros/collector-service/internal/model"
	"careeros/collector-service/internal/scheduler"
)

const (
	// initialSettleDelay gives single-page apps time to render before the
	// first detection pass.
	initialSettleDelay = 3 * time.Second
	// navigationSettleDelay applies after an in-page navigation.
	navigationSettleDelay = 2 * time.Second
	// urlPollInterval is the fallback URL-change poll for navigations the
	// shell does not report.
	urlPollInterval = 1 * time.Second
)

// ErrNoJobDetected means Bookmark was called with no record on hand.
var ErrNoJobDetected = errors.New("no job detected on this page")

// ErrBookmarkInFlight means a submission is already running; the second
// request is dropped, not queued.
var ErrBookmarkInFlight = errors.New("bookmark request already in progress")

// State is the detector lifecycle state.
type State int

const (
	// StateIdle: no record held; waiting for a trigger.
	StateIdle State = iota
	// StateDetecting: a detection pass is running.
	StateDetecting
	// StateAwaitingBookmark: a record is held and can be bookmarked.
	StateAwaitingBookmark
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDetecting:
		return "detecting"
	case StateAwaitingBookmark:
		return "awaiting_bookmark"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[State][]State{
	StateIdle:             {StateDetecting},
	StateDetecting:        {StateIdle, StateAwaitingBookmark},
	StateAwaitingBookmark: {StateDetecting, StateIdle},
}

func canTransition(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Page is the document context the detector watches.
type Page interface {
	URL() string
	Document(ctx context.Context) (*goquery.Document, error)
}

// SubmitFunc sends a detected record to the bookmark pipeline.
type SubmitFunc func(ctx context.Context, job model.JobRecord) (model.JobRecord, error)

// Detector drives job detection for one page context. All scheduled work
// is owned here and torn down by Close, so no timer outlives the page.
//
// Detection itself is a pure read: overlapping triggers are harmless and
// the last completed pass wins.
type Detector struct {
	builder *extract.Builder
	page    Page
	tasks   scheduler.Tasks
	submit  SubmitFunc
	log     *slog.Logger

	mu           sync.Mutex
	state        State
	record       *model.JobRecord
	lastURL      string
	inFlight     bool
	stopURLWatch func()
	cancelSettle func()
	closed       bool
}

// NewDetector wires a detector for page.
func NewDetector(builder *extract.Builder, page Page, tasks scheduler.Tasks, submit SubmitFunc, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{
		builder: builder,
		page:    page,
		tasks:   tasks,
		submit:  submit,
		log:     log,
	}
}

// Start arms the initial settle delay and the URL-change watch.
func (d *Detector) Start() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.lastURL = d.page.URL()
	d.mu.Unlock()

	d.scheduleDetect(initialSettleDelay)

	d.mu.Lock()
	d.stopURLWatch = d.tasks.Every(urlPollInterval, d.checkURL)
	d.mu.Unlock()
}

// NotifyNavigation is called when the shell intercepts an in-page
// navigation; the poll would catch it too, this just reacts faster.
func (d *Detector) NotifyNavigation() {
	d.checkURL()
}

// Refresh forces an immediate detection pass.
func (d *Detector) Refresh() {
	d.detect()
}

func (d *Detector) checkURL() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	url := d.page.URL()
	changed := url != d.lastURL
	if changed {
		d.lastURL = url
	}
	d.mu.Unlock()

	if changed {
		d.log.Debug("url changed, re-detecting", "url", url)
		d.scheduleDetect(navigationSettleDelay)
	}
}

func (d *Detector) scheduleDetect(delay time.Duration) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.cancelSettle != nil {
		d.cancelSettle()
	}
	d.cancelSettle = d.tasks.After(delay, d.detect)
	d.mu.Unlock()
}

func (d *Detector) detect() {
	d.mu.Lock()
	if d.closed || !canTransition(d.state, StateDetecting) {
		d.mu.Unlock()
		return
	}
	d.state = StateDetecting
	d.mu.Unlock()

	ctx := context.Background()
	url := d.page.URL()
	doc, err := d.page.Document(ctx)

	var record *model.JobRecord
	if err != nil {
		d.log.Debug("page document unavailable", "err", err)
	} else {
		record = d.builder.Build(doc, url)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.record = record
	if record != nil {
		d.state = StateAwaitingBookmark
		d.log.Info("job detected", "title", record.Title, "company", record.Company, "source", record.Source)
	} else {
		d.state = StateIdle
	}
}

// Bookmark submits the held record. At most one submission runs at a time;
// a concurrent call returns ErrBookmarkInFlight and is dropped.
func (d *Detector) Bookmark(ctx context.Context) (model.JobRecord, error) {
	d.mu.Lock()
	if d.record == nil {
		d.mu.Unlock()
		return model.JobRecord{}, ErrNoJobDetected
	}
	if d.inFlight {
		d.mu.Unlock()
		return model.JobRecord{}, ErrBookmarkInFlight
	}
	d.inFlight = true
	record := *d.record
	d.mu.Unlock()

	// Cleared on every completion path: success, rejection or transport
	// failure.
	defer func() {
		d.mu.Lock()
		d.inFlight = false
		d.mu.Unlock()
	}()

	return d.submit(ctx, record)
}

// State returns the current lifecycle state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Record returns the held record, nil when none.
func (d *Detector) Record() *model.JobRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.record
}

// Close tears down all scheduled work and drops the held record.
func (d *Detector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.stopURLWatch != nil {
		d.stopURLWatch()
		d.stopURLWatch = nil
	}
	if d.cancelSettle != nil {
		d.cancelSettle()
		d.cancelSettle = nil
	}
	d.record = nil
	d.state = StateIdle
}
