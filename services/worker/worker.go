package worker

import (
	"context"
	"io"
	"iter"
	"sync/atomic"
	"time"

	"sjsage522/listingwatcher/helpers"
	"sjsage522/listingwatcher/internal/crawler"
	"sjsage522/listingwatcher/internal/selector"
	"sjsage522/listingwatcher/services/dispatchlog"
	"sjsage522/listingwatcher/services/notifier"
	"sjsage522/listingwatcher/services/settings"
)

// State is the pipeline position within a cycle
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateExtracting
	StateSelecting
	StateDispatching
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateSelecting:
		return "selecting"
	case StateDispatching:
		return "dispatching"
	default:
		return "idle"
	}
}

// Outcome is how a cycle ended
type Outcome int

const (
	OutcomeNotConfigured Outcome = iota
	OutcomeSkipped
	OutcomeFetchFailed
	OutcomeNoListing
	OutcomePersistFailed
	OutcomeDispatchFailed
	OutcomeDispatched
)

func (o Outcome) String() string {
	return [...]string{
		"not_configured",
		"skipped",
		"fetch_failed",
		"no_listing",
		"persist_failed",
		"dispatch_failed",
		"dispatched",
	}[o]
}

// Extractor turns a fetched page into listings
type Extractor interface {
	Extract(r io.Reader) iter.Seq[crawler.Listing]
}

// Dependencies are the collaborators of a Worker
type Dependencies struct {
	Source      crawler.PageSource
	Extractor   Extractor
	Seen        selector.SeenSet
	Settings    *settings.Store
	Notifier    notifier.Notifier
	DispatchLog *dispatchlog.Log
	Logger      helpers.LoggerInterface
}

// Worker runs the fetch, select and dispatch cycle on a fixed interval
type Worker struct {
	Dependencies
	crawlInterval time.Duration
	fetchTimeout  time.Duration

	running atomic.Bool
	state   atomic.Int32
	now     func() time.Time
}

// NewWorker creates a new worker
func NewWorker(deps Dependencies, crawlInterval, fetchTimeout time.Duration) *Worker {
	return &Worker{
		Dependencies:  deps,
		crawlInterval: crawlInterval,
		fetchTimeout:  fetchTimeout,
		now:           time.Now,
	}
}

// State returns the current pipeline state
func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
}

// Start runs a cycle immediately and then every crawl interval until ctx is
// done. An in-flight cycle is allowed to finish.
func (w *Worker) Start(ctx context.Context) {
	w.Logger.LogInfo("Pipeline started, interval %s", w.crawlInterval)
	w.RunCycle(ctx)

	ticker := time.NewTicker(w.crawlInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Logger.LogInfo("Pipeline stopped")
			return
		case <-ticker.C:
			w.RunCycle(ctx)
		}
	}
}

// RunCycle performs one cycle. At most one cycle runs at a time; a call made
// while another cycle is in flight returns OutcomeSkipped.
func (w *Worker) RunCycle(ctx context.Context) Outcome {
	if !w.running.CompareAndSwap(false, true) {
		w.Logger.LogInfo("Cycle already in flight, skipping trigger")
		return OutcomeSkipped
	}
	defer w.running.Store(false)
	defer w.setState(StateIdle)

	start := time.Now()
	outcome := w.cycle(ctx)
	w.Logger.LogInfo("Cycle finished: %s in %s", outcome, time.Since(start))
	return outcome
}

func (w *Worker) cycle(ctx context.Context) Outcome {
	filter := w.Settings.Snapshot()
	if !filter.Configured() {
		w.Logger.LogInfo("No destination selected, skipping cycle")
		return OutcomeNotConfigured
	}

	w.setState(StateFetching)
	fetchCtx, cancel := context.WithTimeout(ctx, w.fetchTimeout)
	defer cancel()

	page, err := w.Source.Fetch(fetchCtx)
	if err != nil {
		w.Logger.LogError(w.Source.GetName(), err)
		return OutcomeFetchFailed
	}

	w.setState(StateExtracting)
	candidates := w.Extractor.Extract(page)

	w.setState(StateSelecting)
	listing, ok, err := selector.SelectFirstUnseen(ctx, candidates, filter, w.Seen)
	if err != nil {
		w.Logger.LogError("selector", err)
		return OutcomePersistFailed
	}
	if !ok {
		return OutcomeNoListing
	}

	w.setState(StateDispatching)
	if err := w.Notifier.Send(ctx, filter.Destination, notifier.FormatListing(listing)); err != nil {
		w.Logger.LogError("notifier", err)
		return OutcomeDispatchFailed
	}

	entry := w.DispatchLog.Append(listing, w.now())
	w.Logger.LogInfo("Dispatched %s to %s (%s)", listing.URL, filter.Destination, entry.ID)
	return OutcomeDispatched
}
