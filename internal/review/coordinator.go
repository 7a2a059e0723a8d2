package review

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"ytgrab/internal/metadata"
)

// ErrNoCandidates signals a caller-side assembly bug: review was
// requested with nothing to choose from.
var ErrNoCandidates = errors.New("review: empty candidate set")

// Request carries one review handoff to the human-facing side. The ID
// correlates the eventual response; a response with any other ID is
// ignored.
type Request struct {
	ID          string
	RawTitle    string
	ParsedTitle string
	Candidates  []metadata.TrackRecord
}

// Presenter displays a review request to a human. Implementations must
// eventually call Respond with the request's ID, defaulting to index 0
// on dismissal — an unanswered request leaves the worker blocked.
type Presenter interface {
	Present(req Request)
}

// Coordinator is the single-slot mailbox between the resolving worker
// and the human-facing side. The worker blocks inside Ask until Respond
// delivers a choice; at most one request is outstanding at a time.
//
// There is deliberately no timeout on the wait: a review that nobody
// answers blocks the worker indefinitely. Integrators wanting a
// default-selection policy should wrap the presenter.
type Coordinator struct {
	askMu sync.Mutex // serializes Ask: one outstanding request

	mu        sync.Mutex // guards the slot below
	pendingID string
	done      chan int

	presenter Presenter
}

// NewCoordinator creates a Coordinator. The presenter may be attached
// later with SetPresenter; with none attached, Ask auto-selects the
// first candidate.
func NewCoordinator(p Presenter) *Coordinator {
	return &Coordinator{presenter: p}
}

// SetPresenter attaches the human-facing side. Presenters usually hold
// the coordinator themselves, so construction happens in two steps.
func (c *Coordinator) SetPresenter(p Presenter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presenter = p
}

// Ask hands the candidate set to the presenter and blocks until a
// response for this request arrives. The returned index is always in
// range. Implements metadata.Reviewer.
func (c *Coordinator) Ask(rawTitle, parsedTitle string, candidates []metadata.TrackRecord) (int, error) {
	if len(candidates) == 0 {
		return 0, ErrNoCandidates
	}

	c.askMu.Lock()
	defer c.askMu.Unlock()

	c.mu.Lock()
	p := c.presenter
	if p == nil {
		c.mu.Unlock()
		return 0, nil
	}
	id := "rev_" + uuid.NewString()
	done := make(chan int, 1)
	c.pendingID = id
	c.done = done
	c.mu.Unlock()

	p.Present(Request{
		ID:          id,
		RawTitle:    rawTitle,
		ParsedTitle: parsedTitle,
		Candidates:  candidates,
	})

	idx := <-done

	c.mu.Lock()
	c.pendingID = ""
	c.done = nil
	c.mu.Unlock()

	if idx < 0 {
		idx = 0
	}
	if idx > len(candidates)-1 {
		idx = len(candidates) - 1
	}
	return idx, nil
}

// Respond delivers a choice for the outstanding request. A response
// whose ID does not match the outstanding request — stale, duplicate,
// or after supersession — is rejected and reported false.
func (c *Coordinator) Respond(id string, index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pendingID == "" || id != c.pendingID || c.done == nil {
		return false
	}
	c.pendingID = ""
	c.done <- index
	c.done = nil
	return true
}
