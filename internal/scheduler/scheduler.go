package scheduler

import (
	"container/heap"
	"sync"

	"github.com/replyforge/email-responder/internal/domain"
)

// readyItem is one heap entry: an email with no unmet dependencies.
type readyItem struct {
	deadlineNS int64
	id         string
}

// readyHeap is a min-heap keyed by (deadline, id). The id tie-break keeps
// pop order deterministic when deadlines collide.
type readyHeap []readyItem

func (h readyHeap) Len() int { return len(h) }

func (h readyHeap) Less(i, j int) bool {
	if h[i].deadlineNS != h[j].deadlineNS {
		return h[i].deadlineNS < h[j].deadlineNS
	}
	return h[i].id < h[j].id
}

func (h readyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *readyHeap) Push(x any) { *h = append(*h, x.(readyItem)) }

func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler owns the dependency graph and the deadline-ordered ready queue
// for one batch. All mutation happens under a single mutex; generation and
// delivery are expected to run outside that critical section.
//
// Invariants:
//   - an email enters the ready queue only when its unmet set is empty,
//     and at most once;
//   - an email is never popped twice;
//   - MarkDone accepts each id exactly once.
type Scheduler struct {
	mu     sync.Mutex
	g      *graph
	queue  readyHeap
	emails map[string]domain.Email
	done   map[string]struct{}
}

// New builds the scheduler for a batch. A dependency cycle or a reference to
// an unknown id fails construction entirely — the caller aborts the run
// rather than processing a subset.
func New(emails []domain.Email) (*Scheduler, error) {
	g, err := buildGraph(emails)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		g:      g,
		emails: make(map[string]domain.Email, len(emails)),
		done:   make(map[string]struct{}, len(emails)),
	}
	for _, e := range emails {
		s.emails[e.ID] = e
	}
	for _, e := range emails {
		if len(g.unmet[e.ID]) == 0 {
			heap.Push(&s.queue, readyItem{deadlineNS: e.DeadlineNS, id: e.ID})
		}
	}
	return s, nil
}

// PopReady removes and returns the ready email with the smallest absolute
// deadline. ok is false when the ready queue is currently empty — which does
// not necessarily mean all work is done; emails may still be blocked on
// dependencies held by other workers.
func (s *Scheduler) PopReady() (domain.Email, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.Len() == 0 {
		return domain.Email{}, false
	}
	item := heap.Pop(&s.queue).(readyItem)
	return s.emails[item.id], true
}

// MarkDone records id as processed and pushes any dependent whose unmet set
// just became empty onto the ready queue. Each id must be marked exactly once.
func (s *Scheduler) MarkDone(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[id]; !ok {
		return domain.ErrUnknownEmail
	}
	if _, ok := s.done[id]; ok {
		return domain.ErrAlreadyDone
	}
	s.done[id] = struct{}{}

	for child := range s.g.dependents[id] {
		deps := s.g.unmet[child]
		delete(deps, id)
		if len(deps) == 0 {
			e := s.emails[child]
			heap.Push(&s.queue, readyItem{deadlineNS: e.DeadlineNS, id: child})
		}
	}
	return nil
}

// HasPendingWork reports whether anything remains: either ready emails in
// the queue or emails not yet marked done. It becomes permanently false
// exactly once every email has passed through MarkDone.
func (s *Scheduler) HasPendingWork() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len() > 0 || len(s.done) < len(s.emails)
}

// ReadyLen returns the current ready-queue depth. Used by metrics snapshots.
func (s *Scheduler) ReadyLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}
