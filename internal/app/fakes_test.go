package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pscheid92/tweetpulse/internal/domain"
)

// events records collaborator calls in order across fakes.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, fmt.Sprintf(format, args...))
}

func (e *events) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

type fakeCheckpoint struct {
	mu      sync.Mutex
	ran     bool
	readErr error
	sets    int
}

func (f *fakeCheckpoint) RunState(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ran, f.readErr
}

func (f *fakeCheckpoint) SetRunState(_ context.Context, ran bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ran = ran
	f.sets++
	return nil
}

type queuedItem struct {
	cursor domain.Cursor
	handle string
	leased bool
}

type fakeQueue struct {
	mu       sync.Mutex
	ev       *events
	items    []*queuedItem
	next     int
	pushErr  error
	ackErr   error
	leaseErr error
	releases []time.Duration
}

func newFakeQueue(ev *events, cursors ...domain.Cursor) *fakeQueue {
	q := &fakeQueue{ev: ev}
	for _, c := range cursors {
		q.add(c)
	}
	return q
}

func (q *fakeQueue) add(c domain.Cursor) {
	q.next++
	q.items = append(q.items, &queuedItem{cursor: c, handle: fmt.Sprintf("h%d", q.next)})
}

func (q *fakeQueue) Lease(_ context.Context) (domain.LeasedItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.leaseErr != nil {
		return domain.LeasedItem{}, q.leaseErr
	}
	for _, it := range q.items {
		if !it.leased {
			it.leased = true
			q.ev.add("lease:%s", it.cursor)
			return domain.LeasedItem{Cursor: it.cursor, Handle: it.handle}, nil
		}
	}
	return domain.LeasedItem{}, domain.ErrQueueEmpty
}

func (q *fakeQueue) Ack(_ context.Context, handle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ackErr != nil {
		return q.ackErr
	}
	for i, it := range q.items {
		if it.handle == handle {
			q.items = append(q.items[:i], q.items[i+1:]...)
			q.ev.add("ack:%s", it.cursor)
			return nil
		}
	}
	return fmt.Errorf("unknown handle %s", handle)
}

func (q *fakeQueue) Release(_ context.Context, handle string, timeout time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, it := range q.items {
		if it.handle == handle {
			it.leased = false
			q.releases = append(q.releases, timeout)
			q.ev.add("release:%s", it.cursor)
			return nil
		}
	}
	return fmt.Errorf("unknown handle %s", handle)
}

func (q *fakeQueue) Push(_ context.Context, c domain.Cursor) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pushErr != nil {
		return q.pushErr
	}
	q.add(c)
	q.ev.add("push:%s", c)
	return nil
}

func (q *fakeQueue) cursors() []domain.Cursor {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.Cursor, 0, len(q.items))
	for _, it := range q.items {
		out = append(out, it.cursor)
	}
	return out
}

// fakeSearch answers queries from a scripted list of responses; the last
// response repeats once the script runs out.
type fakeSearch struct {
	mu        sync.Mutex
	responses []searchResponse
	queries   []domain.SearchQuery
}

type searchResponse struct {
	records []domain.RawRecord
	err     error
}

func (f *fakeSearch) Search(_ context.Context, q domain.SearchQuery) ([]domain.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if len(f.responses) == 0 {
		return nil, nil
	}
	r := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return r.records, r.err
}

func (f *fakeSearch) calls() []domain.SearchQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.SearchQuery(nil), f.queries...)
}

type fakeSink struct {
	mu      sync.Mutex
	ev      *events
	records []string
	err     error
}

func (f *fakeSink) Append(_ context.Context, rec []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, string(rec))
	if f.ev != nil {
		f.ev.add("append:%s", rec)
	}
	return nil
}

func (f *fakeSink) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.records...)
}

type fakeClassifier struct {
	mu      sync.Mutex
	texts   []string
	results map[string][]classifyResult
	dflt    domain.Sentiment
}

type classifyResult struct {
	sentiment domain.Sentiment
	err       error
}

func (f *fakeClassifier) Classify(_ context.Context, text string) (domain.Sentiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if script := f.results[text]; len(script) > 0 {
		r := script[0]
		f.results[text] = script[1:]
		return r.sentiment, r.err
	}
	return f.dflt, nil
}

type fakeBlobs struct {
	objects map[string]string
}

func (f *fakeBlobs) Read(_ context.Context, container, key string) (string, error) {
	body, ok := f.objects[container+"/"+key]
	if !ok {
		return "", fmt.Errorf("no such object %s/%s", container, key)
	}
	return body, nil
}

func raw(id string) domain.RawRecord {
	return domain.RawRecord{ID: domain.Cursor(id), Payload: []byte(fmt.Sprintf(`{"id_str":%q}`, id))}
}
