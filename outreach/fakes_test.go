package outreach

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"intakeflow/client"
	"intakeflow/comms"
	"intakeflow/mail"
)

// memAttemptRepo is an in-memory AttemptRepository mirroring the atomicity
// guarantees of the PostgreSQL implementation.
type memAttemptRepo struct {
	mu       sync.Mutex
	attempts map[string]Attempt // by id
}

func newMemAttemptRepo() *memAttemptRepo {
	return &memAttemptRepo{attempts: map[string]Attempt{}}
}

func (m *memAttemptRepo) ListByClient(_ context.Context, clientID string) ([]Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Attempt{}
	for _, a := range m.attempts {
		if a.ClientID == clientID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptNumber < out[j].AttemptNumber })
	return out, nil
}

func (m *memAttemptRepo) Get(_ context.Context, id string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (m *memAttemptRepo) InsertIfAbsent(_ context.Context, attempt Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.ClientID == attempt.ClientID && a.AttemptNumber == attempt.AttemptNumber {
			return nil
		}
	}
	m.attempts[attempt.ID] = attempt
	return nil
}

func (m *memAttemptRepo) MarkSent(_ context.Context, params MarkSentParams) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[params.AttemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	if a.Status != AttemptPending {
		return Attempt{}, fmt.Errorf("outreach: mark sent %s: %w", params.AttemptID, ErrInvalidTransition)
	}
	a.Status = AttemptSent
	a.Subject = params.Subject
	a.PreviewText = params.PreviewText
	sentAt := params.SentAt
	a.SentAt = &sentAt
	threadRef, messageRef := params.MailThreadRef, params.MailMessageRef
	a.MailThreadRef = &threadRef
	a.MailMessageRef = &messageRef
	windowEnd := params.ResponseWindowEnd
	a.ResponseWindowEnd = &windowEnd
	m.attempts[a.ID] = a
	return a, nil
}

func (m *memAttemptRepo) RecordResponse(_ context.Context, params RecordResponseParams) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[params.AttemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	if a.ResponseDetected {
		return a, nil
	}
	a.ResponseDetected = true
	detectedAt := params.DetectedAt
	a.ResponseDetectedAt = &detectedAt
	messageRef := params.ResponseMessageRef
	a.ResponseMessageRef = &messageRef
	m.attempts[a.ID] = a
	return a, nil
}

// fakeClientRepo implements client.Repository over a map and records every
// status write.
type fakeClientRepo struct {
	mu            sync.Mutex
	clients       map[string]client.Client
	statusHistory []client.Status
}

func newFakeClientRepo(clients ...client.Client) *fakeClientRepo {
	m := map[string]client.Client{}
	for _, c := range clients {
		m[c.ID] = c
	}
	return &fakeClientRepo{clients: m}
}

func (f *fakeClientRepo) GetByID(_ context.Context, id string) (client.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return client.Client{}, client.ErrNotFound
	}
	return c, nil
}

func (f *fakeClientRepo) GetAll(_ context.Context) ([]client.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []client.Client{}
	for _, c := range f.clients {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeClientRepo) GetByStatusIn(_ context.Context, statuses []client.Status) ([]client.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []client.Client{}
	for _, c := range f.clients {
		for _, s := range statuses {
			if c.Status == s {
				out = append(out, c)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeClientRepo) List(_ context.Context, _ client.Filters) ([]client.Client, int, error) {
	all, _ := f.GetAll(context.Background())
	return all, len(all), nil
}

func (f *fakeClientRepo) UpdateStatus(_ context.Context, id string, status client.Status) (client.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return client.Client{}, client.ErrNotFound
	}
	c.Status = status
	f.clients[id] = c
	f.statusHistory = append(f.statusHistory, status)
	return c, nil
}

func (f *fakeClientRepo) Update(_ context.Context, id string, params client.UpdateParams) (client.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return client.Client{}, client.ErrNotFound
	}
	if params.Status != nil {
		c.Status = *params.Status
	}
	if params.Email != nil {
		c.Email = *params.Email
	}
	f.clients[id] = c
	return c, nil
}

// fakeCommsRepo appends records and rejects a repeated inbound message ref
// for the same client, like the unique index in the real table.
type fakeCommsRepo struct {
	mu      sync.Mutex
	records []comms.Record
}

func (f *fakeCommsRepo) Create(_ context.Context, rec comms.Record) (comms.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.MailMessageRef != nil {
		for _, existing := range f.records {
			if existing.ClientID == rec.ClientID &&
				existing.Direction == rec.Direction &&
				existing.MailMessageRef != nil &&
				*existing.MailMessageRef == *rec.MailMessageRef {
				return comms.Record{}, comms.ErrDuplicate
			}
		}
	}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeCommsRepo) ListByClient(_ context.Context, clientID string) ([]comms.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []comms.Record{}
	for _, rec := range f.records {
		if rec.ClientID == clientID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeCommsRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// fakeMailbox serves canned replies per thread and can fail specific threads.
type fakeMailbox struct {
	mu      sync.Mutex
	replies map[string][]mail.Reply
	errs    map[string]error
	calls   []string
}

func newFakeMailbox() *fakeMailbox {
	return &fakeMailbox{replies: map[string][]mail.Reply{}, errs: map[string]error{}}
}

func (f *fakeMailbox) FindRepliesInThread(_ context.Context, _ mail.AccessToken, threadRef, excludeMessageRef, fromAddress string) ([]mail.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, threadRef)
	if err, ok := f.errs[threadRef]; ok {
		return nil, err
	}
	out := []mail.Reply{}
	for _, reply := range f.replies[threadRef] {
		if reply.MessageRef == excludeMessageRef {
			continue
		}
		out = append(out, reply)
	}
	return out, nil
}

func (f *fakeMailbox) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func strPtr(s string) *string { return &s }
