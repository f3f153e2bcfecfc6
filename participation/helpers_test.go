package participation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"chewbot/events"
	"chewbot/messages"
	"chewbot/models"
)

var translator = messages.NewTranslator("en")

// manualScheduler fires timers only when the test advances its clock
type manualScheduler struct {
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	due     time.Duration
	fn      func(ctx context.Context)
	stopped bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func(ctx context.Context)) Timer {
	t := &manualTimer{due: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		var next *manualTimer
		for _, t := range s.timers {
			if t.stopped || t.due > target {
				continue
			}
			if next == nil || t.due < next.due {
				next = t
			}
		}
		if next == nil {
			break
		}
		s.now = next.due
		next.stopped = true
		next.fn(context.Background())
	}
	s.now = target
}

func (s *manualScheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// memoryUsers is an in-memory UserDirectory
type memoryUsers struct {
	users   map[string]*models.User
	failErr error
	changes int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*models.User)}
}

func (m *memoryUsers) add(username string, points int64) *models.User {
	user := &models.User{ID: int64(len(m.users) + 1), Username: username, Points: points}
	m.users[username] = user
	return user
}

func (m *memoryUsers) total() int64 {
	var sum int64
	for _, u := range m.users {
		sum += u.Points
	}
	return sum
}

func (m *memoryUsers) GetUser(_ context.Context, username string) (*models.User, error) {
	return m.users[username], nil
}

func (m *memoryUsers) ChangeUserPoints(ctx context.Context, user *models.User, delta int64, reason models.TransactionType) error {
	return m.ChangeUsersPoints(ctx, []*models.User{user}, delta, reason)
}

func (m *memoryUsers) ChangeUsersPoints(_ context.Context, users []*models.User, delta int64, _ models.TransactionType) error {
	if m.failErr != nil {
		return m.failErr
	}
	for _, u := range users {
		stored, ok := m.users[u.Username]
		if !ok {
			return fmt.Errorf("user %s not found", u.Username)
		}
		if stored.Points+delta < 0 {
			return fmt.Errorf("points would become negative")
		}
	}
	for _, u := range users {
		stored := m.users[u.Username]
		stored.Points += delta
		u.Points = stored.Points
		m.changes++
	}
	return nil
}

func (m *memoryUsers) TryDeductPoints(_ context.Context, user *models.User, amount int64, _ models.TransactionType) (bool, error) {
	if m.failErr != nil {
		return false, m.failErr
	}
	stored, ok := m.users[user.Username]
	if !ok {
		return false, fmt.Errorf("user %s not found", user.Username)
	}
	if stored.Points < amount {
		return false, nil
	}
	stored.Points -= amount
	user.Points = stored.Points
	m.changes++
	return true, nil
}

// recordingChat stores everything the engine says
type recordingChat struct {
	messages []string
	whispers map[string][]string
	timeouts []string
}

func newRecordingChat() *recordingChat {
	return &recordingChat{whispers: make(map[string][]string)}
}

func (c *recordingChat) SendMessage(_ context.Context, channel, text string) error {
	c.messages = append(c.messages, text)
	return nil
}

func (c *recordingChat) SendWhisper(_ context.Context, username, text string) error {
	c.whispers[username] = append(c.whispers[username], text)
	return nil
}

func (c *recordingChat) Timeout(_ context.Context, channel, username string, seconds int, reason string) error {
	c.timeouts = append(c.timeouts, fmt.Sprintf("%s:%d:%s", username, seconds, reason))
	return nil
}

func (c *recordingChat) last() string {
	if len(c.messages) == 0 {
		return ""
	}
	return c.messages[len(c.messages)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Emit(_ context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) ofType(eventType events.EventType) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fixedRandom replays scripted rolls
type fixedRandom struct {
	ints   []int
	floats []float64
}

func (r *fixedRandom) IntN(n int) int {
	v := r.ints[0] % n
	r.ints = r.ints[1:]
	return v
}

func (r *fixedRandom) Float64() float64 {
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

type harness struct {
	svc       *Service
	scheduler *manualScheduler
	users     *memoryUsers
	chat      *recordingChat
	publisher *recordingPublisher
	random    *fixedRandom
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		scheduler: &manualScheduler{},
		users:     newMemoryUsers(),
		chat:      newRecordingChat(),
		publisher: &recordingPublisher{},
		random:    &fixedRandom{},
	}
	h.svc = NewService(h.scheduler, Env{
		Chat:       h.chat,
		Users:      h.users,
		Translator: translator,
		Publisher:  h.publisher,
		Random:     h.random,
	})
	return h
}
