package state

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/numerobot/core/logger"
	tghelpers "github.com/m3rciful/numerobot/core/telegram/helpers"
)

// DefaultTTL is the idle time after which a session is dropped.
const DefaultTTL = 30 * time.Minute

// Manager stores sessions in memory and dispatches text input to the handler
// registered for the user's current state.
type Manager struct {
	mu       sync.Mutex
	sessions *cache.Cache

	handlersMu sync.RWMutex
	handlers   map[State]tele.HandlerFunc
}

// NewManager returns a Manager whose sessions expire after ttl without writes.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions: cache.New(ttl, ttl/2),
		handlers: make(map[State]tele.HandlerFunc),
	}
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// session returns the live session, creating it when create is set. Callers hold mu.
func (m *Manager) session(userID int64, create bool) *Session {
	if v, ok := m.sessions.Get(key(userID)); ok {
		return v.(*Session)
	}
	if !create {
		return nil
	}
	return &Session{State: StateIdle, Data: make(map[string]any)}
}

func (m *Manager) touch(userID int64, s *Session) {
	m.sessions.SetDefault(key(userID), s)
}

// SetState moves the user to st and refreshes the idle timer.
func (m *Manager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(userID, true)
	s.State = st
	m.touch(userID, s)
}

// GetState returns the user's current state, StateIdle when none.
func (m *Manager) GetState(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.session(userID, false); s != nil {
		return s.State
	}
	return StateIdle
}

// SetTemp stores a value for the duration of the conversation.
func (m *Manager) SetTemp(userID int64, k string, v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(userID, true)
	s.Data[k] = v
	m.touch(userID, s)
}

// GetTemp returns a stored value.
func (m *Manager) GetTemp(userID int64, k string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(userID, false)
	if s == nil {
		return nil, false
	}
	v, ok := s.Data[k]
	return v, ok
}

// GetTempString returns a stored string value.
func (m *Manager) GetTempString(userID int64, k string) (string, bool) {
	v, ok := m.GetTemp(userID, k)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Clear drops the whole session of the user.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions.Delete(key(userID))
}

// InProgress reports whether the user is inside a multi-step flow.
func (m *Manager) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.ItemCount()
}

// Register binds the handler invoked by Handle for st.
func (m *Manager) Register(st State, h tele.HandlerFunc) {
	if h == nil || st == StateIdle {
		return
	}
	m.handlersMu.Lock()
	defer m.handlersMu.Unlock()
	m.handlers[st] = h
}

// Handle runs the handler registered for the sender's current state. Sessions
// stuck in a state without a handler are cleared.
func (m *Manager) Handle(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	current := m.GetState(user.ID)

	m.handlersMu.RLock()
	h, ok := m.handlers[current]
	m.handlersMu.RUnlock()

	ctx := tghelpers.BuildContext(c)
	if !ok {
		logger.Warn(ctx, "tg", "fsm.orphan", slog.String("screen", string(current)))
		m.Clear(user.ID)
		return nil
	}
	logger.Debug(ctx, "tg", "fsm.dispatch", slog.String("screen", string(current)))
	return h(c)
}
