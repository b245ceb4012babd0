package texts

import (
	"context"
	"log/slog"
	"math/rand"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/m3rciful/numerobot/core/logger"
)

// Source provides the current Resource.
type Source interface {
	Get(ctx context.Context) *Resource
}

// History remembers which texts a user has already seen.
type History interface {
	TextHistory(ctx context.Context, userID int64) ([]string, error)
	AddTextHistory(ctx context.Context, userID int64, text string) error
	ClearTextHistory(ctx context.Context, userID int64) error
}

// Picker chooses texts without repeating one until every option was shown.
type Picker struct {
	src     Source
	history History
	intn    func(n int) int
}

// NewPicker returns a Picker. A nil history disables repeat avoidance.
func NewPicker(src Source, history History) *Picker {
	return &Picker{src: src, history: history, intn: rand.Intn}
}

// Pick returns a text for number under the topic context key. A plain-text
// entry for number serves every topic. It reports false when the resource
// has nothing for them.
func (p *Picker) Pick(ctx context.Context, userID int64, number int, topic string) (string, bool) {
	res := p.src.Get(ctx)
	options := res.Options(number, topic)
	if len(options) == 0 {
		if text, ok := res.Lookup(strconv.Itoa(number)); ok {
			return text, true
		}
		logger.Warn(ctx, component, "texts.pick",
			slog.String("status", "miss"),
			slog.Int("number", number),
			slog.String("text_context", topic),
		)
		return "", false
	}

	unused := options
	if p.history != nil {
		shown, err := p.history.TextHistory(ctx, userID)
		if err != nil {
			logger.Warn(ctx, component, "texts.history", slog.String("status", "fail"), slog.String("err", err.Error()))
		}
		unused = slices.DeleteFunc(slices.Clone(options), func(s string) bool {
			return slices.Contains(shown, s)
		})
		if len(unused) == 0 {
			unused = options
			if err := p.history.ClearTextHistory(ctx, userID); err != nil {
				logger.Warn(ctx, component, "texts.history", slog.String("status", "fail"), slog.String("err", err.Error()))
			}
		}
	}

	chosen := unused[p.intn(len(unused))]
	if p.history != nil {
		if err := p.history.AddTextHistory(ctx, userID, chosen); err != nil {
			logger.Warn(ctx, component, "texts.history", slog.String("status", "fail"), slog.String("err", err.Error()))
		}
	}
	return chosen, true
}

// MemoryHistory keeps text history in process memory, dropping a user's
// history after ttl without new entries.
type MemoryHistory struct {
	mu    sync.Mutex
	items *cache.Cache
}

// NewMemoryHistory returns an in-memory History. A zero ttl keeps history
// until restart.
func NewMemoryHistory(ttl time.Duration) *MemoryHistory {
	return &MemoryHistory{items: cache.New(ttl, ttl)}
}

func historyKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (h *MemoryHistory) TextHistory(_ context.Context, userID int64) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.items.Get(historyKey(userID))
	if !ok {
		return nil, nil
	}
	return slices.Clone(v.([]string)), nil
}

func (h *MemoryHistory) AddTextHistory(_ context.Context, userID int64, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var list []string
	if v, ok := h.items.Get(historyKey(userID)); ok {
		list = v.([]string)
	}
	h.items.SetDefault(historyKey(userID), append(slices.Clone(list), text))
	return nil
}

func (h *MemoryHistory) ClearTextHistory(_ context.Context, userID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items.Delete(historyKey(userID))
	return nil
}
