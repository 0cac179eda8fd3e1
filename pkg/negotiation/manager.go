package negotiation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/concord/internal/logging"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed template lock is held.
const DefaultLockTTL = 30 * time.Second

// Receipt acknowledges a stored submission together with the result it produced.
type Receipt struct {
	TemplateID  string            `json:"template_id"`
	GroupID     string            `json:"group_id"`
	Party       domain.Party      `json:"party"`
	Version     string            `json:"version"`
	SubmittedAt time.Time         `json:"submitted_at"`
	GroupState  domain.GroupState `json:"group_state"`
	Outcome     domain.Outcome    `json:"outcome"`
	Status      domain.Status     `json:"status"`
}

// ChangeFunc receives the difference between two consecutive results of a template.
type ChangeFunc func(ctx context.Context, diff *domain.ResultDiff)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates submissions, ensuring a template is only recomputed by
// one writer at a time. It uses reference counting to garbage collect unused locks.
type Manager struct {
	catalog ports.CatalogLoader
	store   ports.PreferenceStore
	engine  ports.Reconciler
	sink    ports.ResultSink

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string

	subMu       sync.RWMutex
	nextSub     int
	subscribers map[int]ChangeFunc
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithSink publishes every recomputed result.
func WithSink(sink ports.ResultSink) Option {
	return func(m *Manager) {
		m.sink = sink
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock replaces time.Now for submission timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager over a catalog, a store and an engine.
func NewManager(catalog ports.CatalogLoader, store ports.PreferenceStore, engine ports.Reconciler, opts ...Option) *Manager {
	m := &Manager{
		catalog:     catalog,
		store:       store,
		engine:      engine,
		locks:       make(map[string]*lockEntry),
		lockTTL:     DefaultLockTTL,
		logger:      logging.NewNop(),
		now:         time.Now,
		newID:       uuid.NewString,
		subscribers: make(map[int]ChangeFunc),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnChange registers fn for result changes of every template. The returned
// function removes the subscription. fn runs while the template lock is held
// and must not block.
func (m *Manager) OnChange(fn ChangeFunc) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = fn

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subscribers, id)
	}
}

func (m *Manager) notify(ctx context.Context, diff *domain.ResultDiff) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	for _, fn := range m.subscribers {
		fn(ctx, diff)
	}
}

// Templates lists the catalog's template ids.
func (m *Manager) Templates(ctx context.Context) ([]string, error) {
	return m.catalog.ListTemplates(ctx)
}

// Template returns one template from the catalog.
func (m *Manager) Template(ctx context.Context, templateID string) (domain.Template, error) {
	return m.catalog.GetTemplate(ctx, templateID)
}

// TieBreak names the engine's tie-break strategy.
func (m *Manager) TieBreak() string {
	return m.engine.TieBreak()
}

// Submit validates a submission and stores it as the party's newest version.
// The template result is recomputed and subscribers are told what changed.
// Lookup failures wrap domain.ErrTemplateNotFound or domain.ErrGroupNotFound;
// validation failures wrap domain.ErrInvalidPreference.
func (m *Manager) Submit(ctx context.Context, pref domain.PartyPreference, metadata map[string]string) (Receipt, error) {
	tpl, err := m.catalog.GetTemplate(ctx, pref.TemplateID)
	if err != nil {
		return Receipt{}, err
	}
	group, ok := tpl.Group(pref.GroupID)
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %q in template %q", domain.ErrGroupNotFound, pref.GroupID, tpl.ID)
	}

	valid, err := m.engine.Validate(group, pref)
	if err != nil {
		m.logger.Warn("Submission rejected",
			"template_id", tpl.ID,
			"group_id", group.ID,
			"party", pref.Party,
			"err", err,
		)
		return Receipt{}, err
	}

	stored := domain.StoredPreference{
		PartyPreference: valid.PartyPreference(),
		Version:         m.newID(),
		SubmittedAt:     m.now().UTC(),
		Metadata:        metadata,
	}
	stored.TemplateID = tpl.ID

	var receipt Receipt
	err = m.WithLock(ctx, tpl.ID, func(ctx context.Context) error {
		before, err := m.compute(ctx, tpl)
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, stored); err != nil {
			return fmt.Errorf("failed to store preference: %w", err)
		}
		after, err := m.compute(ctx, tpl)
		if err != nil {
			return err
		}

		m.publish(ctx, after)
		if diff := domain.Diff(&before, &after); diff != nil {
			m.notify(ctx, diff)
		}

		outcome, _ := after.Group(group.ID)
		receipt = Receipt{
			TemplateID:  tpl.ID,
			GroupID:     group.ID,
			Party:       stored.Party,
			Version:     stored.Version,
			SubmittedAt: stored.SubmittedAt,
			GroupState:  outcome.State,
			Outcome:     outcome.Outcome,
			Status:      after.Status,
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	m.logger.Info("Submission stored",
		"template_id", receipt.TemplateID,
		"group_id", receipt.GroupID,
		"party", receipt.Party,
		"version", receipt.Version,
		"state", receipt.GroupState,
		"status", receipt.Status,
	)
	return receipt, nil
}

// Result recomputes the template result from the latest stored versions.
func (m *Manager) Result(ctx context.Context, templateID string) (domain.TemplateResult, error) {
	tpl, err := m.catalog.GetTemplate(ctx, templateID)
	if err != nil {
		return domain.TemplateResult{}, err
	}
	return m.compute(ctx, tpl)
}

// Group returns the current state and outcome of one clause group.
func (m *Manager) Group(ctx context.Context, templateID, groupID string) (domain.GroupOutcome, error) {
	result, err := m.Result(ctx, templateID)
	if err != nil {
		return domain.GroupOutcome{}, err
	}
	outcome, ok := result.Group(groupID)
	if !ok {
		return domain.GroupOutcome{}, fmt.Errorf("%w: %q in template %q", domain.ErrGroupNotFound, groupID, templateID)
	}
	return outcome, nil
}

// History returns every stored version of a party's submission, oldest first.
func (m *Manager) History(ctx context.Context, templateID, groupID string, party domain.Party) ([]domain.StoredPreference, error) {
	tpl, err := m.catalog.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if _, ok := tpl.Group(groupID); !ok {
		return nil, fmt.Errorf("%w: %q in template %q", domain.ErrGroupNotFound, groupID, templateID)
	}
	if !party.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownParty, party)
	}
	return m.store.History(ctx, templateID, groupID, party)
}

func (m *Manager) compute(ctx context.Context, tpl domain.Template) (domain.TemplateResult, error) {
	latest, err := m.store.ListLatest(ctx, tpl.ID)
	if err != nil {
		return domain.TemplateResult{}, fmt.Errorf("failed to load preferences: %w", err)
	}
	subs := make(domain.Submissions, len(tpl.Groups))
	for _, p := range latest {
		subs.Add(p.PartyPreference)
	}
	return m.engine.ReconcileTemplate(ctx, tpl, subs), nil
}

func (m *Manager) publish(ctx context.Context, result domain.TemplateResult) {
	if m.sink == nil {
		return
	}
	if err := m.sink.Publish(ctx, result); err != nil {
		m.logger.Warn("Failed to publish result",
			"template_id", result.TemplateID,
			"err", err,
		)
	}
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock executes fn while holding the lock for the template.
func (m *Manager) WithLock(ctx context.Context, templateID string, fn func(context.Context) error) error {
	entry := m.acquire(templateID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(templateID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "template:"+templateID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The request context may already be done; the lock must still be released.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"template_id", templateID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
