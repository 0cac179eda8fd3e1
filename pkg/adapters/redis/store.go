package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/concord/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.PreferenceStore and ports.ResultSink using Redis.
//
// Key layout (under the prefix):
//
//	pref:<template>:<group>:<party>  list of JSON versions, oldest first
//	slots:<template>                 zset of "<group>/<party>" scored by last submission
//	result:<template>                JSON of the last published TemplateResult
//	templates                        zset of template ids scored by last submission
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for submissions and results.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "concord:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share the connection pool.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) prefKey(templateID, groupID string, party domain.Party) string {
	return fmt.Sprintf("%spref:%s:%s:%s", s.prefix, templateID, groupID, party)
}

func (s *Store) slotsKey(templateID string) string {
	return s.prefix + "slots:" + templateID
}

func (s *Store) resultKey(templateID string) string {
	return s.prefix + "result:" + templateID
}

func (s *Store) templatesKey() string {
	return s.prefix + "templates"
}

func slot(groupID string, party domain.Party) string {
	return groupID + "/" + string(party)
}

func parseSlot(member string) (string, domain.Party, bool) {
	i := strings.LastIndex(member, "/")
	if i < 0 {
		return "", "", false
	}
	return member[:i], domain.Party(member[i+1:]), true
}

// Save appends a version to Redis.
func (s *Store) Save(ctx context.Context, pref domain.StoredPreference) error {
	data, err := json.Marshal(pref)
	if err != nil {
		return fmt.Errorf("failed to marshal preference: %w", err)
	}

	key := s.prefKey(pref.TemplateID, pref.GroupID, pref.Party)
	score := float64(time.Now().Unix())

	pipe := s.client.TxPipeline()

	// 1. Append the version
	pipe.RPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}

	// 2. Index the slot and the template (ZSET, scored by last activity)
	pipe.ZAdd(ctx, s.slotsKey(pref.TemplateID), backend.Z{Score: score, Member: slot(pref.GroupID, pref.Party)})
	pipe.ZAdd(ctx, s.templatesKey(), backend.Z{Score: score, Member: pref.TemplateID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Latest returns the newest version.
func (s *Store) Latest(ctx context.Context, templateID, groupID string, party domain.Party) (domain.StoredPreference, error) {
	val, err := s.client.LIndex(ctx, s.prefKey(templateID, groupID, party), -1).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.StoredPreference{}, domain.ErrPreferenceNotFound
		}
		return domain.StoredPreference{}, fmt.Errorf("failed to get from redis: %w", err)
	}
	return decode(val)
}

// History returns every version, oldest first.
func (s *Store) History(ctx context.Context, templateID, groupID string, party domain.Party) ([]domain.StoredPreference, error) {
	vals, err := s.client.LRange(ctx, s.prefKey(templateID, groupID, party), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history from redis: %w", err)
	}
	out := make([]domain.StoredPreference, 0, len(vals))
	for _, v := range vals {
		p, err := decode(v)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ListLatest returns the latest version of every slot of the template.
// Slots whose versions expired are pruned from the index.
func (s *Store) ListLatest(ctx context.Context, templateID string) ([]domain.StoredPreference, error) {
	members, err := s.client.ZRange(ctx, s.slotsKey(templateID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	type pending struct {
		member string
		cmd    *backend.StringCmd
	}
	pipe := s.client.Pipeline()
	cmds := make([]pending, 0, len(members))
	for _, m := range members {
		groupID, party, ok := parseSlot(m)
		if !ok {
			continue
		}
		cmds = append(cmds, pending{member: m, cmd: pipe.LIndex(ctx, s.prefKey(templateID, groupID, party), -1)})
	}
	if len(cmds) > 0 {
		// Nil replies for expired slots surface as the pipeline error; they are handled per command.
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("failed to read latest preferences: %w", err)
		}
	}

	out := make([]domain.StoredPreference, 0, len(cmds))
	var stale []any
	for _, c := range cmds {
		val, err := c.cmd.Result()
		if errors.Is(err, backend.Nil) {
			stale = append(stale, c.member)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read latest preference: %w", err)
		}
		p, err := decode(val)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	// Lazy Cleanup: drop index entries whose lists expired
	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, s.slotsKey(templateID), stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune expired slots: %w", err)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].Party < out[j].Party
	})
	return out, nil
}

// Templates returns the ids of templates with at least one submission, most
// recently active last.
func (s *Store) Templates(ctx context.Context) ([]string, error) {
	ids, err := s.client.ZRange(ctx, s.templatesKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return ids, nil
}

// Publish stores the result, replacing the previous one.
func (s *Store) Publish(ctx context.Context, result domain.TemplateResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := s.client.Set(ctx, s.resultKey(result.TemplateID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}
	return nil
}

// Get returns the last published result.
func (s *Store) Get(ctx context.Context, templateID string) (domain.TemplateResult, error) {
	val, err := s.client.Get(ctx, s.resultKey(templateID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.TemplateResult{}, domain.ErrResultNotFound
		}
		return domain.TemplateResult{}, fmt.Errorf("failed to get result from redis: %w", err)
	}
	var res domain.TemplateResult
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		return domain.TemplateResult{}, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return res, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func decode(val string) (domain.StoredPreference, error) {
	var p domain.StoredPreference
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return domain.StoredPreference{}, fmt.Errorf("failed to unmarshal preference: %w", err)
	}
	return p, nil
}
