package storage

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// Options configures a Store
type Options struct {
	InitialSize int              // expected number of keys
	ExpiryIndex string           // ExpiryIndexList or ExpiryIndexHeap
	Clock       func() time.Time // defaults to time.Now
	Logger      *zap.Logger      // defaults to a no-op logger
}

// Store is an in-memory key space with lazy expiration.
// It is not safe for concurrent use
type Store struct {
	data    map[string]*entry
	expires expiryIndex
	now     func() time.Time
	logger  *zap.Logger
}

var _ Storage = (*Store)(nil)

// New creates an empty Store
func New(opts Options) (*Store, error) {
	idx, err := newExpiryIndex(opts.ExpiryIndex)
	if err != nil {
		return nil, err
	}

	size := opts.InitialSize
	if size < 0 {
		size = 0
	}

	s := &Store{
		data:    make(map[string]*entry, size),
		expires: idx,
		now:     opts.Clock,
		logger:  opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	return s, nil
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// lookup returns the live entry at key, removing it first if it has expired
func (s *Store) lookup(key string) (*entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return nil, false
	}

	if e.expiresAt != 0 && s.nowMillis() > e.expiresAt {
		s.remove(key)
		return nil, false
	}

	return e, true
}

func (s *Store) remove(key string) bool {
	e, ok := s.data[key]
	if !ok {
		return false
	}
	delete(s.data, key)
	if e.expiresAt != 0 {
		s.expires.untrack(key)
	}
	return true
}

// deadline returns now + ttl seconds in milliseconds, saturating at MaxInt64
func deadline(now, ttl int64) int64 {
	if ttl > (math.MaxInt64-now)/1000 {
		return math.MaxInt64
	}
	return now + ttl*1000
}

// Get returns the value and true if the key is found. Otherwise, "", false
func (s *Store) Get(key string) (string, bool, error) {
	e, ok := s.lookup(key)
	if !ok {
		return "", false, nil
	}

	text, ok := e.value.Text()
	if !ok {
		return "", false, ErrWrongType
	}
	return text, true, nil
}

// Set overwrites key regardless of its type. Any previous TTL is discarded
func (s *Store) Set(key, value string, options SetOptions) {
	if options.HasTTL && options.TTL <= 0 {
		s.remove(key)
		return
	}

	e := &entry{value: StringValue(value)}

	if options.HasTTL {
		e.expiresAt = deadline(s.nowMillis(), options.TTL)
		s.expires.track(key, e.expiresAt)
	} else {
		s.expires.untrack(key)
	}

	s.data[key] = e
}

// Del removes the key. A missing key is ignored
func (s *Store) Del(key string) int {
	if s.remove(key) {
		return 1
	}
	return 0
}

// DBSize has the side effect of reclaiming all expired keys
func (s *Store) DBSize() int {
	s.Sweep()
	return len(s.data)
}

// Sweep deletes every key whose TTL has passed
func (s *Store) Sweep() int {
	if s.expires.len() == 0 {
		return 0
	}

	keys := s.expires.expired(s.nowMillis())
	for _, key := range keys {
		delete(s.data, key)
	}

	if len(keys) > 0 && s.logger.Core().Enabled(zap.DebugLevel) {
		s.logger.Debug("expired keys reclaimed",
			zap.Int("count", len(keys)),
			zap.Int("remaining", len(s.data)),
		)
	}

	return len(keys)
}

// Incr increments the integer stored at key by one. A missing key counts as 0.
// The TTL of an existing key is kept
func (s *Store) Incr(key string) (int64, error) {
	e, ok := s.lookup(key)
	if !ok {
		s.data[key] = &entry{value: IntValue(1)}
		return 1, nil
	}

	switch e.value.Type {
	case TypeInt:
	case TypeZSet:
		return 0, ErrWrongType
	default:
		return 0, ErrNotInteger
	}
	if e.value.Int == math.MaxInt64 {
		return 0, ErrOverflow
	}

	e.value.Int++
	return e.value.Int, nil
}

// zset returns the live sorted set at key. A missing key yields nil without error
func (s *Store) zset(key string) (*SortedSet, error) {
	e, ok := s.lookup(key)
	if !ok {
		return nil, nil
	}
	if e.value.Type != TypeZSet {
		return nil, ErrWrongType
	}
	return e.value.ZSet, nil
}

// ZAdd adds member with score to the sorted set at key
func (s *Store) ZAdd(key string, score int64, member string) (AddResult, error) {
	z, err := s.zset(key)
	if err != nil {
		return 0, err
	}
	if z == nil {
		z = NewSortedSet()
		s.data[key] = &entry{value: ZSetValue(z)}
	}

	res := z.Add(score, member)
	if res == Replaced && s.logger.Core().Enabled(zap.DebugLevel) {
		s.logger.Debug("sorted set member replaced",
			zap.String("key", key),
			zap.String("member", member),
			zap.Int64("score", score),
		)
	}

	return res, nil
}

// ZCard returns the number of members of the sorted set at key
func (s *Store) ZCard(key string) (int, error) {
	z, err := s.zset(key)
	if err != nil || z == nil {
		return 0, err
	}
	return z.Len(), nil
}

// ZRank returns the 0-based rank of member, ordered from the lowest score
func (s *Store) ZRank(key, member string) (int, bool, error) {
	z, err := s.zset(key)
	if err != nil || z == nil {
		return 0, false, err
	}
	rank, ok := z.Rank(member)
	return rank, ok, nil
}

// ZRange returns the members of the sorted set at key between start and stop
func (s *Store) ZRange(key string, start, stop int) ([]string, error) {
	z, err := s.zset(key)
	if err != nil {
		return nil, err
	}
	if z == nil {
		return []string{}, nil
	}
	return z.Range(start, stop), nil
}
