package storage

import "errors"

var (
	// ErrWrongType is returned when the value stored at a key does not support the operation
	ErrWrongType = errors.New("value is incorrect type")
	// ErrNotInteger is returned by INCR when the stored value is not an integer
	ErrNotInteger = errors.New("value is not integer type")
	// ErrOverflow is returned when an increment would leave the int64 range
	ErrOverflow = errors.New("increment would overflow")
)

type SetOptions struct {
	TTL    int64 // key lifetime in seconds, used only when HasTTL is set
	HasTTL bool  // TTL was given. A non-positive TTL deletes the key
}

// Storage is the key space used by the command engine.
// Implementations are not required to be safe for concurrent use:
// all calls come from the single request processing goroutine
type Storage interface {
	// Get returns the textual value and true if the key is found. Otherwise, "", false.
	// A sorted set yields ErrWrongType
	Get(key string) (string, bool, error)

	// Set replaces the value and TTL stored at key
	Set(key, value string, options SetOptions)

	// Del deletes the key. Returns the number of removed keys, 0 or 1
	Del(key string) int

	// DBSize reclaims every expired key and returns the number of keys left
	DBSize() int

	// Sweep reclaims every expired key and returns how many were removed
	Sweep() int

	// Incr adds one to the integer at key, treating a missing key as 0
	Incr(key string) (int64, error)

	// ZAdd inserts or moves member in the sorted set at key, creating the set if needed
	ZAdd(key string, score int64, member string) (AddResult, error)

	// ZCard returns the cardinality of the sorted set at key, 0 if the key is missing
	ZCard(key string) (int, error)

	// ZRank returns the 0-based rank of member, false if the key or member is missing
	ZRank(key, member string) (int, bool, error)

	// ZRange returns the members between positions start and stop, both inclusive
	ZRange(key string, start, stop int) ([]string, error)
}
