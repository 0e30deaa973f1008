package server

type commandMetadata struct {
	arity   int      // Arity includes the command name itself. Negative means at least -arity, the handler checks the rest
	flags   []string // readonly, write, fast
	summary string
}

var (
	commandRegistry = map[string]commandMetadata{
		"SET": {
			arity:   -1,
			flags:   []string{"write"},
			summary: "Set the string value of a key, optionally with EX seconds",
		},
		"GET": {
			arity:   2,
			flags:   []string{"readonly", "fast"},
			summary: "Get the value of a key",
		},
		"INCR": {
			arity:   2,
			flags:   []string{"write", "fast"},
			summary: "Increment the integer value of a key by one",
		},
		"DEL": {
			arity:   2,
			flags:   []string{"write"},
			summary: "Delete a key",
		},
		"DBSIZE": {
			arity:   1,
			flags:   []string{"readonly"},
			summary: "Return the number of keys after reclaiming expired ones",
		},
		"ZADD": {
			arity:   4,
			flags:   []string{"write", "fast"},
			summary: "Add a member to a sorted set, or update its score",
		},
		"ZCARD": {
			arity:   2,
			flags:   []string{"readonly", "fast"},
			summary: "Get the number of members in a sorted set",
		},
		"ZRANK": {
			arity:   3,
			flags:   []string{"readonly", "fast"},
			summary: "Determine the index of a member in a sorted set",
		},
		"ZRANGE": {
			arity:   4,
			flags:   []string{"readonly"},
			summary: "Return a range of members in a sorted set, by index",
		},
	}
)

// acceptsTokens reports whether a request of n tokens satisfies the arity
func (m commandMetadata) acceptsTokens(n int) bool {
	if m.arity < 0 {
		return n >= -m.arity
	}
	return n == m.arity
}

func (m commandMetadata) hasFlag(flag string) bool {
	for _, f := range m.flags {
		if f == flag {
			return true
		}
	}
	return false
}
