package storage

import "strconv"

type DataType byte

const (
	TypeString DataType = iota + 1
	TypeInt
	TypeZSet
)

func (t DataType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "integer"
	case TypeZSet:
		return "zset"
	}
	return "unknown"
}

// Value is the tagged container stored under a key.
// Exactly one of Str, Int or ZSet is meaningful, selected by Type
type Value struct {
	Type DataType
	Str  string
	Int  int64
	ZSet *SortedSet
}

// entry is a value together with its absolute expiration time
type entry struct {
	value     Value
	expiresAt int64 // unix milliseconds. 0 means no TTL
}

// StringValue stores text, switching to the integer representation
// when the text is a base-10 integer that fits in 64 bits
func StringValue(s string) Value {
	if isInteger(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntValue(n)
		}
	}
	return Value{Type: TypeString, Str: s}
}

// IntValue stores an integer
func IntValue(n int64) Value {
	return Value{Type: TypeInt, Int: n}
}

// ZSetValue stores a sorted set
func ZSetValue(z *SortedSet) Value {
	return Value{Type: TypeZSet, ZSet: z}
}

// Text renders string and integer values. ok is false for a sorted set
func (v Value) Text() (string, bool) {
	switch v.Type {
	case TypeString:
		return v.Str, true
	case TypeInt:
		return strconv.FormatInt(v.Int, 10), true
	}
	return "", false
}

// isInteger matches [+-]?[0-9]+
func isInteger(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
		if s == "" {
			return false
		}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
