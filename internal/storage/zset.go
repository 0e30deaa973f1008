package storage

// AddResult reports what SortedSet.Add did with the member
type AddResult int

const (
	// Inserted means the member was not in the set
	Inserted AddResult = iota + 1
	// Replaced means the member existed with another score and was moved
	Replaced
	// Unchanged means the member already had this score
	Unchanged
)

func (r AddResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Replaced:
		return "replaced"
	case Unchanged:
		return "unchanged"
	}
	return "unknown"
}

// SortedSet is a collection of unique members ordered by (score, member).
// The skip list keeps the order, the dictionary answers membership and the current score
type SortedSet struct {
	dict map[string]int64
	zsl  *skipList
}

// NewSortedSet creates an empty sorted set
func NewSortedSet() *SortedSet {
	return &SortedSet{
		dict: make(map[string]int64),
		zsl:  newSkipList(),
	}
}

// Add inserts member with score, or moves it if its score changed
func (z *SortedSet) Add(score int64, member string) AddResult {
	old, ok := z.dict[member]
	if ok {
		if old == score {
			return Unchanged
		}
		z.zsl.delete(old, member)
		z.zsl.insert(score, member)
		z.dict[member] = score
		return Replaced
	}

	z.zsl.insert(score, member)
	z.dict[member] = score
	return Inserted
}

// Remove deletes member. Returns false if it was not in the set
func (z *SortedSet) Remove(member string) bool {
	score, ok := z.dict[member]
	if !ok {
		return false
	}
	delete(z.dict, member)
	z.zsl.delete(score, member)
	return true
}

// Len returns the cardinality of the set
func (z *SortedSet) Len() int {
	return z.zsl.length
}

// Score returns the score of member
func (z *SortedSet) Score(member string) (int64, bool) {
	score, ok := z.dict[member]
	return score, ok
}

// Rank returns the 0-based position of member in ascending order
func (z *SortedSet) Rank(member string) (int, bool) {
	score, ok := z.dict[member]
	if !ok {
		return 0, false
	}
	r := z.zsl.rank(score, member)
	if r == 0 {
		return 0, false
	}
	return r - 1, true
}

// Range returns the members at positions start..stop, both inclusive.
// Negative indexes count from the end, -1 being the last member.
// An out of range window yields an empty slice, stop is clamped to the last member
func (z *SortedSet) Range(start, stop int) []string {
	size := z.Len()

	begin, end := start, stop
	if begin < 0 {
		begin = size + begin
	}
	if end < 0 {
		end = size + end
	}
	if begin < 0 {
		begin = 0
	}
	if begin >= size || end < begin {
		return []string{}
	}
	if end >= size {
		end = size - 1
	}

	members := make([]string, 0, end-begin+1)
	x := z.zsl.byRank(begin + 1)
	for i := begin; i <= end && x != nil; i++ {
		members = append(members, x.member)
		x = x.levels[0].forward
	}
	return members
}
