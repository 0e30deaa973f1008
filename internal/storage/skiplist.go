package storage

import "math/rand/v2"

// Skip list ordered by (score, member) with per-level spans, so rank lookups
// and positional range starts cost O(log n) instead of a walk from the head.

const (
	maxLevel    = 32   // Maximum level for skip list nodes
	probability = 0.25 // P = 1/4 for level generation
)

type skipLevel struct {
	forward *skipListNode
	span    int // number of level-0 nodes between this node and forward
}

type skipListNode struct {
	member string
	score  int64
	levels []skipLevel
}

// before reports whether n sorts strictly before (score, member)
func (n *skipListNode) before(score int64, member string) bool {
	return n.score < score || (n.score == score && n.member < member)
}

func (n *skipListNode) is(score int64, member string) bool {
	return n.score == score && n.member == member
}

type skipList struct {
	header *skipListNode
	length int
	level  int
}

func newSkipList() *skipList {
	return &skipList{
		header: &skipListNode{levels: make([]skipLevel, maxLevel)},
		level:  1,
	}
}

// randomLevel returns a level in [1, maxLevel] with P(level > k) = p^k
func randomLevel() int {
	level := 1
	for level < maxLevel && rand.Float64() < probability {
		level++
	}
	return level
}

// insert adds (score, member). The caller guarantees the pair is not present
func (sl *skipList) insert(score int64, member string) {
	var update [maxLevel]*skipListNode
	var rank [maxLevel]int

	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		if i < sl.level-1 {
			rank[i] = rank[i+1]
		}
		for x.levels[i].forward != nil && x.levels[i].forward.before(score, member) {
			rank[i] += x.levels[i].span
			x = x.levels[i].forward
		}
		update[i] = x
	}

	level := randomLevel()
	if level > sl.level {
		for i := sl.level; i < level; i++ {
			rank[i] = 0
			update[i] = sl.header
			update[i].levels[i].span = sl.length
		}
		sl.level = level
	}

	x = &skipListNode{
		member: member,
		score:  score,
		levels: make([]skipLevel, level),
	}

	for i := 0; i < level; i++ {
		x.levels[i].forward = update[i].levels[i].forward
		update[i].levels[i].forward = x

		x.levels[i].span = update[i].levels[i].span - (rank[0] - rank[i])
		update[i].levels[i].span = (rank[0] - rank[i]) + 1
	}

	// levels above the new node now span one more element
	for i := level; i < sl.level; i++ {
		update[i].levels[i].span++
	}

	sl.length++
}

// delete removes (score, member). Returns false if the pair is not present
func (sl *skipList) delete(score int64, member string) bool {
	var update [maxLevel]*skipListNode

	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil && x.levels[i].forward.before(score, member) {
			x = x.levels[i].forward
		}
		update[i] = x
	}

	x = x.levels[0].forward
	if x == nil || !x.is(score, member) {
		return false
	}

	for i := 0; i < sl.level; i++ {
		if update[i].levels[i].forward == x {
			update[i].levels[i].span += x.levels[i].span - 1
			update[i].levels[i].forward = x.levels[i].forward
		} else {
			update[i].levels[i].span--
		}
	}

	for sl.level > 1 && sl.header.levels[sl.level-1].forward == nil {
		sl.level--
	}

	sl.length--
	return true
}

// rank returns the 1-based position of (score, member), or 0 if it is not present
func (sl *skipList) rank(score int64, member string) int {
	rank := 0
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil &&
			(x.levels[i].forward.before(score, member) || x.levels[i].forward.is(score, member)) {
			rank += x.levels[i].span
			x = x.levels[i].forward
		}
		if x != sl.header && x.is(score, member) {
			return rank
		}
	}
	return 0
}

// byRank returns the node at the 1-based position rank, or nil when out of range
func (sl *skipList) byRank(rank int) *skipListNode {
	if rank < 1 || rank > sl.length {
		return nil
	}

	traversed := 0
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil && traversed+x.levels[i].span <= rank {
			traversed += x.levels[i].span
			x = x.levels[i].forward
		}
		if traversed == rank {
			return x
		}
	}
	return nil
}
