package sortedset

import (
	"strconv"

	"github.com/hdt3213/gkvs/lib/wildcard"
)

// SortedSet is a set which keys sorted by bound score
type SortedSet struct {
	dict     map[string]*Element
	skiplist *skiplist
}

// Make makes a new SortedSet
func Make() *SortedSet {
	return &SortedSet{
		dict:     make(map[string]*Element),
		skiplist: makeSkiplist(),
	}
}

// Add puts member into set,  and returns whether has inserted new node
func (sortedSet *SortedSet) Add(member string, score float64) bool {
	element, ok := sortedSet.dict[member]
	sortedSet.dict[member] = &Element{
		Member: member,
		Score:  score,
	}
	if ok {
		if score != element.Score {
			sortedSet.skiplist.remove(member, element.Score)
			sortedSet.skiplist.insert(member, score)
		}
		return false
	}
	sortedSet.skiplist.insert(member, score)
	return true
}

// Len returns number of members in set
func (sortedSet *SortedSet) Len() int64 {
	return int64(len(sortedSet.dict))
}

// Get returns the given member
func (sortedSet *SortedSet) Get(member string) (element *Element, ok bool) {
	element, ok = sortedSet.dict[member]
	if !ok {
		return nil, false
	}
	return element, true
}

// Remove removes the given member from set
func (sortedSet *SortedSet) Remove(member string) bool {
	v, ok := sortedSet.dict[member]
	if ok {
		sortedSet.skiplist.remove(member, v.Score)
		delete(sortedSet.dict, member)
		return true
	}
	return false
}

// GetRank returns the rank of the given member, sort by ascending order, rank starts from 0
func (sortedSet *SortedSet) GetRank(member string, desc bool) (rank int64) {
	element, ok := sortedSet.dict[member]
	if !ok {
		return -1
	}
	r := sortedSet.skiplist.getRank(member, element.Score)
	if desc {
		r = sortedSet.skiplist.length - r
	} else {
		r--
	}
	return r
}

// ForEach visits each member which rank within [start, stop), sort by ascending order, rank starts from 0
func (sortedSet *SortedSet) ForEach(start int64, stop int64, desc bool, consumer func(element *Element) bool) {
	size := int64(sortedSet.Len())
	if start < 0 || start >= size {
		panic("illegal start " + strconv.FormatInt(start, 10))
	}
	if stop < start || stop > size {
		panic("illegal end " + strconv.FormatInt(stop, 10))
	}

	// find start node
	var node *node
	if desc {
		node = sortedSet.skiplist.tail
		if start > 0 {
			node = sortedSet.skiplist.getByRank(int64(size - start))
		}
	} else {
		node = sortedSet.skiplist.header.level[0].forward
		if start > 0 {
			node = sortedSet.skiplist.getByRank(int64(start + 1))
		}
	}

	sliceSize := int(stop - start)
	for i := 0; i < sliceSize; i++ {
		if !consumer(&node.Element) {
			break
		}
		if desc {
			node = node.backward
		} else {
			node = node.level[0].forward
		}
	}
}

// Range returns members which rank within [start, stop), sort by ascending order, rank starts from 0
func (sortedSet *SortedSet) Range(start int64, stop int64, desc bool) []*Element {
	sliceSize := int(stop - start)
	slice := make([]*Element, sliceSize)
	i := 0
	sortedSet.ForEach(start, stop, desc, func(element *Element) bool {
		slice[i] = element
		i++
		return true
	})
	return slice
}

// Count returns the number of  members which score within the given border
func (sortedSet *SortedSet) Count(min *ScoreBorder, max *ScoreBorder) int64 {
	var i int64 = 0
	// ascending order
	sortedSet.ForEach(0, sortedSet.Len(), false, func(element *Element) bool {
		gtMin := min.less(element.Score) // greater than min
		if !gtMin {
			// has not into range, continue foreach
			return true
		}
		ltMax := max.greater(element.Score) // less than max
		if !ltMax {
			// break through score border, break foreach
			return false
		}
		// gtMin && ltMax
		i++
		return true
	})
	return i
}

// ForEachByScore visits members which score within the given border
func (sortedSet *SortedSet) ForEachByScore(min *ScoreBorder, max *ScoreBorder, offset int64, limit int64, desc bool, consumer func(element *Element) bool) {
	// find start node
	var node *node
	if desc {
		node = sortedSet.skiplist.getLastInScoreRange(min, max)
	} else {
		node = sortedSet.skiplist.getFirstInScoreRange(min, max)
	}

	for node != nil && offset > 0 {
		if desc {
			node = node.backward
		} else {
			node = node.level[0].forward
		}
		offset--
	}

	// A negative limit returns all elements from the offset
	for i := 0; (i < int(limit) || limit < 0) && node != nil; i++ {
		if !consumer(&node.Element) {
			break
		}
		if desc {
			node = node.backward
		} else {
			node = node.level[0].forward
		}
		if node == nil {
			break
		}
		gtMin := min.less(node.Element.Score) // greater than min
		ltMax := max.greater(node.Element.Score)
		if !gtMin || !ltMax {
			break // break through score border
		}
	}
}

// RangeByScore returns members which score within the given border
// param limit: <0 means no limit
func (sortedSet *SortedSet) RangeByScore(min *ScoreBorder, max *ScoreBorder, offset int64, limit int64, desc bool) []*Element {
	if limit == 0 || offset < 0 {
		return make([]*Element, 0)
	}
	slice := make([]*Element, 0)
	sortedSet.ForEachByScore(min, max, offset, limit, desc, func(element *Element) bool {
		slice = append(slice, element)
		return true
	})
	return slice
}

// RemoveByScore removes members which score within the given border
func (sortedSet *SortedSet) RemoveByScore(min *ScoreBorder, max *ScoreBorder) int64 {
	removed := sortedSet.skiplist.RemoveRangeByScore(min, max)
	for _, element := range removed {
		delete(sortedSet.dict, element.Member)
	}
	return int64(len(removed))
}

// RemoveByRank removes member ranking within [start, stop)
// sort by ascending order and rank starts from 0
func (sortedSet *SortedSet) RemoveByRank(start int64, stop int64) int64 {
	removed := sortedSet.skiplist.RemoveRangeByRank(start+1, stop+1)
	for _, element := range removed {
		delete(sortedSet.dict, element.Member)
	}
	return int64(len(removed))
}

// CountByLex returns the number of members whose name falls within the
// given lexicographical border. Only meaningful when every member shares
// the same score, see LexBorder's doc comment.
func (sortedSet *SortedSet) CountByLex(min *LexBorder, max *LexBorder) int64 {
	var i int64 = 0
	sortedSet.ForEach(0, sortedSet.Len(), false, func(element *Element) bool {
		gtMin := min.less(element.Member)
		if !gtMin {
			return true
		}
		ltMax := max.greater(element.Member)
		if !ltMax {
			return false
		}
		i++
		return true
	})
	return i
}

// RangeByLex returns members whose name falls within the given
// lexicographical border, honoring offset/limit the same way RangeByScore does.
func (sortedSet *SortedSet) RangeByLex(min *LexBorder, max *LexBorder, offset int64, limit int64, desc bool) []*Element {
	if limit == 0 || offset < 0 {
		return make([]*Element, 0)
	}
	slice := make([]*Element, 0)
	skipped := int64(0)
	sortedSet.ForEach(0, sortedSet.Len(), desc, func(element *Element) bool {
		if !min.less(element.Member) || !max.greater(element.Member) {
			if min.less(element.Member) && !max.greater(element.Member) {
				return false
			}
			return true
		}
		if skipped < offset {
			skipped++
			return true
		}
		if limit >= 0 && int64(len(slice)) >= limit {
			return false
		}
		slice = append(slice, element)
		return true
	})
	return slice
}

// RemoveByLex removes members whose name falls within the given
// lexicographical border and returns how many were removed.
func (sortedSet *SortedSet) RemoveByLex(min *LexBorder, max *LexBorder) int64 {
	var toRemove []string
	sortedSet.ForEach(0, sortedSet.Len(), false, func(element *Element) bool {
		gtMin := min.less(element.Member)
		if !gtMin {
			return true
		}
		ltMax := max.greater(element.Member)
		if !ltMax {
			return false
		}
		toRemove = append(toRemove, element.Member)
		return true
	})
	for _, member := range toRemove {
		sortedSet.Remove(member)
	}
	return int64(len(toRemove))
}

// PopMin removes and returns up to count members with the lowest scores.
func (sortedSet *SortedSet) PopMin(count int) []*Element {
	if count <= 0 {
		return nil
	}
	size := int(sortedSet.Len())
	if count > size {
		count = size
	}
	if count == 0 {
		return nil
	}
	slice := sortedSet.Range(0, int64(count), false)
	for _, element := range slice {
		sortedSet.Remove(element.Member)
	}
	return slice
}

// PopMax removes and returns up to count members with the highest scores.
func (sortedSet *SortedSet) PopMax(count int) []*Element {
	if count <= 0 {
		return nil
	}
	size := int(sortedSet.Len())
	if count > size {
		count = size
	}
	if count == 0 {
		return nil
	}
	slice := sortedSet.Range(0, int64(count), true)
	for _, element := range slice {
		sortedSet.Remove(element.Member)
	}
	return slice
}

// ZSetScan scans members matching pattern, returning member/score pairs.
// Like Set.SetScan it is not sharded, so it always completes in one pass
// and reports cursor 0 to signal the caller it has seen everything.
func (sortedSet *SortedSet) ZSetScan(cursor int, count int, pattern string) ([][]byte, int) {
	result := make([][]byte, 0)
	matchKey := wildcard.CompilePattern(pattern)
	sortedSet.ForEach(0, sortedSet.Len(), false, func(element *Element) bool {
		if pattern == "*" || matchKey.IsMatch(element.Member) {
			result = append(result, []byte(element.Member))
			result = append(result, []byte(strconv.FormatFloat(element.Score, 'f', -1, 64)))
		}
		return true
	})
	return result, 0
}
