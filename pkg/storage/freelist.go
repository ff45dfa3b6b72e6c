package storage

import (
	"slices"
	"sort"
)

// FreeBlock describes one contiguous free region of the backing store
type FreeBlock struct {
	Offset int64
	Length int64
}

// End returns the offset one past the block
func (b FreeBlock) End() int64 {
	return b.Offset + b.Length
}

// freeList is kept sorted by offset with no overlapping, adjacent or
// empty blocks.
type freeList []FreeBlock

// bestFit returns the index of the smallest block holding at least need
// bytes, preferring the lowest offset on ties, or -1.
func (l freeList) bestFit(need int64) int {
	best := -1
	for i, b := range l {
		if b.Length < need {
			continue
		}
		if best < 0 || b.Length < l[best].Length {
			best = i
			if b.Length == need {
				break
			}
		}
	}
	return best
}

// search returns the index of the first block with Offset >= off
func (l freeList) search(off int64) int {
	return sort.Search(len(l), func(i int) bool { return l[i].Offset >= off })
}

// overlaps reports whether [off, off+n) intersects any free block
func (l freeList) overlaps(off, n int64) bool {
	i := l.search(off)
	if i > 0 && l[i-1].End() > off {
		return true
	}
	return i < len(l) && l[i].Offset < off+n
}

// take carves need bytes from the low end of block i
func (l *freeList) take(i int, need int64) {
	b := &(*l)[i]
	if b.Length == need {
		*l = slices.Delete(*l, i, i+1)
		return
	}
	b.Offset += need
	b.Length -= need
}

// insert adds b at its sorted position and returns that position
func (l *freeList) insert(b FreeBlock) int {
	i := l.search(b.Offset)
	*l = slices.Insert(*l, i, b)
	return i
}

// coalesce merges block i with its neighbours when they touch. It returns
// the index of the merged block and the number of merges performed.
func (l *freeList) coalesce(i int) (int, int) {
	merges := 0

	if i+1 < len(*l) && (*l)[i].End() == (*l)[i+1].Offset {
		(*l)[i].Length += (*l)[i+1].Length
		*l = slices.Delete(*l, i+1, i+2)
		merges++
	}

	if i > 0 && (*l)[i-1].End() == (*l)[i].Offset {
		(*l)[i-1].Length += (*l)[i].Length
		*l = slices.Delete(*l, i, i+1)
		i--
		merges++
	}

	return i, merges
}

// totalBytes returns the sum of all block lengths
func (l freeList) totalBytes() int64 {
	var n int64
	for _, b := range l {
		n += b.Length
	}
	return n
}
