package wordsearch

import "sort"

// Stats counts committed placements per direction. Keys are "placed" plus
// the direction label, e.g. "placedRD".
type Stats map[string]int

func statKey(d Direction) string {
	return "placed" + d.String()
}

// Incr records one placement in direction d.
func (s Stats) Incr(d Direction) {
	s[statKey(d)]++
}

// Count returns the number of placements in direction d.
func (s Stats) Count(d Direction) int {
	return s[statKey(d)]
}

// Total returns the number of placements across all directions.
func (s Stats) Total() int {
	n := 0
	for _, v := range s {
		n += v
	}
	return n
}

// Keys returns the recorded statistic names in sorted order.
func (s Stats) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
