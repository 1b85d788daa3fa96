package heatshrink

// noPosition terminates an index chain.
const noPosition = -1

// searchIndex is a flattened set of 256 linked lists, one per byte value.
// prev[i] is the nearest position before i holding the same byte as buf[i],
// or noPosition. int32 keeps positions of a 64 KiB buffer representable.
type searchIndex struct {
	prev []int32
}

// build indexes buf[:end]. Positions are prepended in ascending order, so
// walking prev from any position visits candidates nearest-first.
func (s *searchIndex) build(buf []byte, end int) {
	var last [256]int32
	for i := range last {
		last[i] = noPosition
	}

	for i := 0; i < end; i++ {
		v := buf[i]
		s.prev[i] = last[v]
		last[v] = int32(i) //nolint:gosec // G115: i < len(buf) <= 1<<16
	}
}

// findLongestMatch searches buf[start:end] for the longest prefix of
// buf[end:end+maxLen]. It returns the backward distance and length of the
// best match, or zero length when nothing beats the break-even point.
// Candidates are visited nearest-first and only a strictly longer match
// replaces the current one, so ties resolve to the smallest distance.
func (e *Encoder) findLongestMatch(start, end, maxLen int) (distance, length int) {
	buf := e.buffer
	needle := buf[end : end+maxLen]
	bestLen := 0
	bestPos := noPosition

	if e.index.prev != nil {
		for pos := int(e.index.prev[end]); pos >= start; pos = int(e.index.prev[pos]) {
			candidate := buf[pos:]
			// Only a candidate agreeing at bestLen can beat the current best.
			if candidate[bestLen] != needle[bestLen] {
				continue
			}

			n := 1
			for n < maxLen && candidate[n] == needle[n] {
				n++
			}

			if n > bestLen {
				bestLen = n
				bestPos = pos
				if n == maxLen {
					break
				}
			}
		}
	} else {
		for pos := end - 1; pos >= start; pos-- {
			candidate := buf[pos:]
			if candidate[bestLen] != needle[bestLen] || candidate[0] != needle[0] {
				continue
			}

			n := 1
			for n < maxLen && candidate[n] == needle[n] {
				n++
			}

			if n > bestLen {
				bestLen = n
				bestPos = pos
				if n == maxLen {
					break
				}
			}
		}
	}

	if bestLen > e.cfg.breakEven() {
		return end - bestPos, bestLen
	}

	return 0, 0
}
