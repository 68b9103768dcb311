package mdwrap

const (
	defaultBufferSize = 1024
	// minRefill is the number of runes a refill must make room for.
	minRefill = 1
)

// refillPlan describes how the rune arena must change before a refill.
type refillPlan struct {
	// capacity is the arena capacity after the refill; larger than the
	// current capacity means reallocation.
	capacity int
	// shift moves the unread runes [pos, used) to the start of the arena.
	shift bool
}

// planRefill decides how to make room for required more runes in an arena of
// the given capacity holding used runes with the cursor at pos. In append mode
// a token is being scanned and every filled rune must keep its index, so the
// arena may only grow. Otherwise the unread runes are shifted to the front,
// growing only when they do not fit.
func planRefill(capacity, pos, used, required int, appendMode bool) refillPlan {
	if required < minRefill {
		required = minRefill
	}
	if used+required <= capacity {
		return refillPlan{capacity: capacity}
	}
	if appendMode {
		return refillPlan{capacity: grownCapacity(capacity, used+required)}
	}
	remaining := used - pos
	if remaining+required > capacity {
		return refillPlan{capacity: grownCapacity(capacity, remaining+required), shift: true}
	}
	return refillPlan{capacity: capacity, shift: true}
}

// grownCapacity doubles capacity, or grows it enough to hold need runes.
func grownCapacity(capacity, need int) int {
	grown := capacity * 2
	if grown < defaultBufferSize {
		grown = defaultBufferSize
	}
	if grown < need {
		return need
	}
	return grown
}

// shouldCompact reports whether the cursor has passed the 90% high-water mark.
func shouldCompact(capacity, pos int) bool {
	if capacity <= 0 || pos == 0 {
		return false
	}
	return pos*10 >= capacity*9
}

// compactRunes moves buf[pos:used] to the start of buf and returns the new
// fill count.
func compactRunes(buf []rune, pos, used int) int {
	if pos == 0 {
		return used
	}
	return copy(buf, buf[pos:used])
}
