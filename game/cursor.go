package game

// TurnCursor tracks whose action is currently legal: a seat index plus a
// travel direction of +1 or -1.
type TurnCursor struct {
	Index     int
	Direction int
}

// floorMod keeps cursor arithmetic non-negative when the direction is
// negative: truncating-toward-zero modulo would walk the index below 0.
func floorMod(v, n int) int {
	return ((v % n) + n) % n
}

// Advance moves the cursor by step seats in the current direction.
// A step of 2 skips the immediately following seat.
func (c *TurnCursor) Advance(seats, step int) {
	if seats <= 0 {
		return
	}
	c.Index = floorMod(c.Index+c.Direction*step, seats)
}

// Next returns the seat one position ahead without moving the cursor.
func (c *TurnCursor) Next(seats int) int {
	if seats <= 0 {
		return 0
	}
	return floorMod(c.Index+c.Direction, seats)
}

// Clamp re-fits the index after a seat was spliced out.
func (c *TurnCursor) Clamp(seats int) {
	if seats <= 0 {
		c.Index = 0
		return
	}
	c.Index = floorMod(c.Index, seats)
}

// Reverse flips the travel direction.
func (c *TurnCursor) Reverse() {
	c.Direction = -c.Direction
}
