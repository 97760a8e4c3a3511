package termcap

// Cursor tracks the text cursor's position during glitch repair: a triple
// (X, Y, PendingWrap) plus the screen dimensions it is bounded by.
// Mutated only by the repair pass in repair.go; it does not exist outside
// that pass.
type Cursor struct {
	X, Y        int
	PendingWrap bool
	Width       int
	Height      int
}

// NewCursor returns a Cursor positioned at (x, y) on a width x height
// screen. x and y are clamped into range.
func NewCursor(x, y, width, height int) *Cursor {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	if x < 0 {
		x = 0
	}
	if x >= width {
		x = width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= height {
		y = height - 1
	}
	return &Cursor{X: x, Y: y, Width: width, Height: height}
}

// glitchSet is the unordered set of (x, y) positions the terminal has
// visibly but spuriously filled with literal reply bytes. It must be
// empty at the end of a successful repair.
type glitchSet map[[2]int]struct{}

func newGlitchSet() glitchSet { return make(glitchSet) }

func (g glitchSet) add(x, y int) { g[[2]int{x, y}] = struct{}{} }

func (g glitchSet) remove(x, y int) { delete(g, [2]int{x, y}) }

func (g glitchSet) empty() bool { return len(g) == 0 }

// shiftUp translates every position's y by -1, used when the cursor wraps
// off the bottom row and the terminal scrolls its history rather than
// growing past Height.
func (g glitchSet) shiftUp() {
	shifted := make(glitchSet, len(g))
	for pos := range g {
		shifted[[2]int{pos[0], pos[1] - 1}] = struct{}{}
	}
	for k := range g {
		delete(g, k)
	}
	for k := range shifted {
		g[k] = struct{}{}
	}
}

// wrapIfNeeded applies a staged pending-wrap: if the cursor is waiting to
// wrap, it moves to column 0 of the next row, scrolling the glitched set
// up by one if there is no next row.
func (c *Cursor) wrapIfNeeded(glitched glitchSet) {
	if !c.PendingWrap {
		return
	}
	c.PendingWrap = false
	c.X = 0
	if c.Y+1 < c.Height {
		c.Y++
		return
	}
	glitched.shiftUp()
}

// advance moves the cursor one column right, staging a wrap instead of
// overflowing when already at the rightmost column.
func (c *Cursor) advance() {
	if c.X+1 < c.Width {
		c.X++
		return
	}
	c.PendingWrap = true
}

// backspace moves the cursor one column left, floored at 0. It never
// changes Y and cannot itself trigger a wrap: a staged PendingWrap is
// cleared instead.
func (c *Cursor) backspace() {
	c.PendingWrap = false
	if c.X > 0 {
		c.X--
	}
}
