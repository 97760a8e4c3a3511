package termcap

// repairPlan is the intermediate result of locating which screen cells a
// run of glitch bytes actually landed on, before any repair bytes are
// written.
type repairPlan struct {
	positions [][2]int // in the order the cursor visited them
	origX     int
	origY     int
	width     int
}

// planRepair locates the glitched cells for one detection run. tertiary
// and osc are the byte counts recorded against the tertiary-DA and
// OSC-color probe windows (see DetectionRecord.GlitchTertiary/GlitchOSC).
// cprRow/cprCol is the 0-based position taken from the CPR reply the
// caller chose as reference (runGlitchRepair prefers the [?6n] slot and
// falls back to [6n]); it already reflects any cursor movement the tertiary-DA
// glitch caused, since that probe is sent before the CPR probes. The
// OSC-color probe is sent after the CPR probes, so its glitch (if any) is
// replayed forward from that same position.
func planRepair(cprRow, cprCol, width, height, tertiary, osc int) repairPlan {
	plan := repairPlan{width: width}

	// Walk backward to find where the tertiary-DA glitch run started;
	// it ends at (cprRow, cprCol) since that's already post-glitch.
	tertiaryPositions := make([][2]int, 0, tertiary)
	row, col := cprRow, cprCol
	for i := 0; i < tertiary; i++ {
		if col > 0 {
			col--
		}
		tertiaryPositions = append(tertiaryPositions, [2]int{col, row})
	}
	// tertiaryPositions was built back-to-front; reverse it so it reads
	// left-to-right, matching visit order.
	for i, j := 0, len(tertiaryPositions)-1; i < j; i, j = i+1, j-1 {
		tertiaryPositions[i], tertiaryPositions[j] = tertiaryPositions[j], tertiaryPositions[i]
	}

	// The original pre-glitch cursor sits at the first tertiary position,
	// where the first glitch byte landed (or at cprCol if there was no
	// tertiary glitch).
	origX, origY := cprCol, cprRow
	if len(tertiaryPositions) > 0 {
		origX, origY = tertiaryPositions[0][0], tertiaryPositions[0][1]
	}

	plan.positions = append(plan.positions, tertiaryPositions...)

	// Walk forward from (cprRow, cprCol) for the OSC-color glitch, which
	// arrives after the CPR probes were answered.
	cur := NewCursor(cprCol, cprRow, width, height)
	glitched := newGlitchSet()
	for i := 0; i < osc; i++ {
		cur.wrapIfNeeded(glitched)
		plan.positions = append(plan.positions, [2]int{cur.X, cur.Y})
		cur.advance()
	}

	plan.origX, plan.origY = origX, origY
	return plan
}

// repairResult describes how repair ended.
type repairResult struct {
	partial bool
}

// repair erases every cell in plan.positions by writing a space and
// backspacing as needed, then returns the cursor to the pre-glitch
// position. It refuses outright (PartialRepair, no bytes written) when
// the pre-glitch cursor already sits in the rightmost column, since a
// write there risks a wrap the algorithm cannot safely undo.
func repair(plan repairPlan, height int, sink OutputSink) repairResult {
	if len(plan.positions) == 0 {
		return repairResult{}
	}
	if plan.origX == plan.width-1 {
		return repairResult{partial: true}
	}

	// The cursor is currently wherever the last glitch byte left it:
	// one past the final position in plan.positions.
	last := plan.positions[len(plan.positions)-1]
	cur := NewCursor(last[0], last[1], plan.width, height)
	cur.advance()

	for i := len(plan.positions) - 1; i >= 0; i-- {
		x, y := plan.positions[i][0], plan.positions[i][1]
		if y != cur.Y {
			return repairResult{partial: true}
		}
		for cur.X > x {
			sink.Write([]byte("\010"))
			cur.backspace()
		}
		sink.Write([]byte(" "))
		cur.advance()
	}

	for cur.X > plan.origX {
		sink.Write([]byte("\010"))
		cur.backspace()
	}

	return repairResult{}
}
