package termcap

import "testing"

type recordingSink struct {
	written []string
}

func (r *recordingSink) Write(p []byte) (int, error) {
	r.written = append(r.written, string(p))
	return len(p), nil
}
func (r *recordingSink) Flush() error { return nil }
func (r *recordingSink) IsBad() bool  { return false }

func TestPlanRepairTertiaryWalksBackwardFromCPR(t *testing.T) {
	// Three glitch bytes landed before the cursor reported (row 0, col 3):
	// they must have started at column 0.
	plan := planRepair(0, 3, 40, 4, 3, 0)

	want := [][2]int{{0, 0}, {1, 0}, {2, 0}}
	if len(plan.positions) != len(want) {
		t.Fatalf("positions = %v, want %v", plan.positions, want)
	}
	for i := range want {
		if plan.positions[i] != want[i] {
			t.Errorf("positions[%d] = %v, want %v", i, plan.positions[i], want[i])
		}
	}
	if plan.origX != 0 || plan.origY != 0 {
		t.Errorf("orig = (%d,%d), want (0,0)", plan.origX, plan.origY)
	}
}

func TestPlanRepairOSCWalksForwardFromCPR(t *testing.T) {
	// The OSC-color probe is sent after CPR, so its glitch bytes land
	// starting at the reported position and advance rightward.
	plan := planRepair(0, 5, 40, 4, 0, 3)

	want := [][2]int{{5, 0}, {6, 0}, {7, 0}}
	if len(plan.positions) != len(want) {
		t.Fatalf("positions = %v, want %v", plan.positions, want)
	}
	for i := range want {
		if plan.positions[i] != want[i] {
			t.Errorf("positions[%d] = %v, want %v", i, plan.positions[i], want[i])
		}
	}
	if plan.origX != 5 || plan.origY != 0 {
		t.Errorf("orig = (%d,%d), want (5,0)", plan.origX, plan.origY)
	}
}

func TestRepairPositions(t *testing.T) {
	tests := []struct {
		name        string
		origX       int
		origY       int
		width       int
		wantPartial bool
	}{
		{"top-left corner", 0, 0, 40, false},
		{"near right edge but not on it", 38, 0, 40, false},
		{"left column, bottom row", 0, 3, 40, false},
		{"rightmost column, top row", 39, 0, 40, true},
		{"rightmost column, bottom row", 39, 3, 40, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := repairPlan{
				positions: [][2]int{{tt.origX, tt.origY}},
				origX:     tt.origX,
				origY:     tt.origY,
				width:     tt.width,
			}
			sink := &recordingSink{}
			got := repair(plan, 4, sink)
			if got.partial != tt.wantPartial {
				t.Errorf("partial = %v, want %v", got.partial, tt.wantPartial)
			}
			if tt.wantPartial && len(sink.written) != 0 {
				t.Errorf("expected no bytes written on refusal, got %v", sink.written)
			}
		})
	}
}

func TestRepairErasesRightToLeft(t *testing.T) {
	plan := repairPlan{
		positions: [][2]int{{0, 0}, {1, 0}, {2, 0}},
		origX:     0,
		origY:     0,
		width:     40,
	}
	sink := &recordingSink{}
	got := repair(plan, 4, sink)
	if got.partial {
		t.Fatal("expected a successful repair")
	}
	if len(sink.written) == 0 {
		t.Fatal("expected repair bytes to be written")
	}
	// The final write sequence must leave the cursor back where it
	// started: after the space written at column 0 the cursor sits at
	// column 1, so the last byte written should be a backspace bringing
	// it back to column 0.
	last := sink.written[len(sink.written)-1]
	if last != "\010" {
		t.Errorf("last write = %q, want a trailing backspace", last)
	}
}

func TestRepairNoGlitchIsNoop(t *testing.T) {
	sink := &recordingSink{}
	got := repair(repairPlan{}, 4, sink)
	if got.partial {
		t.Error("expected no-glitch repair to never be partial")
	}
	if len(sink.written) != 0 {
		t.Errorf("expected no writes, got %v", sink.written)
	}
}
