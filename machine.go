package termcap

import (
	"encoding/hex"
	"strings"

	"github.com/danielgatis/go-termcap/internal/escparse"
)

// State is one of the four states a Detector moves through during a
// single run: Idle before Start, Probing while the battery is in
// flight, Finalizing once the sentinel has been recognized but the
// fingerprint/repair pass has not yet run, and Done once Result is
// final.
type State int

const (
	StateIdle State = iota
	StateProbing
	StateFinalizing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProbing:
		return "probing"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// glitchWindow tracks which of the two glitch-prone probe slots stray
// bytes are currently attributed to.
type glitchWindow int

const (
	glitchWindowNone glitchWindow = iota
	glitchWindowTertiary
	glitchWindowOSC
)

// Option configures a Detector at construction time.
type Option func(*Detector)

// WithScreenSize sets the screen dimensions glitch repair positions
// itself against. Defaults to 80x24 if never set.
func WithScreenSize(width, height int) Option {
	return func(d *Detector) {
		d.width = width
		d.height = height
	}
}

// WithSink sets the OutputSink the detector writes the probe battery and
// repair bytes to. Defaults to NoopOutputSink.
func WithSink(sink OutputSink) Option {
	return func(d *Detector) {
		d.sink = sink
	}
}

// WithEventSink sets the EventSink notified when detection finishes and
// when non-glitch bytes arrive during probing. Defaults to
// NoopEventSink.
func WithEventSink(events EventSink) Option {
	return func(d *Detector) {
		d.events = events
	}
}

// Detector runs one probe/classify/fingerprint/repair cycle against an
// attached terminal. It is not safe for concurrent use; the
// single-threaded cooperative model assumes one goroutine feeds it bytes
// via AddInput.
type Detector struct {
	state State
	width int
	height int

	sink   OutputSink
	events EventSink

	parser *escparse.Parser
	record *DetectionRecord

	secondaryDAArrivals int
	glitchWindow        glitchWindow

	dcsIsTertiary bool
	dcsHex        []byte

	malformed int
	cancelled bool

	result Result
}

// New returns an idle Detector. Call Start to send the probe battery.
func New(opts ...Option) *Detector {
	d := &Detector{
		width:  80,
		height: 24,
		sink:   NoopOutputSink{},
		events: NoopEventSink{},
		parser: escparse.NewParser(),
		record: newDetectionRecord(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State reports the detector's current state.
func (d *Detector) State() State { return d.state }

// Start writes the full probe battery to the sink and moves to Probing.
// It is a no-op if the detector is not Idle.
func (d *Detector) Start() {
	if d.state != StateIdle {
		return
	}
	d.state = StateProbing
	d.glitchWindow = glitchWindowTertiary
	for _, probe := range Batch() {
		if _, err := d.sink.Write([]byte(probe.Bytes)); err != nil || d.sink.IsBad() {
			d.finish(true, false)
			return
		}
	}
}

// Cancel abandons an in-flight run. Result is invalid; EventSink still
// receives a single EventAutoDetectFinished with Failed set. Calling
// Cancel more than once, or after the run is Done, has no effect.
func (d *Detector) Cancel() {
	if d.state == StateDone || d.state == StateIdle {
		return
	}
	d.cancelled = true
	d.finish(true, false)
}

// AddInput feeds bytes read from the terminal through the classifier.
// Bytes arriving after the detector reaches Done are forwarded verbatim
// to the EventSink as EventUserInput without further interpretation.
func (d *Detector) AddInput(data []byte) {
	if d.state == StateDone {
		if len(data) > 0 {
			d.events.OnEvent(Event{Kind: EventUserInput, Data: data})
		}
		return
	}
	d.parser.AdvanceAll(d, data)
}

// Result returns the outcome of the most recently completed run. Valid
// once State is Done.
func (d *Detector) Result() Result { return d.result }

// Snapshot returns a stable, serializable view of exactly which probes
// answered and with what parsed fields during the most recent run,
// independent of the derived capability set. Intended for golden-file
// style assertions in tests and diagnostic tooling, mirroring the
// original fingerprinter's own trace-state dump.
func (d *Detector) Snapshot() DetectionSnapshot {
	r := d.record
	return DetectionSnapshot{
		SecondaryDA:          r.SecondaryDA,
		TertiaryDA:           r.TertiaryDA,
		DSROK:                r.DSROK,
		CPR:                  r.CPR,
		DECCPR:               r.DECCPR,
		SafeCPR:              r.SafeCPR,
		DECRQSS:              r.DECRQSS,
		OSCColor:             r.OSCColor,
		GlitchTertiary:       r.GlitchTertiary,
		GlitchOSC:            r.GlitchOSC,
		ExplicitZeroDiffered: r.ExplicitZeroDiffered(),
		MalformedReplies:     d.malformed,
	}
}

// Reset returns a Done or Idle Detector to StateIdle so Start can be
// called again for a fresh run, covering the round-trip property of
// invariant 8 explicitly rather than requiring callers to build a new
// Detector. It is a no-op while a run is still Probing or Finalizing.
func (d *Detector) Reset() {
	if d.state == StateProbing || d.state == StateFinalizing {
		return
	}
	d.state = StateIdle
	d.parser = escparse.NewParser()
	d.record = newDetectionRecord()
	d.secondaryDAArrivals = 0
	d.glitchWindow = glitchWindowNone
	d.dcsIsTertiary = false
	d.dcsHex = nil
	d.malformed = 0
	d.cancelled = false
	d.result = Result{}
}

func (d *Detector) finish(failed, partialAlreadyKnown bool) {
	if d.state == StateDone {
		return
	}
	d.state = StateFinalizing

	var res Result
	if d.cancelled || failed {
		res = Result{Cancelled: d.cancelled, SinkBroken: failed && !d.cancelled, MalformedReplies: d.malformed}
	} else {
		res = resolveFingerprint(d.record)
		res.MalformedReplies = d.malformed
		res = d.runGlitchRepair(res)
	}
	d.result = res
	d.state = StateDone

	d.events.OnEvent(Event{
		Kind:          EventAutoDetectFinished,
		Failed:        failed || d.cancelled,
		PartialRepair: res.PartialRepair,
	})
}

// runGlitchRepair locates and erases any glitched cells recorded during
// this run, using the second CPR-shaped reply (the [?6n] slot, or the
// [6n] slot if that's all that filled) as the repair pass's reference
// position.
func (d *Detector) runGlitchRepair(res Result) Result {
	if d.record.GlitchTertiary == 0 && d.record.GlitchOSC == 0 {
		return res
	}
	pos := d.record.DECCPR
	if pos == nil {
		pos = d.record.CPR
	}
	if pos == nil {
		// No position reference at all; nothing safe to repair against.
		return res
	}
	plan := planRepair(pos.Row, pos.Col, d.width, d.height, d.record.GlitchTertiary, d.record.GlitchOSC)
	rr := repair(plan, d.height, d.sink)
	res.PartialRepair = rr.partial
	if d.sink.IsBad() {
		res.SinkBroken = true
	}
	return res
}

// maybeFinalize checks whether the sentinel has been seen and, if so,
// runs the fingerprint/repair pass. See DetectionRecord.sentinelSeen for
// why the signal is "two plain CPR-shaped replies", not a fixed count of
// three: the sentinel is always a plain "ESC[6n" reissue, so its
// arrival is the second plain reply regardless of whether the
// DECCPR-shaped [?6n] probe got its own (possibly '?'-prefixed, possibly
// absent) answer in between.
func (d *Detector) maybeFinalize() {
	if d.state != StateProbing {
		return
	}
	if d.record.sentinelSeen() {
		d.finish(false, false)
	}
}

// --- escparse.Performer ---

var _ escparse.Performer = (*Detector)(nil)

func (d *Detector) Print(b byte) {
	d.handleGroundByte(b)
}

func (d *Detector) Execute(b byte) {
	d.handleGroundByte(b)
}

// handleGroundByte attributes a byte seen outside any escape sequence
// while Probing. Inside a glitch window it counts against that probe's
// glitch slot; otherwise, per spec §4.2 ("otherwise it is propagated to
// the host as ordinary user input") and §6 ("forwards Glitch events it
// declined to consume as ordinary input events"), it is forwarded to the
// EventSink as EventUserInput rather than silently dropped.
func (d *Detector) handleGroundByte(b byte) {
	if d.state != StateProbing {
		return
	}
	switch d.glitchWindow {
	case glitchWindowTertiary:
		d.record.GlitchTertiary++
	case glitchWindowOSC:
		d.record.GlitchOSC++
	default:
		d.events.OnEvent(Event{Kind: EventUserInput, Data: []byte{b}})
	}
}

func (d *Detector) EscDispatch(intermediates []byte, final byte) {
	if d.state != StateProbing {
		return
	}
	d.malformed++
}

func (d *Detector) CsiDispatch(params []int, intermediates []byte, prefix byte, final byte) {
	if d.state != StateProbing {
		return
	}
	switch {
	case prefix == '>' && final == 'c':
		d.handleSecondaryDA(params)
	case final == 'n' && len(params) >= 1 && params[0] == 0:
		// DSR strictly follows the tertiary-DA probe in send order, so
		// its arrival closes the tertiary glitch window per the
		// "window ends at the next structured reply" rule.
		d.closeTertiaryWindowForShape(ExpectedShape(ProbeDSR))
		d.record.DSROK = true
	case final == 'R' && prefix == 0:
		d.closeTertiaryWindowForShape(ExpectedShape(ProbeCPR))
		d.handleCPR(params, false)
		return // handleCPR drives maybeFinalize itself
	case final == 'R' && prefix == '?':
		d.closeTertiaryWindowForShape(ExpectedShape(ProbeDECCPR))
		d.handleCPR(params, true)
		return
	case final == 'x':
		d.closeTertiaryWindowForShape(ExpectedShape(ProbeDECRQSS))
		d.record.DECRQSS = &DECRQSSReply{Fields: append([]int(nil), params...)}
		// The OSC-color probe is sent immediately after DECRQSS; open
		// its glitch window now so a glitch preceding the structured
		// OSC reply attributes correctly.
		d.glitchWindow = glitchWindowOSC
	default:
		d.malformed++
	}
	d.maybeFinalize()
}

// tertiaryWindowCloseShapes is the set of reply shapes that, per send
// order, can only arrive after the tertiary-DA probe: DSR, CPR, DECCPR,
// DECRQSS. Built from the probe catalog's ExpectedShape rather than
// hardcoded, so it tracks Probes if that table ever changes.
var tertiaryWindowCloseShapes = map[ReplyShape]bool{
	ExpectedShape(ProbeDSR):     true,
	ExpectedShape(ProbeCPR):     true,
	ExpectedShape(ProbeDECCPR):  true,
	ExpectedShape(ProbeDECRQSS): true,
}

// closeTertiaryWindowForShape ends the tertiary-DA glitch window once a
// reply whose shape can only follow it in send order arrives.
func (d *Detector) closeTertiaryWindowForShape(shape ReplyShape) {
	if d.glitchWindow == glitchWindowTertiary && tertiaryWindowCloseShapes[shape] {
		d.glitchWindow = glitchWindowNone
	}
}

func (d *Detector) handleSecondaryDA(params []int) {
	reply := SecondaryDAReply{}
	if len(params) >= 1 {
		reply.Kind = params[0]
	}
	if len(params) >= 2 {
		reply.Version = params[1]
	}
	if len(params) >= 3 {
		reply.Extra = params[2]
	}
	idx := d.secondaryDAArrivals
	d.secondaryDAArrivals++
	d.record.recordSecondaryDA(idx, reply)
}

func (d *Detector) handleCPR(params []int, safe bool) {
	pos := PositionReply{}
	if len(params) >= 1 {
		pos.Row = params[0]
	}
	if len(params) >= 2 {
		pos.Col = params[1]
	}
	if len(params) >= 3 {
		pos.Page = params[2]
		pos.HasPage = true
	}
	d.record.recordCPR(pos, safe)
	d.maybeFinalize()
}

func (d *Detector) OscDispatch(data []byte, bellTerminated bool) {
	if d.state != StateProbing {
		return
	}
	s := string(data)
	if strings.HasPrefix(s, "4;") {
		d.handleOSCColor(s, bellTerminated)
	} else {
		d.malformed++
	}
	d.glitchWindow = glitchWindowNone
	d.maybeFinalize()
}

func (d *Detector) handleOSCColor(s string, bellTerminated bool) {
	// "4;<index>;rgb:RRRR/GGGG/BBBB"
	fields := strings.SplitN(s, ";", 3)
	if len(fields) != 3 {
		d.malformed++
		return
	}
	reply := OSCColorReply{BellTerminate: bellTerminated}
	if idx, ok := parseUint16Field(fields[1]); ok {
		reply.HasIndex = true
		reply.Index = int(idx)
	}
	rgb := strings.TrimPrefix(fields[2], "rgb:")
	parts := strings.Split(rgb, "/")
	if len(parts) == 3 {
		if v, ok := parseHex16(parts[0]); ok {
			reply.R = v
		}
		if v, ok := parseHex16(parts[1]); ok {
			reply.G = v
		}
		if v, ok := parseHex16(parts[2]); ok {
			reply.B = v
		}
	}
	d.record.OSCColor = &reply
}

func parseUint16Field(s string) (uint16, bool) {
	var v int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
	}
	return uint16(v), true
}

func parseHex16(s string) (uint16, bool) {
	b, err := hex.DecodeString(padHex(s))
	if err != nil || len(b) != 2 {
		return 0, false
	}
	return uint16(b[0])<<8 | uint16(b[1]), true
}

func padHex(s string) string {
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

func (d *Detector) Hook(params []int, intermediates []byte, final byte) {
	if d.state != StateProbing {
		return
	}
	d.dcsIsTertiary = len(intermediates) == 1 && intermediates[0] == '!' && final == '|'
	d.dcsHex = d.dcsHex[:0]
}

func (d *Detector) Put(b byte) {
	if d.state != StateProbing || !d.dcsIsTertiary {
		return
	}
	d.dcsHex = append(d.dcsHex, b)
}

func (d *Detector) Unhook(sevenBitST bool) {
	if d.state != StateProbing {
		return
	}
	if d.dcsIsTertiary {
		id := strings.ToLower(string(d.dcsHex))
		d.record.TertiaryDA = &id
		d.dcsIsTertiary = false
		// DSR, CPR, DECCPR, and DECRQSS all still come before the
		// OSC-color probe in send order; the OSC window opens only once
		// DECRQSS's own reply is classified (see the CsiDispatch case
		// for final == 'x'), not immediately on the tertiary-DA reply.
		d.glitchWindow = glitchWindowNone
	} else {
		d.malformed++
	}
	d.maybeFinalize()
}
