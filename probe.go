package termcap

// ProbeID symbolically identifies one member of the fixed probe battery.
// The numeric value doubles as the slot's position in the send order,
// which matters: replies carry no correlation id, so attribution depends
// on this order never changing.
type ProbeID int

const (
	ProbeSecondaryDA ProbeID = iota
	ProbeSecondaryDAExplicit1
	ProbeSecondaryDAExplicit01
	ProbeTertiaryDA
	ProbeDSR
	ProbeCPR
	ProbeDECCPR
	ProbeDECRQSS
	ProbeOSCColor
)

var probeIDNames = [...]string{
	ProbeSecondaryDA:           "secondary-DA",
	ProbeSecondaryDAExplicit1:  "secondary-DA(1)",
	ProbeSecondaryDAExplicit01: "secondary-DA(0;1)",
	ProbeTertiaryDA:            "tertiary-DA",
	ProbeDSR:                   "DSR",
	ProbeCPR:                   "CPR",
	ProbeDECCPR:                "DECCPR",
	ProbeDECRQSS:               "DECRQSS",
	ProbeOSCColor:              "OSC-color",
}

func (id ProbeID) String() string {
	if id < 0 || int(id) >= len(probeIDNames) {
		return "unknown-probe"
	}
	return probeIDNames[id]
}

// Probe is a single entry in the fixed battery: a byte string to send and
// the symbolic slot it fills.
type Probe struct {
	ID    ProbeID
	Bytes string
}

// Probes is the canonical probe battery, in the order every implementation
// must send them so replies can be attributed by position. Do not reorder
// or omit entries; the resolver and the sentinel depend on this sequence.
var Probes = []Probe{
	{ProbeSecondaryDA, "\033[>c"},
	{ProbeSecondaryDAExplicit1, "\033[>1c"},
	{ProbeSecondaryDAExplicit01, "\033[>0;1c"},
	{ProbeTertiaryDA, "\033[=c"},
	{ProbeDSR, "\033[5n"},
	{ProbeCPR, "\033[6n"},
	{ProbeDECCPR, "\033[?6n"},
	{ProbeDECRQSS, "\033[1x"},
	{ProbeOSCColor, "\033]4;255;?\007"},
}

// Sentinel is reissued at the tail of a batch. Every compliant terminal
// answers it (it is a plain cursor-position report), so its arrival marks
// "no further replies are coming for this batch" even though it duplicates
// ProbeCPR's bytes.
var Sentinel = Probe{ProbeCPR, "\033[6n"}

// Batch returns the full wire sequence for one detection run: every probe
// in Probes, in order, followed by Sentinel.
func Batch() []Probe {
	batch := make([]Probe, 0, len(Probes)+1)
	batch = append(batch, Probes...)
	batch = append(batch, Sentinel)
	return batch
}

// ReplyShape tags the structured-reply shape a probe expects in response,
// per spec §4.1's expected_shape(probe_id) -> shape_tag. The detector
// consults this table (via ExpectedShape) to decide which replies close
// the tertiary-DA glitch window; classifying a reply itself dispatches
// on the CSI prefix and final byte.
type ReplyShape int

const (
	ShapeSecondaryDA ReplyShape = iota
	ShapeTertiaryDA
	ShapeDSR
	ShapeCPR
	ShapeDECCPR
	ShapeDECRQSS
	ShapeOSCColor
)

var replyShapeNames = [...]string{
	ShapeSecondaryDA: "SecondaryDA",
	ShapeTertiaryDA:  "TertiaryDA",
	ShapeDSR:         "DSR_OK",
	ShapeCPR:         "CPR",
	ShapeDECCPR:      "DECCPR",
	ShapeDECRQSS:     "DECRQSS",
	ShapeOSCColor:    "OSCColor",
}

func (s ReplyShape) String() string {
	if s < 0 || int(s) >= len(replyShapeNames) {
		return "unknown-shape"
	}
	return replyShapeNames[s]
}

// expectedShapes maps each ProbeID to the reply shape a compliant
// terminal answers it with. The three secondary-DA probes all expect
// the same shape; only their slot attribution (by send order) differs.
var expectedShapes = map[ProbeID]ReplyShape{
	ProbeSecondaryDA:           ShapeSecondaryDA,
	ProbeSecondaryDAExplicit1:  ShapeSecondaryDA,
	ProbeSecondaryDAExplicit01: ShapeSecondaryDA,
	ProbeTertiaryDA:            ShapeTertiaryDA,
	ProbeDSR:                   ShapeDSR,
	ProbeCPR:                   ShapeCPR,
	ProbeDECCPR:                ShapeDECCPR,
	ProbeDECRQSS:               ShapeDECRQSS,
	ProbeOSCColor:              ShapeOSCColor,
}

// ExpectedShape returns the reply shape tag a compliant terminal answers
// id's probe with, per spec §4.1.
func ExpectedShape(id ProbeID) ReplyShape {
	return expectedShapes[id]
}
