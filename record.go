package termcap

// SecondaryDAReply holds the parsed fields of a secondary Device
// Attributes reply: CSI > kind ; version ; extra c.
type SecondaryDAReply struct {
	Kind    int
	Version int
	Extra   int
}

// PositionReply holds a parsed cursor-position report, with or without
// the optional page field DECCPR adds.
type PositionReply struct {
	Row, Col int
	Page     int
	HasPage  bool
}

// DECRQSSReply holds the numeric fields of a DECRQSS-shaped CSI...x
// reply (this module only sees the ones our probe battery elicits).
type DECRQSSReply struct {
	Fields []int
}

// OSCColorReply holds a parsed OSC 4 color query reply.
type OSCColorReply struct {
	HasIndex      bool
	Index         int
	R, G, B       uint16
	BellTerminate bool
}

// DetectionRecord accumulates, for one detection run, at most one reply
// per probe slot: the first reply that parsed cleanly into the shape
// expected for that slot. It is single-writer during Probing and read-only
// once the run reaches Done.
type DetectionRecord struct {
	SecondaryDA *SecondaryDAReply
	// secondaryDARaw holds the first reply attributed to each of the
	// three secondary-DA probes (by send order), used only for
	// ExplicitZeroDiffered below.
	secondaryDARaw [3]*SecondaryDAReply

	TertiaryDA *string // hex id, nil if never answered structurally

	DSROK bool

	CPR      *PositionReply // fills [6n]: the first CPR/DECCPR reply seen
	DECCPR   *PositionReply // fills [?6n]: the second CPR/DECCPR reply seen
	SafeCPR  bool           // true iff the [?6n] slot's reply used the '?' prefix
	cprCount int            // how many CPR-shaped replies have been attributed so far
	// plainCPRCount counts only the non-'?'-prefixed CPR-shaped replies.
	// The reissued sentinel is always sent as a plain "ESC[6n", so every
	// compliant terminal's reply to it is plain too; the second plain
	// reply observed is therefore the sentinel's arrival signal,
	// regardless of whether a distinguishing '?' (DECCPR) reply was
	// seen in between.
	plainCPRCount int

	DECRQSS *DECRQSSReply

	OSCColor *OSCColorReply

	// GlitchTertiary/GlitchOSC count ground-state bytes the detector
	// attributes to the tertiary-DA and OSC-color probe windows
	// respectively, per the slot-attribution rule for synthetic
	// Glitch events.
	GlitchTertiary int
	GlitchOSC      int

	// sawPrimaryDA is a counter for PrimaryDA-shaped replies. The
	// detector never increments it and DetectionSnapshot does not
	// expose it.
	sawPrimaryDA int
}

// DetectionSnapshot is a read-only, serializable view of a completed (or
// in-flight) DetectionRecord, exposed via Detector.Snapshot for golden-file
// style test assertions and diagnostics independent of the derived
// capability set.
type DetectionSnapshot struct {
	SecondaryDA *SecondaryDAReply
	TertiaryDA  *string
	DSROK       bool
	CPR         *PositionReply
	DECCPR      *PositionReply
	SafeCPR     bool
	DECRQSS     *DECRQSSReply
	OSCColor    *OSCColorReply

	GlitchTertiary int
	GlitchOSC      int

	// ExplicitZeroDiffered reports whether the bare and explicit-zero
	// secondary-DA probes produced textually different replies, beyond
	// the two quirk characters ('>', '=') the descriptor string prints.
	ExplicitZeroDiffered bool

	MalformedReplies int
}

// newDetectionRecord returns an empty record ready for one run.
func newDetectionRecord() *DetectionRecord {
	return &DetectionRecord{}
}

// hasDSR reports whether the [5n] slot was filled.
func (r *DetectionRecord) hasDSR() bool { return r.DSROK }

// hasCPRAnswer reports whether either the [6n] or [?6n] slot was filled.
func (r *DetectionRecord) hasCPRAnswer() bool { return r.CPR != nil || r.DECCPR != nil }

// hasSecondaryDA reports whether any secondary-DA probe produced a
// structured reply.
func (r *DetectionRecord) hasSecondaryDA() bool { return r.SecondaryDA != nil }

// hasTertiaryDA reports whether the tertiary-DA probe produced a
// structured (non-glitch) reply.
func (r *DetectionRecord) hasTertiaryDA() bool { return r.TertiaryDA != nil }

// recordSecondaryDA fills the secondary-DA slot for the given probe index
// (0, 1, or 2, corresponding to ProbeSecondaryDA/Explicit1/Explicit01) if
// it is not already filled, per the "first clean reply wins" rule.
func (r *DetectionRecord) recordSecondaryDA(probeIndex int, reply SecondaryDAReply) {
	if probeIndex >= 0 && probeIndex < len(r.secondaryDARaw) && r.secondaryDARaw[probeIndex] == nil {
		r.secondaryDARaw[probeIndex] = &reply
	}
	if r.SecondaryDA == nil {
		r.SecondaryDA = &reply
	}
}

// ExplicitZeroDiffered reports whether the bare `ESC[>c` probe and the
// explicit-zero `ESC[>0;1c` probe produced textually different replies —
// a documented glitch source in some terminals.
func (r *DetectionRecord) ExplicitZeroDiffered() bool {
	bare := r.secondaryDARaw[0]
	explicit := r.secondaryDARaw[2]
	if bare == nil || explicit == nil {
		return false
	}
	return *bare != *explicit
}

// recordCPR fills [6n] then [?6n] in arrival order, per slot-attribution
// rule 3. safe reports whether this particular reply used the
// distinguishing '?' prefix (DECCPR).
func (r *DetectionRecord) recordCPR(pos PositionReply, safe bool) {
	r.cprCount++
	if !safe {
		r.plainCPRCount++
	}
	switch r.cprCount {
	case 1:
		r.CPR = &pos
	case 2:
		r.DECCPR = &pos
		r.SafeCPR = safe
	default:
		// Third and later CPR-shaped replies are duplicates; ignored
		// per the "duplicate reply tolerated" edge case.
	}
}

// sentinelSeen reports whether enough plain CPR-shaped replies have
// arrived to infer the reissued sentinel probe has been answered. See
// plainCPRCount's doc comment for why this, not a fixed total count, is
// the correct signal: some terminals (e.g. tmux) never answer the
// DECCPR-shaped [?6n] probe at all, so the sentinel may be only the
// second CPR-shaped reply overall rather than the third.
func (r *DetectionRecord) sentinelSeen() bool {
	return r.plainCPRCount >= 2
}
