package termcap

// Result is the outcome of a completed detection run: the fingerprint,
// its derived capabilities, and the protocol-level conditions the run
// encountered. None of these are returned as a Go error — per the
// single-threaded cooperative model, the host always receives a
// well-defined terminal event rather than a call that can fail
// synchronously.
type Result struct {
	// Family is the descriptor family tag (e.g. "xterm", "base",
	// "tmux", "toodumb").
	Family string
	// Version is the family-specific version number, 0 if not
	// applicable.
	Version int
	// Capabilities is the derived capability set.
	Capabilities CapabilitySet
	// Descriptor is the human-readable "Type: ..." string of §4.4.

	Descriptor string

	// SinkBroken is true when the output sink reported IsBad during
	// probing; the run was abandoned with whatever partial record
	// existed.
	SinkBroken bool
	// PartialRepair is true when glitch repair could not clear every
	// corrupted cell; the host may want to force a full redraw.
	PartialRepair bool
	// Cancelled is true when Cancel was called before the run reached
	// Done naturally; Capabilities is empty in that case.
	Cancelled bool
	// MalformedReplies counts replies that failed classification and
	// were discarded; detection continues regardless.
	MalformedReplies int
}
