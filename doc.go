// Package termcap auto-detects the capabilities of an attached terminal
// emulator by probing it with a fixed battery of escape sequences and
// classifying the replies, with no per-probe correlation id: attribution
// relies entirely on send order and a small set of slot rules.
//
// # Quick Start
//
//	d := termcap.New(
//	    termcap.WithSink(ptyWriter),
//	    termcap.WithEventSink(&myEvents{}),
//	    termcap.WithScreenSize(80, 24),
//	)
//	d.Start()
//
//	// Feed every byte read back from the PTY through AddInput, in order.
//	for {
//	    n, err := pty.Read(buf)
//	    if err != nil {
//	        break
//	    }
//	    d.AddInput(buf[:n])
//	    if d.State() == termcap.StateDone {
//	        break
//	    }
//	}
//
//	result := d.Result()
//	fmt.Println(result.Descriptor)
//
// # Architecture
//
// The package is organized around five cooperating pieces:
//
//   - [Probe] / [Batch]: the fixed probe battery and its send order
//   - [DetectionRecord]: the reply-classifier's slot-attributed scratch
//     state for one run
//   - [Detector] / [State]: the probing/finalizing state machine that
//     feeds raw bytes through the classifier
//   - the fingerprint resolver (internal): family and capability
//     derivation from a completed [DetectionRecord]
//   - [Cursor] and the glitch-repair pass (internal): recovery from
//     probes that elicit literal garbage instead of a structured reply
//
// # Detector
//
// Detector is the main entry point. It does not itself own a PTY or a
// goroutine; the host drives it by calling Start once and then AddInput
// for every byte read back, in arrival order:
//
//	d := termcap.New(termcap.WithSink(ptyWriter))
//	d.Start()
//	d.AddInput(chunk)
//
// # Providers
//
// Two provider interfaces, both optional with no-op defaults, decouple
// the detector from how the host actually talks to the terminal:
//
//   - [OutputSink]: where probe bytes and glitch-repair bytes are written
//   - [EventSink]: notified when detection finishes and when bytes arrive
//     that the detector did not attribute to a glitch
//
// # Result
//
// [Result] carries the fingerprint, the derived [CapabilitySet], and the
// protocol-level conditions the run encountered (a broken sink, a
// partial glitch repair, cancellation) — never as a Go error, since a
// detection run always reaches a well-defined outcome rather than
// failing synchronously.
package termcap
