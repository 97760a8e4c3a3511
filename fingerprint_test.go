package termcap

import "testing"

func hexID(s string) *string { return &s }

func TestResolveFingerprintFamilyMatrix(t *testing.T) {
	tests := []struct {
		name   string
		record *DetectionRecord
		want   string
	}{
		{
			name:   "no DSR no CPR",
			record: &DetectionRecord{},
			want:   "toodumb",
		},
		{
			name:   "DSR but no CPR",
			record: &DetectionRecord{DSROK: true},
			want:   "toodumb",
		},
		{
			name: "CPR but no DSR",
			record: func() *DetectionRecord {
				r := newDetectionRecord()
				r.recordCPR(PositionReply{Row: 1, Col: 1}, false)
				return r
			}(),
			want: "incompatible with input handling",
		},
		{
			name: "DSR and CPR, no secondary DA",
			record: func() *DetectionRecord {
				r := newDetectionRecord()
				r.DSROK = true
				r.recordCPR(PositionReply{Row: 1, Col: 1}, false)
				return r
			}(),
			want: "base",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveFingerprint(tt.record)
			if got.Family != tt.want {
				t.Errorf("Family = %q, want %q", got.Family, tt.want)
			}
		})
	}
}

// "base" is reached both with no secondary-DA reply at all (e.g. an
// unadorned "ESC[6n"/"ESC[5n" exchange) and with one that just doesn't
// match a named family's kind. EXTENDED_CHARSET requires the latter:
// original_source/tests/fingerprintingtests.cpp's "tmux 1.3",
// "alacritty 0.4.0", and bare cursor-position fixtures all reach "base"
// with every secondary-DA probe unanswered and withhold the capability.
func TestResolveFingerprintExtendedCharsetRequiresSecondaryDA(t *testing.T) {
	bare := newDetectionRecord()
	bare.DSROK = true
	bare.recordCPR(PositionReply{Row: 1, Col: 1}, false)
	got := resolveFingerprint(bare)
	if got.Family != "base" {
		t.Fatalf("Family = %q, want base", got.Family)
	}
	if got.Capabilities.Has(ExtendedCharset) {
		t.Error("expected no EXTENDED_CHARSET for base with no secondary-DA reply")
	}

	withSecondary := newDetectionRecord()
	withSecondary.DSROK = true
	withSecondary.recordCPR(PositionReply{Row: 1, Col: 1}, false)
	withSecondary.recordSecondaryDA(0, SecondaryDAReply{Kind: 9, Version: 1})
	got2 := resolveFingerprint(withSecondary)
	if got2.Family != "base" {
		t.Fatalf("Family = %q, want base", got2.Family)
	}
	if !got2.Capabilities.Has(ExtendedCharset) {
		t.Error("expected EXTENDED_CHARSET for base with a secondary-DA reply")
	}
}

func baseConnectedRecord() *DetectionRecord {
	r := newDetectionRecord()
	r.DSROK = true
	r.recordCPR(PositionReply{Row: 24, Col: 1}, false)
	r.recordCPR(PositionReply{Row: 24, Col: 1}, true)
	return r
}

func TestResolveFingerprintNamedFamilies(t *testing.T) {
	tests := []struct {
		name       string
		kind       int
		version    int
		tertiary   *string
		wantFamily string
	}{
		{"screen", 83, 30915, nil, "screen"},
		{"tmux", 84, 0, nil, "tmux"},
		{"urxvt", 85, 95, nil, "urxvt"},
		{"terminology", 61, 337, hexID("7e7e5459"), "terminology"},
		{"full featured promise", 61, 0, hexID("ffffffff"), "unknown full featured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := baseConnectedRecord()
			r.recordSecondaryDA(0, SecondaryDAReply{Kind: tt.kind, Version: tt.version})
			r.TertiaryDA = tt.tertiary
			got := resolveFingerprint(r)
			if got.Family != tt.wantFamily {
				t.Errorf("Family = %q, want %q", got.Family, tt.wantFamily)
			}
		})
	}
}

func TestResolveFingerprintXtermVersionGating(t *testing.T) {
	r := baseConnectedRecord()
	r.recordSecondaryDA(0, SecondaryDAReply{Kind: 0, Version: 264})
	got := resolveFingerprint(r)
	if got.Family != "xterm" {
		t.Fatalf("Family = %q, want xterm", got.Family)
	}
	if !got.Capabilities.Has(TitleRestore) {
		t.Error("expected TITLE_RESTORE for xterm >= 264")
	}
	if got.Capabilities.Has(MayTryCursorShapeBar) {
		t.Error("expected no MAY_TRY_CURSOR_SHAPE_BAR for xterm older than 336")
	}

	low := baseConnectedRecord()
	low.recordSecondaryDA(0, SecondaryDAReply{Kind: 0, Version: 100})
	gotLow := resolveFingerprint(low)
	if gotLow.Family != "base" {
		t.Errorf("Family = %q, want base for low kind-0 version", gotLow.Family)
	}
}

func TestResolveFingerprintKonsolePattern(t *testing.T) {
	r := baseConnectedRecord()
	r.recordSecondaryDA(0, SecondaryDAReply{Kind: 0, Version: 115})
	r.DECRQSS = &DECRQSSReply{Fields: []int{3, 1, 1, 112, 112, 1, 0}}
	got := resolveFingerprint(r)
	if got.Family != "konsole" {
		t.Fatalf("Family = %q, want konsole", got.Family)
	}
	if !got.Capabilities.Has(CursorShapeOSC50) {
		t.Error("expected CURSOR_SHAPE_OSC50 for konsole")
	}
	if !got.Capabilities.Has(TrueColorSupported) {
		t.Error("expected TRUECOLOR_SUPPORTED for konsole")
	}
}

func TestResolveFingerprintKittyFlavorDisplaysAsBase(t *testing.T) {
	r := baseConnectedRecord()
	r.recordSecondaryDA(0, SecondaryDAReply{Kind: 1, Version: 1})
	got := resolveFingerprint(r)
	if got.Family != "base" {
		t.Errorf("Family = %q, want base (kitty displays as base)", got.Family)
	}
	if got.Capabilities.Has(TrueColorSupported) {
		t.Error("expected no TRUECOLOR_SUPPORTED without a DECRQSS reply")
	}

	r.DECRQSS = &DECRQSSReply{Fields: []int{1}}
	withRQSS := resolveFingerprint(r)
	if !withRQSS.Capabilities.Has(TrueColorSupported) {
		t.Error("expected TRUECOLOR_SUPPORTED once DECRQSS answers")
	}
}

func TestResolveFingerprintQuirkCharacters(t *testing.T) {
	r := baseConnectedRecord()
	r.recordSecondaryDA(0, SecondaryDAReply{Kind: 0, Version: 264})
	r.TertiaryDA = hexID("7e7e5459")
	got := resolveFingerprint(r)
	if got.Descriptor == "" {
		t.Fatal("expected non-empty descriptor")
	}
	wantTail := "seq:>="
	if got.Descriptor[len(got.Descriptor)-len(wantTail):] != wantTail {
		t.Errorf("descriptor = %q, want suffix %q", got.Descriptor, wantTail)
	}
}

func TestResolveFingerprintToodumbFixedCapabilities(t *testing.T) {
	got := resolveFingerprint(&DetectionRecord{})
	want := []Capability{MayTryCursorShapeBar, TrueColorMaybeSupported, ClearedColoring, SevenBitST}
	if len(got.Capabilities.List()) != len(want) {
		t.Fatalf("capabilities = %v, want exactly %v", got.Capabilities.List(), want)
	}
	for _, c := range want {
		if !got.Capabilities.Has(c) {
			t.Errorf("missing capability %s", c)
		}
	}
}
