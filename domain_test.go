package rpigpio

import "testing"

func TestDomains(t *testing.T) {
	t.Run("OperatingModes", func(t *testing.T) {
		got := OperatingModes()
		want := []OperatingMode{ModeBCM, ModeBoard, ModeWiringPi}
		if len(got) != len(want) {
			t.Fatalf("got %v want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("for key [%d] got: %v want: %v", i, got[i], want[i])
			}
		}
	})

	t.Run("PinModes", func(t *testing.T) {
		got := PinModes()
		if len(got) != 7 {
			t.Fatalf("got %d pin modes want 7", len(got))
		}
		for _, pm := range got {
			if !pm.Valid() {
				t.Errorf("pin mode %q not valid", pm)
			}
		}
	})

	t.Run("PinEdges", func(t *testing.T) {
		got := PinEdges()
		if len(got) != 4 {
			t.Fatalf("got %d pin edges want 4", len(got))
		}
		for _, pe := range got {
			if !pe.Valid() {
				t.Errorf("pin edge %q not valid", pe)
			}
		}
	})

	t.Run("accessors return copies", func(t *testing.T) {
		PinModes()[0] = "bogus"
		if PinModes()[0] != PinModeIn {
			t.Error("PinModes is mutable")
		}
	})
}

func TestParseOperatingMode(t *testing.T) {
	tests := map[string]OperatingMode{
		"bcm":      ModeBCM,
		"BCM":      ModeBCM,
		"0":        ModeBCM,
		"board":    ModeBoard,
		"1":        ModeBoard,
		"wiringpi": ModeWiringPi,
		" 2 ":      ModeWiringPi,
	}
	for in, want := range tests {
		got, err := ParseOperatingMode(in)
		if err != nil {
			t.Errorf("ParseOperatingMode(%q) returned err: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseOperatingMode(%q) got %v want %v", in, got, want)
		}
	}

	for _, in := range []string{"", "3", "physical", "-g"} {
		_, err := ParseOperatingMode(in)
		assertErrorIs(t, err, ErrInvalidOperatingMode)
	}
}

func TestParsePinMode(t *testing.T) {
	for _, pm := range PinModes() {
		got, err := ParsePinMode(" " + string(pm) + "\n")
		if err != nil || got != pm {
			t.Errorf("ParsePinMode(%q) returned (%q, %v)", pm, got, err)
		}
	}

	for _, in := range []string{"", " ", "input", "pullup"} {
		_, err := ParsePinMode(in)
		assertErrorIs(t, err, ErrInvalidPinMode)
	}
}

func TestParsePinEdge(t *testing.T) {
	got, err := ParsePinEdge("Falling")
	if err != nil || got != EdgeFalling {
		t.Errorf("ParsePinEdge returned (%q, %v)", got, err)
	}

	_, err = ParsePinEdge("sideways")
	assertErrorIs(t, err, ErrInvalidPinEdge)
}

func TestParsePinValue(t *testing.T) {
	tests := map[string]int{
		"1": 1, "on": 1, "TRUE": 1, "high": 1,
		"0": 0, "off": 0, "false": 0, " low ": 0,
	}
	for in, want := range tests {
		got, err := ParsePinValue(in)
		if err != nil || got != want {
			t.Errorf("ParsePinValue(%q) returned (%d, %v)", in, got, err)
		}
	}

	for _, in := range []string{"", "2", "-1", "toggle"} {
		_, err := ParsePinValue(in)
		assertErrorIs(t, err, ErrInvalidPinValue)
	}
}

func TestParsePin(t *testing.T) {
	got, err := ParsePin("17")
	if err != nil || got != 17 {
		t.Errorf("ParsePin returned (%d, %v)", got, err)
	}

	for _, in := range []string{"", "-1", "x1"} {
		if _, err := ParsePin(in); err == nil {
			t.Errorf("ParsePin(%q) returned nil error", in)
		}
	}
}

func TestOperatingModeString(t *testing.T) {
	if got := OperatingMode(9).String(); got != "OperatingMode(9)" {
		t.Errorf("got %q", got)
	}
	if ModeWiringPi.flag() != "" {
		t.Error("wiringpi mode must not add a flag")
	}
}
