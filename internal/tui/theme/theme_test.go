package theme

import "testing"

func TestByNameFallsBackToFlexoki(t *testing.T) {
	if got := ByName("no-such-theme"); got.Name != FlexokiDark.Name {
		t.Errorf("ByName(unknown) = %q, want %q", got.Name, FlexokiDark.Name)
	}
	if got := ByName("tokyo-night"); got.Name != "tokyo-night" {
		t.Errorf("ByName(tokyo-night) = %q", got.Name)
	}
}

func TestEveryThemeDefinesTankRoles(t *testing.T) {
	for _, th := range All {
		if th.History == "" || th.Forecast == "" || th.Reserve == "" {
			t.Errorf("theme %s is missing a tank color role", th.Name)
		}
	}
}

func TestValidAndNames(t *testing.T) {
	names := Names()
	if len(names) != len(All) {
		t.Fatalf("Names() = %v", names)
	}
	for _, n := range names {
		if !Valid(n) {
			t.Errorf("Valid(%q) = false", n)
		}
	}
	if Valid("") {
		t.Error("Valid(\"\") = true")
	}
}

func TestSetActive(t *testing.T) {
	defer SetActive(FlexokiDark.Name)
	SetActive("terminal")
	if Active.Name != "terminal" {
		t.Errorf("Active = %q after SetActive(terminal)", Active.Name)
	}
}

func TestPaletteDerivesRoles(t *testing.T) {
	th := FlexokiDark
	if th.BorderAccent != th.Accent {
		t.Errorf("BorderAccent = %s, want accent %s", th.BorderAccent, th.Accent)
	}
	if th.Reserve != th.Yellow {
		t.Errorf("Reserve = %s, want yellow %s", th.Reserve, th.Yellow)
	}
	if Terminal.BorderAccent != "14" {
		t.Errorf("terminal focus rim = %s, want 14", Terminal.BorderAccent)
	}
}
