package lights

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"traffic-lights/types"
)

func TestTowerCommand(t *testing.T) {
	tests := []struct {
		pin  Pin
		on   bool
		want byte
	}{
		{PinRed, true, 0x11},
		{PinRed, false, 0x21},
		{PinYellow, true, 0x12},
		{PinYellow, false, 0x22},
		{PinGreen, true, 0x14},
		{PinGreen, false, 0x24},
		{PinBuzzer, true, 0x18},
		{PinBuzzer, false, 0x28},
	}

	for _, tt := range tests {
		got, ok := towerCommand(tt.pin, tt.on)
		if !ok || got != tt.want {
			t.Errorf("towerCommand(%s, %v) = 0x%02x, %v; want 0x%02x", tt.pin, tt.on, got, ok, tt.want)
		}
	}

	if _, ok := towerCommand(Pin(42), true); ok {
		t.Error("towerCommand should reject unknown pins")
	}
}

func TestSendCommand(t *testing.T) {
	var buf bytes.Buffer
	if err := sendCommand(&buf, cmdGreenOn); err != nil {
		t.Fatalf("sendCommand: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0x14}) {
		t.Errorf("wrote %x, want 14", buf.Bytes())
	}
}

func TestWiring(t *testing.T) {
	board := BoardWiring()
	if got := board.Pins(types.ColorYellow); len(got) != 2 || got[0] != PinRed || got[1] != PinGreen {
		t.Errorf("board yellow pins = %v, want [red green]", got)
	}
	if got := board.Pins(types.ColorRed); len(got) != 1 || got[0] != PinRed {
		t.Errorf("board red pins = %v", got)
	}

	tower := TowerWiring()
	if got := tower.Pins(types.ColorYellow); len(got) != 1 || got[0] != PinYellow {
		t.Errorf("tower yellow pins = %v, want [yellow]", got)
	}

	if _, err := WiringByName("spiral"); err == nil {
		t.Error("WiringByName should reject unknown names")
	}
	if w, err := WiringByName(""); err != nil || len(w.Pins(types.ColorYellow)) != 2 {
		t.Errorf("WiringByName(\"\") = %v, %v; want board wiring", w, err)
	}
}

func TestSetAllContinuesAfterFailure(t *testing.T) {
	m := NewMemory(nil)
	boom := errors.New("boom")
	m.FailPin(PinRed, boom)

	err := SetAll(m, []Pin{PinRed, PinGreen}, true)
	if !errors.Is(err, boom) {
		t.Fatalf("SetAll error = %v, want boom", err)
	}
	if !m.On(PinGreen) {
		t.Error("green should be on despite the red failure")
	}
}

func TestMemoryHistory(t *testing.T) {
	m := NewMemory(nil)
	_ = m.Set(PinRed, true)
	_ = m.Set(PinRed, false)

	h := m.History()
	if len(h) != 2 || !h[0].On || h[1].On || h[0].Pin != PinRed {
		t.Errorf("History() = %+v", h)
	}

	_ = m.Set(PinGreen, true)
	_ = m.Clear()
	if m.On(PinGreen) {
		t.Error("Clear() left green on")
	}
}

func TestSysfsLight(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "usr_led"), 0o755); err != nil {
		t.Fatal(err)
	}
	s := newSysfsLightAt(root, map[Pin]string{PinRed: "usr_led", PinGreen: "missing_led"})

	if err := s.Set(PinRed, true); err != nil {
		t.Fatalf("Set(red): %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "usr_led", "brightness"))
	if err != nil || string(data) != "1" {
		t.Errorf("brightness = %q, %v; want 1", data, err)
	}

	if err := s.Set(PinGreen, true); err == nil {
		t.Error("Set on a missing LED should fail")
	}
	if err := s.Set(PinYellow, true); err == nil {
		t.Error("Set on an unmapped output should fail")
	}
}

func TestParsePin(t *testing.T) {
	for _, p := range []Pin{PinRed, PinGreen, PinYellow, PinBuzzer} {
		got, err := ParsePin(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePin(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParsePin("blue"); err == nil {
		t.Error("ParsePin(blue) should fail")
	}
}
