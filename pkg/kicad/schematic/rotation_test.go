package schematic

import (
	"strings"
	"testing"
)

func TestRotationCodecBijection(t *testing.T) {
	seen := make(map[ComponentRotation]bool)

	for _, o := range []Orientation{R0, R90, R180, R270} {
		for _, mirrored := range []bool{false, true} {
			m := EncodeRotation(o, mirrored)
			if seen[m] {
				t.Errorf("Matrix %s encodes more than one placement", m)
			}
			seen[m] = true

			gotO, gotMirrored, err := m.Decode()
			if err != nil {
				t.Fatalf("Decode(%s) failed: %v", m, err)
			}
			if gotO != o || gotMirrored != mirrored {
				t.Errorf("Decode(Encode(%s, %v)) = %s, %v", o, mirrored, gotO, gotMirrored)
			}
			if EncodeRotation(gotO, gotMirrored) != m {
				t.Errorf("Encode(Decode(%s)) changed the matrix", m)
			}
		}
	}

	if len(seen) != 8 {
		t.Errorf("Expected 8 distinct matrices, got %d", len(seen))
	}
}

func TestRotationKnownMatrices(t *testing.T) {
	tests := []struct {
		m        ComponentRotation
		o        Orientation
		mirrored bool
	}{
		{ComponentRotation{1, 0, 0, -1}, R0, false},
		{ComponentRotation{0, -1, -1, 0}, R90, false},
		{ComponentRotation{-1, 0, 0, 1}, R180, false},
		{ComponentRotation{0, 1, 1, 0}, R270, false},
		{ComponentRotation{-1, 0, 0, -1}, R0, true},
		{ComponentRotation{0, -1, 1, 0}, R90, true},
	}

	for _, tt := range tests {
		o, mirrored, err := tt.m.Decode()
		if err != nil {
			t.Errorf("Decode(%s) failed: %v", tt.m, err)
			continue
		}
		if o != tt.o || mirrored != tt.mirrored {
			t.Errorf("Decode(%s) = %s %v, want %s %v", tt.m, o, mirrored, tt.o, tt.mirrored)
		}
	}
}

func TestRotationInvalidMatrix(t *testing.T) {
	invalid := []ComponentRotation{
		{0, 0, 0, 0},
		{1, 1, 0, -1},
		{2, 0, 0, -2},
		{1, 0, 0, 0},
	}

	for _, m := range invalid {
		_, _, err := m.Decode()
		if err == nil {
			t.Errorf("Expected error for %s", m)
			continue
		}
		if !strings.Contains(err.Error(), m.String()) {
			t.Errorf("Error should name the raw values %s: %v", m, err)
		}
	}
}

func TestOrientationDegrees(t *testing.T) {
	if R270.Degrees() != 270 || R0.Degrees() != 0 {
		t.Errorf("Unexpected degrees %d %d", R270.Degrees(), R0.Degrees())
	}
}
