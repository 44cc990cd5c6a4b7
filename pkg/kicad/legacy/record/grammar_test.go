package record

import (
	"testing"
)

func TestParseComponentField(t *testing.T) {
	f, err := ParseComponentField(`F 4 "0805" H 2650 1150 50  0001 C CNN "Size"` + "\n")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	if f.Index != "4" {
		t.Errorf("Expected index '4', got '%s'", f.Index)
	}
	if Unquote(f.Text) != "0805" {
		t.Errorf("Expected text '0805', got '%s'", f.Text)
	}
	if f.Orientation != "H" {
		t.Errorf("Expected orientation 'H', got '%s'", f.Orientation)
	}
	if f.X != "2650" || f.Y != "1150" || f.Size != "50" {
		t.Errorf("Unexpected geometry %s %s %s", f.X, f.Y, f.Size)
	}
	if f.Flags != "0001" {
		t.Errorf("Expected flags '0001', got '%s'", f.Flags)
	}
	if f.HJustify != "C" || f.Style != "CNN" {
		t.Errorf("Expected justify 'C CNN', got '%s %s'", f.HJustify, f.Style)
	}
	if f.Name == nil || Unquote(*f.Name) != "Size" {
		t.Errorf("Expected name 'Size', got %v", f.Name)
	}
}

func TestParseComponentFieldNegativeAndShort(t *testing.T) {
	f, err := ParseComponentField(`F 0 "#PWR01" H -250 -100 50  0001 C CNN`)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if f.X != "-250" || f.Y != "-100" {
		t.Errorf("Expected -250 -100, got %s %s", f.X, f.Y)
	}
	if f.Name != nil {
		t.Errorf("Expected no name, got %q", *f.Name)
	}
}

func TestParseComponentFieldInvalid(t *testing.T) {
	inputs := []string{
		`F "R1" H 1 2 50 0000 C CNN`,
		`F 0 R1 H 1 2 50 0000 C CNN`,
		`F 0 "R1" X 1 2 50 0000 C CNN`,
		`F 0 "R1" H 1`,
	}
	for _, in := range inputs {
		if _, err := ParseComponentField(in); err == nil {
			t.Errorf("Expected error for %q", in)
		}
	}
}

func TestParseSheetField(t *testing.T) {
	f, err := ParseSheetField(`F1 "power.sch" 60`)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if n, _ := f.Number(); n != 1 {
		t.Errorf("Expected number 1, got %d", n)
	}
	if f.Label != nil {
		t.Error("F1 should not carry a label")
	}

	f, err = ParseSheetField(`F2 "VCC" O R 7000 3200 60 `)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if n, _ := f.Number(); n != 2 {
		t.Errorf("Expected number 2, got %d", n)
	}
	if f.Label == nil {
		t.Fatal("Expected label part")
	}
	if f.Label.Form != "O" || f.Label.Side != "R" {
		t.Errorf("Expected O R, got %s %s", f.Label.Form, f.Label.Side)
	}
	if f.Label.X != "7000" || f.Label.Y != "3200" || f.Size != "60" {
		t.Errorf("Unexpected geometry %s %s %s", f.Label.X, f.Label.Y, f.Size)
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	for _, s := range []string{"", "10k", `say "hi"`, `C:\parts\r.pdf`, "~"} {
		if got := Unquote(Quote(s)); got != s {
			t.Errorf("Unquote(Quote(%q)) = %q", s, got)
		}
	}
}

func TestInts(t *testing.T) {
	v, err := Ints("1", "-2", "0030")
	if err != nil {
		t.Fatalf("Ints failed: %v", err)
	}
	if v[0] != 1 || v[1] != -2 || v[2] != 30 {
		t.Errorf("Unexpected values %v", v)
	}
	if _, err := Ints("1", "x"); err == nil {
		t.Error("Expected error for non-integer")
	}
}
