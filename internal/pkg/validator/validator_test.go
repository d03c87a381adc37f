package validator

import (
	"testing"
	"time"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsEmptyPtr(t *testing.T) {
	blank := "  "
	value := "x"
	if !IsEmptyPtr(nil) {
		t.Errorf("IsEmptyPtr(nil) = false, want true")
	}
	if !IsEmptyPtr(&blank) {
		t.Errorf("IsEmptyPtr(blank) = false, want true")
	}
	if IsEmptyPtr(&value) {
		t.Errorf("IsEmptyPtr(%q) = true, want false", value)
	}
}

func TestIsLengthBetween(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"123456789", false},
		{"1234567890", true},
		{"esqueci-me", true},
		{"não marquei", true},
		{string(make([]rune, 256)), false},
	}
	for _, c := range cases {
		got := IsLengthBetween(c.input, 10, 255)
		if got != c.want {
			t.Errorf("IsLengthBetween(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31"}
	invalid := []string{"2023-13-01", "2023-01-32", "2023/01/01", "01-01-2023", ""}
	for _, s := range valid {
		_, ok := IsValidDate(s)
		if !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		_, ok := IsValidDate(s)
		if ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestIsInSlice(t *testing.T) {
	slice := []string{"a", "b", "c"}
	if !IsInSlice("a", slice) {
		t.Errorf("IsInSlice('a') = false, want true")
	}
	if IsInSlice("d", slice) {
		t.Errorf("IsInSlice('d') = true, want false")
	}
}

func TestIsValidCoordinates(t *testing.T) {
	if !IsValidLatitude(38.72) || IsValidLatitude(91) {
		t.Errorf("IsValidLatitude mismatch")
	}
	if !IsValidLongitude(-9.14) || IsValidLongitude(-181) {
		t.Errorf("IsValidLongitude mismatch")
	}
}

func TestParseDateTimeIn(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Lisbon")
	if err != nil {
		t.Skip("tzdata not available")
	}

	valid := map[string]time.Time{
		"2024-01-01T07:00:00":       time.Date(2024, 1, 1, 7, 0, 0, 0, loc),
		"2024-01-01T07:00":          time.Date(2024, 1, 1, 7, 0, 0, 0, loc),
		"2024-01-01 07:00:00":       time.Date(2024, 1, 1, 7, 0, 0, 0, loc),
		"2024-01-01T07:00:00Z":      time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC),
		"2024-01-01T07:00:00+01:00": time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC),
	}
	for input, want := range valid {
		got, ok := ParseDateTimeIn(input, loc)
		if !ok {
			t.Errorf("ParseDateTimeIn(%q) failed", input)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDateTimeIn(%q) = %v, want %v", input, got, want)
		}
	}

	invalid := []string{"", "ontem", "2024-13-01T07:00:00", "07:00"}
	for _, input := range invalid {
		if _, ok := ParseDateTimeIn(input, loc); ok {
			t.Errorf("ParseDateTimeIn(%q) = ok, want failure", input)
		}
	}
}

func TestParseClockTime(t *testing.T) {
	got, ok := ParseClockTime("07:30")
	if !ok || got.Hour() != 7 || got.Minute() != 30 {
		t.Errorf("ParseClockTime(07:30) = %v, %v", got, ok)
	}
	got, ok = ParseClockTime("17:05:09")
	if !ok || got.Second() != 9 {
		t.Errorf("ParseClockTime(17:05:09) = %v, %v", got, ok)
	}
	if _, ok := ParseClockTime("25:00"); ok {
		t.Errorf("ParseClockTime(25:00) = ok, want failure")
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "motivo", Message: "invalid"},
		{Field: "empresa", Message: "required"},
	}
	got := errs.Error()
	want := "motivo: invalid; empresa: required"
	if got != want {
		t.Errorf("ValidationErrors.Error() = %q, want %q", got, want)
	}
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "motivo", Message: "invalid"},
		{Field: "empresa", Message: "required"},
	}
	got := errs.ToMap()
	want := map[string]string{"motivo": "invalid", "empresa": "required"}
	if len(got) != len(want) {
		t.Errorf("ValidationErrors.ToMap() length = %d, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ValidationErrors.ToMap()[%q] = %q, want %q", k, got[k], v)
		}
	}
}
