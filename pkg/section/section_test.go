package section

import (
	"errors"
	"testing"
)

func TestState_ZeroValueIsNone(t *testing.T) {
	var s State
	if s.HasCategory() || s.HasNumber() {
		t.Fatalf("zero State = %v, want (none, none)", s)
	}
	if got := s.Display(); got != Placeholder {
		t.Fatalf("Display() = %q, want placeholder", got)
	}
}

func TestState_Display(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  string
	}{
		{"empty", State{}, Placeholder},
		{"category only", State{Category: 'C'}, "C"},
		{"category and number", State{Category: 'B', Number: 2}, "B2"},
		{"multi digit", State{Category: 'V', Number: 12}, "V12"},
		{"non ascii", State{Category: 'É', Number: 1}, "É1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Display(); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}
}

// A number set without a category is kept but not displayed.
func TestState_NumberWithoutCategoryIsHidden(t *testing.T) {
	s := State{}.WithNumber(4)
	if s.Number != 4 {
		t.Fatalf("Number = %d, want 4", s.Number)
	}
	if got := s.Display(); got != Placeholder {
		t.Fatalf("Display() = %q, want placeholder", got)
	}
}

func TestState_String(t *testing.T) {
	if got := (State{}).String(); got != "(none, none)" {
		t.Errorf("String() = %q", got)
	}
	if got := (State{Category: 'B', Number: 3}).String(); got != "(B, 3)" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseCategory(t *testing.T) {
	valid := map[string]rune{"A": 'A', "c": 'c', "ü": 'ü'}
	for in, want := range valid {
		got, err := ParseCategory(in)
		if err != nil {
			t.Fatalf("ParseCategory(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseCategory(%q) = %q, want %q", in, got, want)
		}
	}

	for _, in := range []string{"", "AB", " ", "\n", "\xff"} {
		if _, err := ParseCategory(in); !errors.Is(err, ErrInvalidCategory) {
			t.Errorf("ParseCategory(%q) error = %v, want ErrInvalidCategory", in, err)
		}
	}
}

func TestParseNumber(t *testing.T) {
	got, err := ParseNumber("3")
	if err != nil || got != 3 {
		t.Fatalf("ParseNumber(\"3\") = %d, %v", got, err)
	}
	got, err = ParseNumber(" 17 ")
	if err != nil || got != 17 {
		t.Fatalf("ParseNumber(\" 17 \") = %d, %v", got, err)
	}

	for _, in := range []string{"", "0", "-1", "abc", "1.5", "99999999999999999999999"} {
		if _, err := ParseNumber(in); !errors.Is(err, ErrInvalidNumber) {
			t.Errorf("ParseNumber(%q) error = %v, want ErrInvalidNumber", in, err)
		}
	}
}
