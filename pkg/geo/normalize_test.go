package geo

import "testing"

func TestTitle(t *testing.T) {
	tc := NewTitleCaser()
	tests := []struct {
		input, want string
	}{
		{"bihar", "Bihar"},
		{"  Bihar ", "Bihar"},
		{"TAMIL NADU", "Tamil Nadu"},
		{"jammu & kashmir", "Jammu & Kashmir"},
		{"andaman and nicobar islands", "Andaman And Nicobar Islands"},
		{"y.s.r. kadapa", "Y.S.R. Kadapa"},
		{"s.a.s nagar (mohali)", "S.A.S Nagar (Mohali)"},
		{"N.C.T. OF DELHI", "N.C.T. Of Delhi"},
		{"o'brien", "O'Brien"},
		{"24 parganas (north)", "24 Parganas (North)"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := tc.Title(tt.input); got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTitle_Idempotent(t *testing.T) {
	tc := NewTitleCaser()
	for _, s := range []string{"west  bengal", "NORTH-EAST delhi", "Jammu And Kashmir",
		"y.s.r. kadapa", "s.a.s nagar (mohali)", "N.C.T. OF DELHI"} {
		once := tc.Title(s)
		if twice := tc.Title(once); twice != once {
			t.Errorf("Title not idempotent for %q: %q -> %q", s, once, twice)
		}
	}
}

func TestSnakeColumn(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{" State ", "state"},
		{"Age 0 5", "age_0_5"},
		{"bio_age_17_", "bio_age_17_"},
	}
	for _, tt := range tests {
		if got := SnakeColumn(tt.input); got != tt.want {
			t.Errorf("SnakeColumn(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"123456", true},
		{"0", true},
		{"", false},
		{"12a", false},
		{"12.0", false},
		{"Bihar", false},
	}
	for _, tt := range tests {
		if got := IsNumeric(tt.input); got != tt.want {
			t.Errorf("IsNumeric(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPincode(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"800001", "800001"},
		{"800001.0", "800001"},
		{"11001", "011001"},
		{"11001.0", "011001"},
		{"", "000000"},
		{"1234567", "000000"},
	}
	for _, tt := range tests {
		got := Pincode(tt.input)
		if got != tt.want {
			t.Errorf("Pincode(%q) = %q, want %q", tt.input, got, tt.want)
		}
		if len(got) != PincodeWidth {
			t.Errorf("Pincode(%q) has width %d", tt.input, len(got))
		}
	}
}
