package units

import "testing"

func TestIsValid(t *testing.T) {
	for _, u := range ValidUnits {
		if !IsValid(u) {
			t.Errorf("IsValid(%q) = false", u)
		}
	}
	if IsValid("furlongs") {
		t.Error("IsValid(\"furlongs\") = true")
	}
}

func TestConvertCoordinate(t *testing.T) {
	cases := []struct {
		name  string
		pixel float64
		units string
		scale float64
		want  float64
	}{
		{"pixels passthrough", 12, Pixels, 0.5, 12},
		{"microns", 12, Microns, 0.5, 6},
		{"microns without scale", 12, Microns, 0, 12},
		{"unknown unit", 12, "furlongs", 0.5, 12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ConvertCoordinate(tc.pixel, tc.units, tc.scale); got != tc.want {
				t.Errorf("ConvertCoordinate(%v, %q, %v) = %v, want %v", tc.pixel, tc.units, tc.scale, got, tc.want)
			}
		})
	}
}
