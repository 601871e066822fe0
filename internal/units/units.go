// Package units provides shared constants and conversion for coordinate
// units in exported candidate tables.
package units

// Unit constants
const (
	Pixels  = "px"
	Microns = "um"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Pixels, Microns}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "px, um"
}

// ConvertCoordinate converts a pixel coordinate to the target units.
// Candidate tables store coordinates in pixels; micronsPerPixel is the
// physical scale of the instrument. An unknown unit or a non-positive
// scale falls back to pixels.
func ConvertCoordinate(pixel float64, targetUnits string, micronsPerPixel float64) float64 {
	switch targetUnits {
	case Microns:
		if micronsPerPixel <= 0 {
			return pixel
		}
		return pixel * micronsPerPixel
	case Pixels:
		return pixel
	default:
		return pixel
	}
}
