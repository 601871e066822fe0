package particle

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLocalMaximaSingleGreatestPixel(t *testing.T) {
	g := mustGrid(t, [][]float64{
		{1, 2, 1, 0},
		{2, 3, 2, 1},
		{1, 9, 1, 0},
		{0, 1, 0, 0},
	})
	for _, window := range []int{3} {
		maxima, err := LocalMaxima(g, window)
		if err != nil {
			t.Fatalf("LocalMaxima window %d: %v", window, err)
		}
		want := []Maximum{{X: 1, Y: 2, Value: 9}}
		if diff := cmp.Diff(want, maxima); diff != "" {
			t.Errorf("window %d maxima mismatch (-want +got):\n%s", window, diff)
		}
	}
}

// Tie policy: a pixel ties only with itself. On a flat grid every pixel
// equals its window max, so every pixel reports, in row-major order.
func TestLocalMaximaFlatGridReportsEveryPixel(t *testing.T) {
	g := mustGrid(t, [][]float64{
		{5, 5},
		{5, 5},
	})
	maxima, err := LocalMaxima(g, 3)
	if err != nil {
		t.Fatalf("LocalMaxima: %v", err)
	}
	want := []Maximum{
		{X: 0, Y: 0, Value: 5},
		{X: 1, Y: 0, Value: 5},
		{X: 0, Y: 1, Value: 5},
		{X: 1, Y: 1, Value: 5},
	}
	if diff := cmp.Diff(want, maxima); diff != "" {
		t.Errorf("flat grid maxima mismatch (-want +got):\n%s", diff)
	}
}

// A border maximum is judged against its clipped window, not rejected for
// having an incomplete one.
func TestLocalMaximaClipsWindowAtBorders(t *testing.T) {
	g := mustGrid(t, [][]float64{
		{7, 1, 0},
		{1, 0, 0},
		{0, 0, 3},
	})
	maxima, err := LocalMaxima(g, 3)
	if err != nil {
		t.Fatalf("LocalMaxima: %v", err)
	}
	want := []Maximum{
		{X: 0, Y: 0, Value: 7},
		{X: 2, Y: 2, Value: 3},
	}
	if diff := cmp.Diff(want, maxima); diff != "" {
		t.Errorf("border maxima mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalMaximaWindowLargerThanGrid(t *testing.T) {
	g := mustGrid(t, [][]float64{
		{1, 2},
		{3, 4},
	})
	maxima, err := LocalMaxima(g, 9)
	if err != nil {
		t.Fatalf("LocalMaxima: %v", err)
	}
	want := []Maximum{{X: 1, Y: 1, Value: 4}}
	if diff := cmp.Diff(want, maxima); diff != "" {
		t.Errorf("oversized window maxima mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalMaximaRejectsBadWindow(t *testing.T) {
	g := mustGrid(t, [][]float64{{1}})
	for _, window := range []int{0, -1, 2, 6} {
		if _, err := LocalMaxima(g, window); !errors.Is(err, ErrInvalidKernel) {
			t.Errorf("window %d error = %v, want ErrInvalidKernel", window, err)
		}
	}
}

// windowSize 1 means no neighbours at all; every pixel is trivially its
// own maximum.
func TestLocalMaximaWindowOne(t *testing.T) {
	g := mustGrid(t, [][]float64{{1, 2, 3}})
	maxima, err := LocalMaxima(g, 1)
	if err != nil {
		t.Fatalf("LocalMaxima: %v", err)
	}
	if len(maxima) != 3 {
		t.Errorf("got %d maxima, want 3", len(maxima))
	}
}
