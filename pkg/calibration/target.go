// Package calibration drives the calibration workflow: target
// generation, dwell-gated sample collection, and the session state
// machine that hands a completed sample set to the solver.
package calibration

import (
	"time"

	"github.com/Hitanshparikh/Eyegle-Software/pkg/gaze"
)

// Target is one calibration point on screen. Exactly one target is
// active at a time; only the owning session mutates it.
type Target struct {
	Position         gaze.ScreenPoint
	Dwell            time.Duration
	SamplesCollected int
	Completed        bool
}

// GenerateTargets lays out calibration targets in screen space: a 3x3
// grid for 9 points, or the grid corners plus center for 5. The margin
// is a fraction of each screen dimension kept clear at the edges.
func GenerateTargets(points, screenW, screenH int, margin float64, dwell time.Duration) []Target {
	marginX := float64(screenW) * margin
	marginY := float64(screenH) * margin

	grid := make([]Target, 0, 9)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			grid = append(grid, Target{
				Position: gaze.ScreenPoint{
					X: marginX + float64(col)*(float64(screenW)-2*marginX)/2,
					Y: marginY + float64(row)*(float64(screenH)-2*marginY)/2,
				},
				Dwell: dwell,
			})
		}
	}

	if points == 5 {
		// Corners plus center.
		picked := make([]Target, 0, 5)
		for _, i := range []int{0, 2, 4, 6, 8} {
			picked = append(picked, grid[i])
		}
		return picked
	}
	return grid
}
