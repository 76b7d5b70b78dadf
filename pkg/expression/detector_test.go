package expression

import (
	"testing"
	"time"

	"github.com/Hitanshparikh/Eyegle-Software/pkg/tracking"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func obs(left, right float64) tracking.EyeObservation {
	return tracking.EyeObservation{
		LeftOpenRatio:  left,
		RightOpenRatio: right,
		FaceDetected:   true,
		Confidence:     0.9,
	}
}

// newReadyDetector returns a detector with its baseline warmed up to an
// open ratio of 0.3 per eye, so "closed" means a ratio below 0.06.
func newReadyDetector(t *testing.T) (*Detector, *fakeClock) {
	t.Helper()
	d := NewDetector(DefaultConfig())
	clock := newFakeClock()
	d.now = clock.Now

	for i := 0; i < DefaultConfig().BaselineSamples; i++ {
		if _, ok := d.Observe(obs(0.3, 0.3)); ok {
			t.Fatal("no events expected during baseline warm-up")
		}
	}
	if !d.BaselineReady() {
		t.Fatal("baseline should be established after warm-up")
	}
	return d, clock
}

func TestObserve_ShortCombinedBlink(t *testing.T) {
	d, clock := newReadyDetector(t)

	if _, ok := d.Observe(obs(0.02, 0.02)); ok {
		t.Fatal("closure onset must not classify")
	}
	clock.advance(100 * time.Millisecond)

	state, ok := d.Observe(obs(0.3, 0.3))
	if !ok {
		t.Fatal("release should classify")
	}
	if state.Kind != BlinkBoth {
		t.Fatalf("Kind = %q, want %q", state.Kind, BlinkBoth)
	}
	if state.Duration != 100*time.Millisecond {
		t.Fatalf("Duration = %v, want 100ms", state.Duration)
	}
}

func TestObserve_LongCombinedBlink(t *testing.T) {
	d, clock := newReadyDetector(t)

	d.Observe(obs(0.02, 0.02))
	clock.advance(600 * time.Millisecond)

	state, ok := d.Observe(obs(0.3, 0.3))
	if !ok {
		t.Fatal("release should classify")
	}
	if state.Kind != BlinkBothLong {
		t.Fatalf("Kind = %q, want %q", state.Kind, BlinkBothLong)
	}
	if state.Duration != 600*time.Millisecond {
		t.Fatalf("Duration = %v, want 600ms", state.Duration)
	}
}

func TestObserve_SingleEyeBlink(t *testing.T) {
	tests := []struct {
		name   string
		closed tracking.EyeObservation
		want   Kind
	}{
		{"left wink", obs(0.02, 0.3), BlinkLeft},
		{"right wink", obs(0.3, 0.02), BlinkRight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, clock := newReadyDetector(t)

			d.Observe(tt.closed)
			clock.advance(150 * time.Millisecond)

			state, ok := d.Observe(obs(0.3, 0.3))
			if !ok {
				t.Fatal("release should classify")
			}
			if state.Kind != tt.want {
				t.Fatalf("Kind = %q, want %q", state.Kind, tt.want)
			}
		})
	}
}

func TestObserve_SlowSingleEyeClosureIsIgnored(t *testing.T) {
	d, clock := newReadyDetector(t)

	d.Observe(obs(0.02, 0.3))
	clock.advance(400 * time.Millisecond)

	if _, ok := d.Observe(obs(0.3, 0.3)); ok {
		t.Fatal("closures past the short-blink cutoff must not classify")
	}
}

func TestObserve_CombinedTakesPrecedenceOverSingleEye(t *testing.T) {
	d, clock := newReadyDetector(t)

	// Both eyes close together. Neither per-eye latch may arm, so the
	// release is a combined blink rather than two winks.
	d.Observe(obs(0.02, 0.02))
	clock.advance(100 * time.Millisecond)

	state, ok := d.Observe(obs(0.3, 0.3))
	if !ok {
		t.Fatal("release should classify")
	}
	if state.Kind != BlinkBoth {
		t.Fatalf("Kind = %q, want %q", state.Kind, BlinkBoth)
	}
}

func TestObserve_CooldownSuppressesRetrigger(t *testing.T) {
	d, clock := newReadyDetector(t)

	d.Observe(obs(0.02, 0.02))
	clock.advance(100 * time.Millisecond)
	if _, ok := d.Observe(obs(0.3, 0.3)); !ok {
		t.Fatal("first blink should classify")
	}

	// A second full blink inside the cooldown window is dropped.
	clock.advance(50 * time.Millisecond)
	d.Observe(obs(0.02, 0.02))
	clock.advance(50 * time.Millisecond)
	if _, ok := d.Observe(obs(0.3, 0.3)); ok {
		t.Fatal("blink inside cooldown must be suppressed")
	}

	// After the cooldown elapses events flow again.
	clock.advance(300 * time.Millisecond)
	d.Observe(obs(0.02, 0.02))
	clock.advance(100 * time.Millisecond)
	if _, ok := d.Observe(obs(0.3, 0.3)); !ok {
		t.Fatal("blink after cooldown should classify")
	}
}

func TestObserve_NoFaceClearsCurrent(t *testing.T) {
	d, clock := newReadyDetector(t)

	d.Observe(obs(0.02, 0.02))
	clock.advance(100 * time.Millisecond)
	d.Observe(obs(0.3, 0.3))

	state, ok := d.Observe(tracking.EyeObservation{})
	if ok {
		t.Fatal("no face must not classify")
	}
	if state.Kind != None {
		t.Fatalf("Kind = %q, want %q", state.Kind, None)
	}
}

func TestReset_ClearsBaseline(t *testing.T) {
	d, _ := newReadyDetector(t)

	d.Reset()
	if d.BaselineReady() {
		t.Fatal("reset should clear the baseline")
	}
	if _, ok := d.Observe(obs(0.02, 0.02)); ok {
		t.Fatal("no events before the baseline is re-established")
	}
}
