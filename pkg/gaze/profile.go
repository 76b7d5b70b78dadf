package gaze

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Hitanshparikh/Eyegle-Software/internal/config"
	"github.com/Hitanshparikh/Eyegle-Software/internal/log"
)

// Profile is a persisted calibration: the fitted transform alongside the
// screen geometry it was computed for. A profile without a transform is
// valid and means "uncalibrated".
type Profile struct {
	ID           string           `json:"id"`
	ScreenWidth  int              `json:"screen_width"`
	ScreenHeight int              `json:"screen_height"`
	EyeDominance config.Dominance `json:"eye_dominance"`
	Transform    *Transform       `json:"transform,omitempty"`
	PointCount   int              `json:"point_count"`
}

// NewProfile creates a profile for the given calibration result.
func NewProfile(screenW, screenH int, dominance config.Dominance, t Transform, points int) Profile {
	return Profile{
		ID:           uuid.NewString(),
		ScreenWidth:  screenW,
		ScreenHeight: screenH,
		EyeDominance: dominance,
		Transform:    &t,
		PointCount:   points,
	}
}

// ProfileStore saves and loads named calibration profiles as JSON files
// in a directory.
type ProfileStore struct {
	dir string
}

// NewProfileStore creates a store rooted at dir, creating it if needed.
func NewProfileStore(dir string) (*ProfileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profiles dir: %w", err)
	}
	return &ProfileStore{dir: dir}, nil
}

// Save writes the profile under the given name.
func (s *ProfileStore) Save(name string, p Profile) error {
	if !validProfileName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.WriteFile(s.path(name), data, 0o644); err != nil {
		return fmt.Errorf("write profile %q: %w", name, err)
	}
	log.Info("calibration profile saved", "name", name, "points", p.PointCount)
	return nil
}

// Load reads the named profile and verifies it was calibrated for the
// given screen. A dimension mismatch is a load failure, never silently
// accepted.
func (s *ProfileStore) Load(name string, screenW, screenH int) (Profile, error) {
	if !validProfileName(name) {
		return Profile{}, fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return Profile{}, fmt.Errorf("read profile %q: %w", name, err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("decode profile %q: %w", name, err)
	}

	if p.ScreenWidth != screenW || p.ScreenHeight != screenH {
		return Profile{}, fmt.Errorf("%w: profile %dx%d, screen %dx%d",
			ErrDimensionMismatch, p.ScreenWidth, p.ScreenHeight, screenW, screenH)
	}

	log.Info("calibration profile loaded", "name", name, "points", p.PointCount)
	return p, nil
}

// List returns the available profile names, sorted.
func (s *ProfileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the named profile.
func (s *ProfileStore) Delete(name string) error {
	if !validProfileName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}
	if err := os.Remove(s.path(name)); err != nil {
		return fmt.Errorf("delete profile %q: %w", name, err)
	}
	return nil
}

func (s *ProfileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// validProfileName rejects names that could resolve outside the
// profiles directory. Names arrive from URL route parameters, so path
// syntax of any kind is refused rather than normalized.
func validProfileName(name string) bool {
	if name == "" || name == "." || strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
