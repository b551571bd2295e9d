package core

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	satellite "github.com/joshuaferrara/go-satellite"
)

// TLESet is one two-line element set.
type TLESet struct {
	Line1 string
	Line2 string
}

// SeedFromTLEs overwrites the initial states of the first len(sets)
// satellites with SGP4-propagated states at the given epoch. Satellites
// beyond the TLE list keep their generated orbits. It is meant to run
// between construction and the first Step.
//
// go-satellite works in kilometres and an Earth-centred inertial frame;
// we store metres with the origin at the body centre, so positions and
// velocities are scaled by 1000 and used directly.
func SeedFromTLEs(reg *Registry, sets []TLESet, epoch time.Time) error {
	if len(sets) > reg.Count() {
		return fmt.Errorf("%d TLE sets but only %d satellites", len(sets), reg.Count())
	}

	year, month, day := epoch.Date()
	hour, min, sec := epoch.Clock()

	for i, set := range sets {
		sat := satellite.TLEToSat(set.Line1, set.Line2, satellite.GravityWGS72)
		pos, vel := satellite.Propagate(sat, year, int(month), day, hour, min, sec)

		const kmToM = 1000.0
		position := mgl64.Vec3{pos.X * kmToM, pos.Y * kmToM, pos.Z * kmToM}
		velocity := mgl64.Vec3{vel.X * kmToM, vel.Y * kmToM, vel.Z * kmToM}

		if !finite(position) || position.Dot(position) <= reg.body.Radius*reg.body.Radius {
			return fmt.Errorf("TLE set %d propagates below the surface at %s", i, epoch.Format(time.RFC3339))
		}
		reg.SetState(i, position, velocity)
	}
	return nil
}

// LoadTLEFile reads two-line element sets from a file. Element lines
// start with "1 " and "2 "; anything else (satellite names, blanks) is
// skipped, so both bare and named TLE files parse.
func LoadTLEFile(path string) ([]TLESet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sets []TLESet
	var line1 string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "1 "):
			line1 = line
		case strings.HasPrefix(line, "2 "):
			if line1 == "" {
				return nil, fmt.Errorf("TLE line 2 without a preceding line 1 in %s", path)
			}
			sets = append(sets, TLESet{Line1: line1, Line2: line})
			line1 = ""
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if line1 != "" {
		return nil, fmt.Errorf("dangling TLE line 1 at end of %s", path)
	}
	return sets, nil
}
