package core

import (
	"testing"
	"time"
)

// ISS sample TLE (also in testdata/iss.tle).
const (
	issTLE1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	issTLE2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

// We don't assert exact orbital values (those belong to go-satellite);
// we check the state lands in a plausible LEO envelope in SI units.
func TestSeedFromTLEs_ProducesLEOState(t *testing.T) {
	reg := NewRegistry(Earth(), 3, DistributionShell, 1)
	epoch := time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)

	before := reg.At(1).Position
	err := SeedFromTLEs(reg, []TLESet{{Line1: issTLE1, Line2: issTLE2}}, epoch)
	if err != nil {
		t.Fatalf("SeedFromTLEs: %v", err)
	}

	sat := reg.At(0)
	if r := sat.Position.Len(); r < 6.6e6 || r > 7.0e6 {
		t.Fatalf("ISS radius = %v m, want LEO range [6.6e6, 7.0e6]", r)
	}
	if v := sat.Velocity.Len(); v < 7.0e3 || v > 8.0e3 {
		t.Fatalf("ISS speed = %v m/s, want [7000, 8000]", v)
	}

	// Satellites beyond the TLE list keep their generated orbits.
	if reg.At(1).Position != before {
		t.Fatal("satellite outside the TLE list was modified")
	}
}

func TestSeedFromTLEs_DifferentEpochsDiffer(t *testing.T) {
	regA := NewRegistry(Earth(), 1, DistributionShell, 1)
	regB := NewRegistry(Earth(), 1, DistributionShell, 1)
	sets := []TLESet{{Line1: issTLE1, Line2: issTLE2}}

	t1 := time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)
	if err := SeedFromTLEs(regA, sets, t1); err != nil {
		t.Fatal(err)
	}
	if err := SeedFromTLEs(regB, sets, t1.Add(5*time.Minute)); err != nil {
		t.Fatal(err)
	}

	if regA.At(0).Position == regB.At(0).Position {
		t.Fatal("expected the propagated position to change over five minutes")
	}
}

func TestSeedFromTLEs_TooManySets(t *testing.T) {
	reg := NewRegistry(Earth(), 1, DistributionShell, 1)
	sets := []TLESet{
		{Line1: issTLE1, Line2: issTLE2},
		{Line1: issTLE1, Line2: issTLE2},
	}
	if err := SeedFromTLEs(reg, sets, time.Now().UTC()); err == nil {
		t.Fatal("expected an error for more TLE sets than satellites")
	}
}

func TestLoadTLEFile_SkipsNameLines(t *testing.T) {
	sets, err := LoadTLEFile("testdata/iss.tle")
	if err != nil {
		t.Fatalf("LoadTLEFile: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("parsed %d TLE sets, want 1", len(sets))
	}
	if sets[0].Line1 != issTLE1 || sets[0].Line2 != issTLE2 {
		t.Fatalf("parsed set does not match file contents: %+v", sets[0])
	}
}

func TestLoadTLEFile_Missing(t *testing.T) {
	if _, err := LoadTLEFile("testdata/does-not-exist.tle"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
