package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestAccelerationAt_InverseSquare(t *testing.T) {
	body := Earth()
	pos := mgl64.Vec3{7.0e6, 0, 0}

	acc := body.AccelerationAt(pos)

	wantMag := body.Mu / (7.0e6 * 7.0e6) // ~8.13 m/s²
	if got := acc.Len(); math.Abs(got-wantMag) > 1e-9*wantMag {
		t.Fatalf("|acc| = %v, want %v", got, wantMag)
	}
	// Directed toward the origin: opposite the position vector.
	if acc.X() >= 0 || acc.Y() != 0 || acc.Z() != 0 {
		t.Fatalf("acc = %v, want purely -X", acc)
	}
}

func TestAccelerationAt_DoublingDistanceQuartersMagnitude(t *testing.T) {
	body := Earth()
	near := body.AccelerationAt(mgl64.Vec3{0, 7.0e6, 0}).Len()
	far := body.AccelerationAt(mgl64.Vec3{0, 14.0e6, 0}).Len()
	if ratio := near / far; math.Abs(ratio-4) > 1e-9 {
		t.Fatalf("acceleration ratio at r vs 2r = %v, want 4", ratio)
	}
}

func TestAccelerationAt_OriginPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for position at the body origin")
		}
	}()
	Earth().AccelerationAt(mgl64.Vec3{})
}
