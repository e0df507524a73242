package handler

import (
	"testing"

	"github.com/wyrmwatch/core/internal/spatial"
)

func TestClampStepPassesSmallMoves(t *testing.T) {
	from := spatial.Vec3{X: 10, Y: 10, Z: 0}
	to := spatial.Vec3{X: 12, Y: 11, Z: 0}
	if got := clampStep(from, to, maxStepPerPacket); got != to {
		t.Fatalf("clampStep = %+v, want %+v", got, to)
	}
}

func TestClampStepLimitsTeleportJumps(t *testing.T) {
	from := spatial.Vec3{}
	to := spatial.Vec3{X: 1000, Y: 0, Z: 0}
	got := clampStep(from, to, 50)
	if got.X < 49.9 || got.X > 50.1 || got.Y != 0 || got.Z != 0 {
		t.Fatalf("clampStep = %+v, want X close to 50", got)
	}
}

func TestClampStepExactBoundaryIsNotClamped(t *testing.T) {
	from := spatial.Vec3{}
	to := spatial.Vec3{X: 50, Y: 0, Z: 0}
	if got := clampStep(from, to, 50); got != to {
		t.Fatalf("clampStep at boundary = %+v, want %+v", got, to)
	}
}
