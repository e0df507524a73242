package encounter

import (
	"testing"

	"github.com/wyrmwatch/core/internal/spatial"
)

func TestShapeCircleContains(t *testing.T) {
	s := Shape{Kind: ShapeCircle, RadiusU: 10}
	origin := spatial.Vec3{}
	if !s.Contains(origin, spatial.Vec3{X: 5}, 0) {
		t.Fatal("expected point inside radius to be contained")
	}
	if s.Contains(origin, spatial.Vec3{X: 20}, 0) {
		t.Fatal("expected point outside radius to not be contained")
	}
}

func TestShapeDonutExcludesCenter(t *testing.T) {
	s := Shape{Kind: ShapeDonut, RadiusU: 10, InnerRadiusU: 5}
	origin := spatial.Vec3{}
	if s.Contains(origin, spatial.Vec3{X: 2}, 0) {
		t.Fatal("expected inner-radius point to be excluded")
	}
	if !s.Contains(origin, spatial.Vec3{X: 7}, 0) {
		t.Fatal("expected mid-band point to be contained")
	}
}

func TestShapeConeRespectsAngleAndLength(t *testing.T) {
	s := Shape{Kind: ShapeCone, AngleDeg: 90, LengthU: 10}
	origin := spatial.Vec3{}
	if !s.Contains(origin, spatial.Vec3{X: 5}, 0) {
		t.Fatal("expected point directly ahead to be contained")
	}
	if s.Contains(origin, spatial.Vec3{X: -5}, 0) {
		t.Fatal("expected point behind the cone to be excluded")
	}
	if s.Contains(origin, spatial.Vec3{X: 20}, 0) {
		t.Fatal("expected point beyond length to be excluded")
	}
}

func TestShapeRoomWideAlwaysContains(t *testing.T) {
	s := Shape{Kind: ShapeRoomWide}
	if !s.Contains(spatial.Vec3{}, spatial.Vec3{X: 9999, Y: -9999}, 0) {
		t.Fatal("expected room_wide to contain any point")
	}
}
