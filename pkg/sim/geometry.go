package sim

import "math"

// Pos2D defines the position in 2D, in centimeters.
type Pos2D struct {
	X, Y float64
}

// Add is a helper to add Pos2D.
func (p Pos2D) Add(p1 Pos2D) Pos2D {
	return Pos2D{X: p.X + p1.X, Y: p.Y + p1.Y}
}

// Sub returns p - p1.
func (p Pos2D) Sub(p1 Pos2D) Pos2D {
	return Pos2D{X: p.X - p1.X, Y: p.Y - p1.Y}
}

// OffsetBy performs Add in-place.
func (p *Pos2D) OffsetBy(p1 Pos2D) *Pos2D {
	p.X += p1.X
	p.Y += p1.Y
	return p
}

// Pose2D defines the pose in 2D.
type Pose2D struct {
	Pos2D
	Orientation Angle
}

// Angle is the common representation of angle, in radians normalized
// to (-Pi, Pi].
type Angle float64

// AngleFromDegrees creates Angle from degrees.
func AngleFromDegrees(d float64) Angle {
	return Angle(normalizeRadians(d * math.Pi / 180.0))
}

// AddRadians adds radians to current angle.
func (a Angle) AddRadians(r float64) Angle {
	return Angle(normalizeRadians(float64(a) + r))
}

// AddDegrees adds degress to current angle.
func (a Angle) AddDegrees(d float64) Angle {
	return a.AddRadians(d * math.Pi / 180.0)
}

// Degrees gets angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

// Project projects distance into X and Y.
func (a Angle) Project(dist float64) Pos2D {
	return Pos2D{X: dist * math.Cos(float64(a)), Y: dist * math.Sin(float64(a))}
}

func normalizeRadians(r float64) float64 {
	if r >= 2*math.Pi || r <= -2*math.Pi {
		r = math.Remainder(r, 2*math.Pi)
	}
	if r > math.Pi {
		r -= 2 * math.Pi
	} else if r < -math.Pi {
		r += 2 * math.Pi
	}
	return r
}

// Segment is a straight obstacle edge.
type Segment struct {
	A, B Pos2D
}

// Cast returns the distance along the ray from origin in direction dir to
// the segment, and whether the ray hits it.
func (s Segment) Cast(origin Pos2D, dir Angle) (float64, bool) {
	d := dir.Project(1)
	e := s.B.Sub(s.A)
	denom := cross(d, e)
	if math.Abs(denom) < 1e-12 {
		return 0, false
	}
	w := s.A.Sub(origin)
	t := cross(w, e) / denom
	u := cross(w, d) / denom
	if t < 0 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

func cross(a, b Pos2D) float64 {
	return a.X*b.Y - a.Y*b.X
}
