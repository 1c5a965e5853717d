package navmesh

import (
	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/math32"
)

// Pure 2D-on-XZ / 3D geometry primitives the query layer depends on.
// None of these keep scratch state in package-level variables: all
// scratch storage is local to the call (randomPointInConvexPoly, for
// one, allocates its area buffer per call) (spec §4.2, §9: "never
// globals").

// triArea2D returns the signed XZ area of triangle (a, b, c). Its sign is
// used by the funnel algorithm and by point-in-triangle tests.
func triArea2D(a, b, c d3.Vec3) float32 {
	abx := b[0] - a[0]
	abz := b[2] - a[2]
	acx := c[0] - a[0]
	acz := c[2] - a[2]
	return abx*acz - acx*abz
}

// closestPtSeg2D projects p onto segment ab in XZ, clamping t to [0,1].
// The result's Y is copied from a, never interpolated.
func closestPtSeg2D(p, a, b d3.Vec3) d3.Vec3 {
	t := closestPtSeg2DParam(p, a, b)
	return d3.Vec3{
		a[0] + (b[0]-a[0])*t,
		a[1],
		a[2] + (b[2]-a[2])*t,
	}
}

func closestPtSeg2DParam(p, a, b d3.Vec3) float32 {
	abx := b[0] - a[0]
	abz := b[2] - a[2]
	t := (abx*(p[0]-a[0]) + abz*(p[2]-a[2]))
	d := abx*abx + abz*abz
	if d > 0 {
		t /= d
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t
}

// distancePtSeg2DSqr returns the squared XZ distance from p to the
// clamped projection of p onto segment ab.
func distancePtSeg2DSqr(p, a, b d3.Vec3) float32 {
	c := closestPtSeg2D(p, a, b)
	dx := p[0] - c[0]
	dz := p[2] - c[2]
	return dx*dx + dz*dz
}

// pointInPoly runs the standard even-odd ray test against p in XZ.
func pointInPoly(verts []d3.Vec3, p d3.Vec3) bool {
	n := len(verts)
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi := verts[i]
		vj := verts[j]
		if ((vi[2] > p[2]) != (vj[2] > p[2])) &&
			(p[0] < (vj[0]-vi[0])*(p[2]-vi[2])/(vj[2]-vi[2])+vi[0]) {
			inside = !inside
		}
		j = i
	}
	return inside
}

// getHeightAtPoint returns the barycentric-interpolated Y of triangle
// (v0,v1,v2) at (p.x, p.z), and false when the denominator is near zero
// or any barycentric coordinate is negative ("no height").
func getHeightAtPoint(p, v0, v1, v2 d3.Vec3) (float32, bool) {
	const eps = 1e-4

	v0v2 := d3.Vec3{v2[0] - v0[0], 0, v2[2] - v0[2]}
	v0v1 := d3.Vec3{v1[0] - v0[0], 0, v1[2] - v0[2]}
	v0p := d3.Vec3{p[0] - v0[0], 0, p[2] - v0[2]}

	dot00 := v0v2.Dot2D(v0v2)
	dot01 := v0v2.Dot2D(v0v1)
	dot02 := v0v2.Dot2D(v0p)
	dot11 := v0v1.Dot2D(v0v1)
	dot12 := v0v1.Dot2D(v0p)

	denom := dot00*dot11 - dot01*dot01
	if math32.Abs(denom) < eps {
		return 0, false
	}

	invDenom := 1.0 / denom
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	if u < -eps || v < -eps || u+v > 1+eps {
		return 0, false
	}
	return v0[1] + (v2[1]-v0[1])*u + (v1[1]-v0[1])*v, true
}

// circumCircle returns the XZ circumscribed circle of a, b, c. success is
// false when the three points are near-collinear.
func circumCircle(a, b, c d3.Vec3) (center d3.Vec3, radius float32, ok bool) {
	const eps = 1e-6

	cp := triArea2D(a, b, c)
	if math32.Abs(cp) <= eps {
		return d3.Vec3{}, 0, false
	}

	ax := a[0]
	az := a[2]
	bx := b[0] - ax
	bz := b[2] - az
	cx := c[0] - ax
	cz := c[2] - az

	d := 2 * (bx*cz - bz*cx)
	if math32.Abs(d) <= eps {
		return d3.Vec3{}, 0, false
	}

	bb := bx*bx + bz*bz
	cc := cx*cx + cz*cz

	ux := (cz*bb - bz*cc) / d
	uz := (bx*cc - cx*bb) / d

	center = d3.Vec3{ax + ux, a[1], az + uz}
	radius = math32.Sqrt(ux*ux + uz*uz)
	return center, radius, true
}

// intersectSegSeg2D computes the XZ intersection of segments ab and cd.
// hit is true iff both resulting parameters s, t lie in [0,1]; a
// denominator below 1e-12 is treated as no hit (spec §4.2).
func intersectSegSeg2D(a, b, c, d d3.Vec3) (s, t float32, hit bool) {
	u := d3.Vec3{b[0] - a[0], 0, b[2] - a[2]}
	v := d3.Vec3{d[0] - c[0], 0, d[2] - c[2]}
	w := d3.Vec3{a[0] - c[0], 0, a[2] - c[2]}

	denom := u.Perp2D(v)
	if math32.Abs(denom) < 1e-12 {
		return 0, 0, false
	}

	s = v.Perp2D(w) / denom
	t = u.Perp2D(w) / denom
	hit = s >= 0 && s <= 1 && t >= 0 && t <= 1
	return s, t, hit
}

// intersectSegmentPoly2D clips segment (p0,p1) against convex polygon
// verts using Cyrus-Beck-style clipping. A segment fully inside the
// polygon yields tmin=0, tmax=1, segMax=-1. segMin/segMax are the
// polygon-edge indices where the segment enters/leaves.
func intersectSegmentPoly2D(p0, p1 d3.Vec3, verts []d3.Vec3) (tmin, tmax float32, segMin, segMax int, hit bool) {
	const epsilon = 1e-7

	tmin = 0
	tmax = 1
	segMin = -1
	segMax = -1

	dx := p1[0] - p0[0]
	dz := p1[2] - p0[2]

	n := len(verts)
	for i := 0; i < n; i++ {
		j := (i + n - 1) % n
		vi := verts[i]
		vj := verts[j]

		edx := vi[0] - vj[0]
		edz := vi[2] - vj[2]
		diffx := p0[0] - vj[0]
		diffz := p0[2] - vj[2]

		nnum := edz*diffx - edx*diffz
		nden := edz*dx - edx*dz

		if math32.Abs(nden) < epsilon {
			// segment parallel to this edge: reject if outside half-plane.
			if nnum > 0 {
				return 0, 0, -1, -1, false
			}
			continue
		}

		t := -nnum / nden
		if nden < 0 {
			if t > tmin {
				tmin = t
				segMin = j
			}
		} else {
			if t < tmax {
				tmax = t
				segMax = j
			}
		}
		if tmin > tmax {
			return 0, 0, -1, -1, false
		}
	}
	return tmin, tmax, segMin, segMax, true
}

// randomPointInConvexPoly fan-triangulates verts, selects a triangle by
// area-weighted reservoir sampling using s, then picks a uniform point in
// that triangle using t via the sqrt trick. Degenerate triangles are
// floored at area ~= 0.001 so they cannot starve the reservoir.
func randomPointInConvexPoly(verts []d3.Vec3, s, t float32) d3.Vec3 {
	const minTriArea = 0.001

	n := len(verts)
	areas := make([]float32, n)
	var areasum float32
	for i := 2; i < n; i++ {
		area := triArea2D(verts[0], verts[i-1], verts[i])
		areas[i] = area
		if area < minTriArea {
			area = minTriArea
		}
		areasum += area
	}

	// Reservoir-select the fan triangle weighted by area; u ends up the
	// within-triangle barycentric weight toward vertex c.
	thr := s * areasum
	var acc float32
	u := float32(1)
	tri := n - 1
	for i := 2; i < n; i++ {
		dacc := areas[i]
		if dacc < minTriArea {
			dacc = minTriArea
		}
		if thr >= acc && thr < acc+dacc {
			u = (thr - acc) / dacc
			tri = i
			break
		}
		acc += dacc
	}

	v := math32.Sqrt(t)
	a := 1 - v
	b := (1 - u) * v
	c := u * v

	pa := verts[0]
	pb := verts[tri-1]
	pc := verts[tri]

	return d3.Vec3{
		a*pa[0] + b*pb[0] + c*pc[0],
		a*pa[1] + b*pb[1] + c*pc[1],
		a*pa[2] + b*pb[2] + c*pc[2],
	}
}

// intersectsTriangle3 is the Akenine-Moller separating-axis test between
// triangle (v0,v1,v2) and the AABB [boxMin,boxMax]: 9 edge-cross axes, 3
// box face normals, 1 triangle normal. Degenerate (zero-length) axes are
// skipped.
func intersectsTriangle3(v0, v1, v2, boxMin, boxMax d3.Vec3) bool {
	center := d3.Vec3{
		(boxMin[0] + boxMax[0]) * 0.5,
		(boxMin[1] + boxMax[1]) * 0.5,
		(boxMin[2] + boxMax[2]) * 0.5,
	}
	half := d3.Vec3{
		(boxMax[0] - boxMin[0]) * 0.5,
		(boxMax[1] - boxMin[1]) * 0.5,
		(boxMax[2] - boxMin[2]) * 0.5,
	}

	t0 := d3.Vec3{v0[0] - center[0], v0[1] - center[1], v0[2] - center[2]}
	t1 := d3.Vec3{v1[0] - center[0], v1[1] - center[1], v1[2] - center[2]}
	t2 := d3.Vec3{v2[0] - center[0], v2[1] - center[1], v2[2] - center[2]}

	e0 := d3.Vec3{t1[0] - t0[0], t1[1] - t0[1], t1[2] - t0[2]}
	e1 := d3.Vec3{t2[0] - t1[0], t2[1] - t1[1], t2[2] - t1[2]}
	e2 := d3.Vec3{t0[0] - t2[0], t0[1] - t2[1], t0[2] - t2[2]}

	axes := [3]d3.Vec3{}
	edges := [3]d3.Vec3{e0, e1, e2}
	for _, edge := range edges {
		axes[0] = d3.Vec3{0, -edge[2], edge[1]}
		axes[1] = d3.Vec3{edge[2], 0, -edge[0]}
		axes[2] = d3.Vec3{-edge[1], edge[0], 0}
		for _, ax := range axes {
			if ax.LenSqr() < 1e-12 {
				continue
			}
			if !overlapOnAxis(ax, t0, t1, t2, half) {
				return false
			}
		}
	}

	// 3 box face normals: AABB test on each axis independently.
	for axis := 0; axis < 3; axis++ {
		mn := math32.Min(t0[axis], math32.Min(t1[axis], t2[axis]))
		mx := math32.Max(t0[axis], math32.Max(t1[axis], t2[axis]))
		if mn > half[axis] || mx < -half[axis] {
			return false
		}
	}

	// triangle normal.
	normal := e0.Cross(e1)
	if normal.LenSqr() > 1e-12 {
		if !overlapOnAxis(normal, t0, t1, t2, half) {
			return false
		}
	}
	return true
}

func overlapOnAxis(axis, t0, t1, t2, half d3.Vec3) bool {
	p0 := t0.Dot(axis)
	p1 := t1.Dot(axis)
	p2 := t2.Dot(axis)
	mn := math32.Min(p0, math32.Min(p1, p2))
	mx := math32.Max(p0, math32.Max(p1, p2))

	r := half[0]*math32.Abs(axis[0]) + half[1]*math32.Abs(axis[1]) + half[2]*math32.Abs(axis[2])
	return !(mn > r || mx < -r)
}
