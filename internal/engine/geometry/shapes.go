package geometry

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/veri/pkg/math"
)

// Sphere returns a UV sphere centred on the origin. u runs around the
// vertical axis starting at -X, v runs from 1 at the north pole to 0 at the
// south pole.
func Sphere(radius float32, widthSegments, heightSegments int) *Mesh {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}

	m := &Mesh{}
	grid := make([][]uint32, heightSegments+1)
	var index uint32

	for iy := 0; iy <= heightSegments; iy++ {
		v := float32(iy) / float32(heightSegments)
		row := make([]uint32, widthSegments+1)

		// keep the poles' u centred on their segment
		uOffset := float32(0)
		if iy == 0 {
			uOffset = 0.5 / float32(widthSegments)
		} else if iy == heightSegments {
			uOffset = -0.5 / float32(widthSegments)
		}

		for ix := 0; ix <= widthSegments; ix++ {
			u := float32(ix) / float32(widthSegments)
			phi := u * 2 * math32.Pi
			theta := v * math32.Pi

			p := math.Vec3{
				X: -radius * math32.Cos(phi) * math32.Sin(theta),
				Y: radius * math32.Cos(theta),
				Z: radius * math32.Sin(phi) * math32.Sin(theta),
			}
			m.push(p, p.Normalize(), u+uOffset, 1-v)
			row[ix] = index
			index++
		}
		grid[iy] = row
	}

	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			if iy != 0 {
				m.face(a, b, d)
			}
			if iy != heightSegments-1 {
				m.face(b, c, d)
			}
		}
	}
	return m
}

// Plane returns a width x height rectangle in the XY plane facing +Z with
// v = 1 along the top edge.
func Plane(width, height float32, widthSegments, heightSegments int) *Mesh {
	if widthSegments < 1 {
		widthSegments = 1
	}
	if heightSegments < 1 {
		heightSegments = 1
	}

	m := &Mesh{}
	segW := width / float32(widthSegments)
	segH := height / float32(heightSegments)
	cols := uint32(widthSegments + 1)

	for iy := 0; iy <= heightSegments; iy++ {
		y := float32(iy)*segH - height/2
		for ix := 0; ix <= widthSegments; ix++ {
			x := float32(ix)*segW - width/2
			m.push(math.Vec3{X: x, Y: -y}, math.UnitZ,
				float32(ix)/float32(widthSegments), 1-float32(iy)/float32(heightSegments))
		}
	}

	for iy := uint32(0); iy < uint32(heightSegments); iy++ {
		for ix := uint32(0); ix < uint32(widthSegments); ix++ {
			a := ix + cols*iy
			b := ix + cols*(iy+1)
			c := ix + 1 + cols*(iy+1)
			d := ix + 1 + cols*iy
			m.face(a, b, d)
			m.face(b, c, d)
		}
	}
	return m
}

// Ring returns a flat annulus (or arc of one) in the XY plane facing +Z.
// thetaStart and thetaLength are in radians, measured from +X.
func Ring(innerRadius, outerRadius float32, thetaSegments, phiSegments int, thetaStart, thetaLength float32) *Mesh {
	if thetaSegments < 3 {
		thetaSegments = 3
	}
	if phiSegments < 1 {
		phiSegments = 1
	}

	m := &Mesh{}
	radius := innerRadius
	step := (outerRadius - innerRadius) / float32(phiSegments)

	for j := 0; j <= phiSegments; j++ {
		for i := 0; i <= thetaSegments; i++ {
			segment := thetaStart + float32(i)/float32(thetaSegments)*thetaLength
			p := math.Vec3{X: radius * math32.Cos(segment), Y: radius * math32.Sin(segment)}
			m.push(p, math.UnitZ, (p.X/outerRadius+1)/2, (p.Y/outerRadius+1)/2)
		}
		radius += step
	}

	stride := uint32(thetaSegments + 1)
	for j := uint32(0); j < uint32(phiSegments); j++ {
		level := j * stride
		for i := uint32(0); i < uint32(thetaSegments); i++ {
			seg := i + level
			a := seg
			b := seg + stride
			c := seg + stride + 1
			d := seg + 1
			m.face(a, b, d)
			m.face(b, c, d)
		}
	}
	return m
}
