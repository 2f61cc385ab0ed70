package driver

import (
	"math"

	"github.com/samber/lo"

	"racer-ai-core/track"
)

// NoHit marks a ray that reached its full length.
const NoHit VehicleID = -1

// Ray is cast from the middle of the car along Dir.
type Ray struct {
	Angle float64 // radians from the heading, positive to the left
	Dir   track.Vec3
	Dist  float64 // to the first car hit, the ray length when clear
	Hit   VehicleID
}

// footprint is a car's outline on the ground.
type footprint struct {
	id               VehicleID
	center, fwd      track.Vec3
	halfLen, halfWid float64
}

// rayCast returns the distance along the unit vector dir from origin to the
// first footprint, and which car it belongs to. A ray starting inside a
// footprint hits it at 0.
func rayCast(origin, dir track.Vec3, maxLength float64, boxes []footprint) (float64, VehicleID) {
	best, hit := maxLength, NoHit
	for _, b := range boxes {
		left := track.Vec3{X: -b.fwd.Y, Y: b.fwd.X}
		rel := origin.Sub(b.center).Flat()
		o := [2]float64{rel.Dot(b.fwd), rel.Dot(left)}
		d := [2]float64{dir.Dot(b.fwd), dir.Dot(left)}
		half := [2]float64{b.halfLen, b.halfWid}

		tmin, tmax := 0.0, best
		miss := false
		for i := range o {
			if math.Abs(d[i]) < 1e-12 {
				if math.Abs(o[i]) > half[i] {
					miss = true
					break
				}
				continue
			}
			t1, t2 := (-half[i]-o[i])/d[i], (half[i]-o[i])/d[i]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			tmin, tmax = math.Max(tmin, t1), math.Min(tmax, t2)
			if tmin > tmax {
				miss = true
				break
			}
		}
		if !miss && tmin < best {
			best, hit = tmin, b.id
		}
	}
	return best, hit
}

// castRays spreads cfg.RayCount rays over cfg.RayFan degrees around the
// heading and casts them against the other cars, which are taken to have
// this car's size.
func (c *Controller) castRays(self VehicleSnapshot, others []VehicleSnapshot) []Ray {
	n := c.cfg.RayCount
	if n <= 0 {
		return nil
	}
	boxes := make([]footprint, 0, len(others))
	reach := c.cfg.RayLength + c.spec.Length
	for _, o := range others {
		if o.ID == self.ID || !o.Position.IsFinite() || !finite(o.Yaw) {
			continue
		}
		if o.Position.FlatDist(self.Position) > reach {
			continue
		}
		boxes = append(boxes, footprint{
			id:      o.ID,
			center:  o.Position.Flat(),
			fwd:     o.Forward(),
			halfLen: c.spec.Length / 2,
			halfWid: c.spec.Width / 2,
		})
	}

	fan := c.cfg.RayFan * math.Pi / 180
	rays := make([]Ray, n)
	for i := range rays {
		angle := 0.0
		if n > 1 {
			angle = -fan/2 + fan*float64(i)/float64(n-1)
		}
		dir := track.Heading(self.Yaw + angle)
		dist, hit := rayCast(self.Position.Flat(), dir, c.cfg.RayLength, boxes)
		rays[i] = Ray{Angle: angle, Dir: dir, Dist: dist, Hit: hit}
	}
	return rays
}

// ClosestRay returns the shortest ray, or false when rays is empty.
func ClosestRay(rays []Ray) (Ray, bool) {
	if len(rays) == 0 {
		return Ray{}, false
	}
	return lo.MinBy(rays, func(a, b Ray) bool { return a.Dist < b.Dist }), true
}
