package core

import "math"

// Detector finds satellites that sit within a threshold distance of at
// least one other satellite. Each Scan evaluates current positions only;
// nothing carries over between frames.
//
// Candidate pairs come from a uniform hash grid with cell size equal to
// the threshold, so any qualifying pair is in the same or an adjacent
// cell and expected cost is near O(N) for a roughly uniform spread of
// satellites. The grid's buckets are reused across Scans to avoid
// reallocating thousands of small slices per second.
//
// A Detector is not safe for concurrent Scans.
type Detector struct {
	// Threshold is the warning distance in metres. Pairs strictly closer
	// than it are flagged.
	Threshold float64

	cells   map[uint64][]int32
	coords  [][3]int32
	flagged []bool
	result  []int
}

// NewDetector returns a detector with the given threshold distance in
// metres. The threshold is fixed at construction.
func NewDetector(threshold float64) *Detector {
	return &Detector{
		Threshold: threshold,
		cells:     make(map[uint64][]int32),
	}
}

// forwardNeighbors is the half-neighborhood of a grid cell: the 13 of
// its 26 adjacent cells that are strictly "ahead" in (x, y, z)
// lexicographic order. Enumerating only these visits every cross-cell
// pair exactly once.
var forwardNeighbors = [13][3]int32{
	{1, -1, -1}, {1, -1, 0}, {1, -1, 1},
	{1, 0, -1}, {1, 0, 0}, {1, 0, 1},
	{1, 1, -1}, {1, 1, 0}, {1, 1, 1},
	{0, 1, -1}, {0, 1, 0}, {0, 1, 1},
	{0, 0, 1},
}

// cellKey packs three signed cell coordinates into one map key, 21 bits
// each. Coordinates that overflow 21 bits wrap around; a wrap can only
// merge distant cells into one bucket, adding candidates that the exact
// distance check then rejects, so correctness is unaffected.
func cellKey(ix, iy, iz int32) uint64 {
	const mask = 1<<21 - 1
	return (uint64(uint32(ix))&mask)<<42 |
		(uint64(uint32(iy))&mask)<<21 |
		uint64(uint32(iz))&mask
}

// Scan returns the IDs of all satellites strictly closer than Threshold
// to at least one other satellite, sorted ascending with no duplicates.
// The result is canonical: it does not depend on iteration order.
//
// The returned slice is reused by the next Scan; callers that need to
// retain it must copy.
func (d *Detector) Scan(reg *Registry) []int {
	n := reg.Count()

	if cap(d.flagged) < n {
		d.flagged = make([]bool, n)
		d.coords = make([][3]int32, n)
	}
	d.flagged = d.flagged[:n]
	d.coords = d.coords[:n]
	for i := range d.flagged {
		d.flagged[i] = false
	}
	for key, bucket := range d.cells {
		d.cells[key] = bucket[:0]
	}

	// Bucket every satellite. Inert satellites participate: a body
	// parked on the surface is still something to warn about being
	// close to.
	inv := 1 / d.Threshold
	for i := 0; i < n; i++ {
		pos := reg.sats[i].Position
		ix := int32(math.Floor(pos.X() * inv))
		iy := int32(math.Floor(pos.Y() * inv))
		iz := int32(math.Floor(pos.Z() * inv))
		d.coords[i] = [3]int32{ix, iy, iz}
		key := cellKey(ix, iy, iz)
		d.cells[key] = append(d.cells[key], int32(i))
	}

	thresholdSq := d.Threshold * d.Threshold
	for i := 0; i < n; i++ {
		c := d.coords[i]

		// Same-cell pairs: only indices after i, so each pair is
		// examined once.
		for _, j := range d.cells[cellKey(c[0], c[1], c[2])] {
			if int(j) > i {
				d.checkPair(reg, i, int(j), thresholdSq)
			}
		}

		// Cross-cell pairs via the forward half-neighborhood.
		for _, off := range forwardNeighbors {
			bucket, ok := d.cells[cellKey(c[0]+off[0], c[1]+off[1], c[2]+off[2])]
			if !ok {
				continue
			}
			for _, j := range bucket {
				d.checkPair(reg, i, int(j), thresholdSq)
			}
		}
	}

	d.result = d.result[:0]
	for i, hit := range d.flagged {
		if hit {
			d.result = append(d.result, i)
		}
	}
	return d.result
}

func (d *Detector) checkPair(reg *Registry, i, j int, thresholdSq float64) {
	if DistanceSq(reg.sats[i].Position, reg.sats[j].Position) < thresholdSq {
		d.flagged[i] = true
		d.flagged[j] = true
	}
}
