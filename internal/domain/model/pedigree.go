package model

// SurfaceChange names the kind of first-time surface a horse faces today.
type SurfaceChange string

// Surface changes.
const (
	FirstTurf SurfaceChange = "turf"
	FirstWet  SurfaceChange = "wet"
)

// PedigreeEdge is the pedigree advantage a horse carries onto a surface it
// has never raced on.
type PedigreeEdge struct {
	Change SurfaceChange
	Rating float64 // turf or mud pedigree rating
	Edge   float64 // rating minus dirt pedigree (dirt defaults to 0)
}

// FirstSurfaceEdges returns the pedigree edges of e for today's surface.
// A turf race counts when no past start was on turf; an off track counts
// when no past start was run in wet conditions. Entries without the
// relevant pedigree rating yield nothing.
func FirstSurfaceEdges(e Entry, h History) []PedigreeEdge {
	dirt := e.PedDirt.Or(0)
	var out []PedigreeEdge
	if e.Surface == SurfaceTurf && !h.RanOnSurface(e.ProgramNumber, SurfaceTurf) && e.PedTurf.OK {
		out = append(out, PedigreeEdge{Change: FirstTurf, Rating: e.PedTurf.V, Edge: e.PedTurf.V - dirt})
	}
	if IsWetSurface(e.Surface) && !h.RanInConditions(e.ProgramNumber, WetConditions) && e.PedMud.OK {
		out = append(out, PedigreeEdge{Change: FirstWet, Rating: e.PedMud.V, Edge: e.PedMud.V - dirt})
	}
	return out
}
