package access

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/mcvalenti/BEOMAT/internal/propagation"
	"github.com/mcvalenti/BEOMAT/internal/tle"
)

// SitePasses holds the passes of one satellite over one site.
type SitePasses struct {
	Site   string `json:"site"`
	Passes []Pass `json:"passes"`
}

// SatellitePasses holds the predicted passes for one satellite.
type SatellitePasses struct {
	NORADID int          `json:"norad_id"`
	Name    string       `json:"name,omitempty"`
	Sites   []SitePasses `json:"sites,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// Request holds the parameters for a pass prediction.
type Request struct {
	Sets    []tle.ElementSet
	Sites   []Site
	Start   time.Time
	Span    time.Duration
	Step    time.Duration
	Workers int
	Gravity propagation.Gravity
	Policy  OpenWindowPolicy
}

// Predict propagates each element set over the request window and scans the
// trajectory against every site. Each satellite is processed in its own
// goroutine, bounded by a semaphore. A satellite whose propagation fails gets
// an Error and no passes; the others are unaffected.
func Predict(ctx context.Context, req Request) []SatellitePasses {
	workers := req.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]SatellitePasses, len(req.Sets))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, es := range req.Sets {
		wg.Add(1)
		go func(idx int, es tle.ElementSet) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = SatellitePasses{
					NORADID: es.NORADID,
					Name:    es.Name,
					Error:   "cancelled",
				}
				return
			}

			sites, err := predictSatellite(req, es)
			if err != nil {
				results[idx] = SatellitePasses{
					NORADID: es.NORADID,
					Name:    es.Name,
					Error:   err.Error(),
				}
				return
			}
			results[idx] = SatellitePasses{
				NORADID: es.NORADID,
				Name:    es.Name,
				Sites:   sites,
			}
		}(i, es)
	}

	wg.Wait()
	return results
}

// predictSatellite finds all passes of one satellite over every site.
func predictSatellite(req Request, es tle.ElementSet) ([]SitePasses, error) {
	prop, err := propagation.New(es, propagation.WithGravity(req.Gravity))
	if err != nil {
		return nil, fmt.Errorf("sgp4 init: %w", err)
	}
	traj, err := propagation.GenerateTrajectory(prop, req.Start, req.Step, req.Span)
	if err != nil {
		return nil, err
	}

	out := make([]SitePasses, 0, len(req.Sites))
	for _, site := range req.Sites {
		out = append(out, SitePasses{
			Site:   site.Name,
			Passes: ComputeAccess(traj, req.Start, site, WithOpenWindow(req.Policy)),
		})
	}
	return out, nil
}
