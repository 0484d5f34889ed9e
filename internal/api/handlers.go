package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mcvalenti/BEOMAT/internal/access"
	"github.com/mcvalenti/BEOMAT/internal/atmosphere"
	"github.com/mcvalenti/BEOMAT/internal/metrics"
	"github.com/mcvalenti/BEOMAT/internal/propagation"
	"github.com/mcvalenti/BEOMAT/internal/tle"
	"github.com/mcvalenti/BEOMAT/internal/transform"
)

// Bounds on the trajectory one access request may generate.
const (
	maxAccessSamples = 100_000
	maxAccessStepSec = 86_400
)

type handlers struct {
	logger  *slog.Logger
	store   *tle.Store
	opts    Options
	limiter *computeLimiter
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		fe *tle.FormatError
		re *atmosphere.RangeError
		pe *propagation.PropagationError
	)
	switch {
	case errors.As(err, &fe), errors.As(err, &re), errors.Is(err, atmosphere.ErrInvalidParams):
		return http.StatusBadRequest
	case errors.As(err, &pe):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "component", "api", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

// lookup resolves the {norad_id} path value against the loaded catalog and
// writes the error response itself when it cannot.
func (h *handlers) lookup(w http.ResponseWriter, r *http.Request) (tle.ElementSet, bool) {
	cat := h.store.Get()
	if cat == nil {
		writeError(w, http.StatusServiceUnavailable, "no catalog loaded")
		return tle.ElementSet{}, false
	}
	raw := r.PathValue("norad_id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid norad_id %q", raw))
		return tle.ElementSet{}, false
	}
	es, ok := cat.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("satellite %d not found", id))
		return tle.ElementSet{}, false
	}
	return es, true
}

func parseTimeParam(r *http.Request, key string, def time.Time) (time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: must be RFC3339", key)
	}
	return t.UTC(), nil
}

func parseFloatParam(r *http.Request, key string, def float64) (float64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return v, nil
}

type satelliteSummary struct {
	NORADID int       `json:"norad_id"`
	Name    string    `json:"name"`
	Epoch   time.Time `json:"epoch"`
}

type satellitesResponse struct {
	Source     string             `json:"source"`
	LoadedAt   time.Time          `json:"loaded_at"`
	EpochMin   time.Time          `json:"epoch_min"`
	EpochMax   time.Time          `json:"epoch_max"`
	Count      int                `json:"count"`
	Satellites []satelliteSummary `json:"satellites"`
}

func (h *handlers) satellites(w http.ResponseWriter, r *http.Request) {
	cat := h.store.Get()
	if cat == nil {
		writeError(w, http.StatusServiceUnavailable, "no catalog loaded")
		return
	}
	resp := satellitesResponse{
		Source:     cat.Source,
		LoadedAt:   cat.LoadedAt,
		EpochMin:   cat.EpochRange.Min,
		EpochMax:   cat.EpochRange.Max,
		Count:      len(cat.Sets),
		Satellites: make([]satelliteSummary, 0, len(cat.Sets)),
	}
	for _, es := range cat.Sets {
		resp.Satellites = append(resp.Satellites, satelliteSummary{NORADID: es.NORADID, Name: es.Name, Epoch: es.Epoch})
	}
	writeJSON(w, http.StatusOK, resp)
}

type stateResponse struct {
	NORADID     int        `json:"norad_id"`
	Name        string     `json:"name"`
	Time        time.Time  `json:"time"`
	Frame       string     `json:"frame"`
	PositionKm  [3]float64 `json:"position_km"`
	VelocityKmS [3]float64 `json:"velocity_km_s"`
	LatDeg      float64    `json:"latitude_deg"`
	LonDeg      float64    `json:"longitude_deg"`
	AltKm       float64    `json:"altitude_km"`
}

func (h *handlers) propagate(w http.ResponseWriter, r *http.Request) {
	es, ok := h.lookup(w, r)
	if !ok {
		return
	}
	t, err := parseTimeParam(r, "time", time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	frame := strings.ToLower(r.URL.Query().Get("frame"))
	if frame != "" && frame != "teme" && frame != "ecef" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid frame %q: want teme or ecef", frame))
		return
	}

	start := time.Now()
	sv, err := propagation.Propagate(es, t, propagation.WithGravity(h.opts.Propagation.Gravity))
	if err != nil {
		metrics.RecordPropagation(time.Since(start), 0, 1)
		h.fail(w, r, err)
		return
	}
	metrics.RecordPropagation(time.Since(start), 1, 0)

	ecef := transform.ToEarthFixed(sv, t)
	geo := transform.ToGeodetic(ecef.Position)
	out := sv
	if frame == "ecef" {
		out = ecef
	}
	writeJSON(w, http.StatusOK, stateResponse{
		NORADID:     es.NORADID,
		Name:        es.Name,
		Time:        out.Epoch,
		Frame:       out.Frame.String(),
		PositionKm:  out.Position,
		VelocityKmS: out.Velocity,
		LatDeg:      geo.LatDeg,
		LonDeg:      geo.LonDeg,
		AltKm:       geo.AltKm,
	})
}

type elementsResponse struct {
	NORADID         int       `json:"norad_id"`
	Name            string    `json:"name"`
	Epoch           time.Time `json:"epoch"`
	Source          string    `json:"source"`
	Eccentricity    float64   `json:"eccentricity"`
	InclinationDeg  float64   `json:"inclination_deg"`
	RAANDeg         float64   `json:"raan_deg"`
	ArgPerigeeDeg   float64   `json:"arg_perigee_deg"`
	MeanAnomalyDeg  float64   `json:"mean_anomaly_deg"`
	MeanMotion      float64   `json:"mean_motion_rev_day"`
	MeanMotionDot   float64   `json:"mean_motion_dot"`
	MeanMotionDDot  float64   `json:"mean_motion_ddot"`
	BStar           float64   `json:"bstar"`
	SemiMajorAxisKm float64   `json:"semi_major_axis_km"`
	MeanAltitudeKm  float64   `json:"mean_altitude_km"`
	PeriodMin       float64   `json:"period_min"`
	DeepSpace       bool      `json:"deep_space"`
	Line1           string    `json:"line1,omitempty"`
	Line2           string    `json:"line2,omitempty"`
}

func (h *handlers) elements(w http.ResponseWriter, r *http.Request) {
	es, ok := h.lookup(w, r)
	if !ok {
		return
	}
	k := tle.DeriveKeplerian(es)
	const r2d = 180 / math.Pi
	writeJSON(w, http.StatusOK, elementsResponse{
		NORADID:         es.NORADID,
		Name:            es.Name,
		Epoch:           es.Epoch,
		Source:          es.Source.String(),
		Eccentricity:    es.Eccentricity,
		InclinationDeg:  es.Inclination * r2d,
		RAANDeg:         es.RAAN * r2d,
		ArgPerigeeDeg:   es.ArgPerigee * r2d,
		MeanAnomalyDeg:  es.MeanAnomaly * r2d,
		MeanMotion:      es.MeanMotion,
		MeanMotionDot:   es.MeanMotionDot,
		MeanMotionDDot:  es.MeanMotionDDot,
		BStar:           es.BStar,
		SemiMajorAxisKm: k.SemiMajorAxisKm,
		MeanAltitudeKm:  k.AltitudeKm,
		PeriodMin:       k.PeriodMin,
		DeepSpace:       k.PeriodMin >= 225,
		Line1:           es.Line1,
		Line2:           es.Line2,
	})
}

type accessResponse struct {
	NORADID     int           `json:"norad_id"`
	Name        string        `json:"name"`
	Site        access.Site   `json:"site"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	StepSeconds float64       `json:"step_seconds"`
	OpenWindow  string        `json:"open_window"`
	Passes      []access.Pass `json:"passes"`
}

// resolveSite picks a configured site by name, or builds an ad-hoc station
// from lat/lon/alt_m/min_el query parameters.
func (h *handlers) resolveSite(r *http.Request) (access.Site, int, error) {
	q := r.URL.Query()
	if name := q.Get("site"); name != "" {
		for _, s := range h.opts.Sites {
			if strings.EqualFold(s.Name, name) {
				return s, 0, nil
			}
		}
		return access.Site{}, http.StatusNotFound, fmt.Errorf("site %q not found", name)
	}
	if q.Get("lat") == "" || q.Get("lon") == "" {
		return access.Site{}, http.StatusBadRequest, errors.New("site or lat and lon are required")
	}
	lat, err := parseFloatParam(r, "lat", 0)
	if err != nil {
		return access.Site{}, http.StatusBadRequest, err
	}
	lon, err := parseFloatParam(r, "lon", 0)
	if err != nil {
		return access.Site{}, http.StatusBadRequest, err
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 360 {
		return access.Site{}, http.StatusBadRequest, fmt.Errorf("coordinates out of range (lat %g, lon %g)", lat, lon)
	}
	alt, err := parseFloatParam(r, "alt_m", 0)
	if err != nil {
		return access.Site{}, http.StatusBadRequest, err
	}
	minEl, err := parseFloatParam(r, "min_el", access.DefaultStationMaskDeg)
	if err != nil {
		return access.Site{}, http.StatusBadRequest, err
	}
	return access.NewStation("ad-hoc", lat, lon, alt, access.WithMinElevation(minEl)), 0, nil
}

func (h *handlers) accessWindows(w http.ResponseWriter, r *http.Request) {
	es, ok := h.lookup(w, r)
	if !ok {
		return
	}
	site, status, err := h.resolveSite(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	start, err := parseTimeParam(r, "start", time.Now().UTC().Truncate(time.Second))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	horizon := h.opts.Propagation.Horizon
	if horizon <= 0 {
		horizon = 24 * time.Hour
	}
	hours, err := parseFloatParam(r, "hours", horizon.Hours())
	if err != nil || hours <= 0 {
		writeError(w, http.StatusBadRequest, "hours must be a positive number")
		return
	}
	step := h.opts.Propagation.Step
	if step <= 0 {
		step = time.Minute
	}
	stepSec, err := parseFloatParam(r, "step", step.Seconds())
	if err != nil || stepSec < 0.001 || stepSec > maxAccessStepSec {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("step must be between 0.001 and %d seconds", maxAccessStepSec))
		return
	}
	// Budget in float seconds so an oversized hours value cannot overflow
	// the span duration.
	if samples := hours*3600/stepSec + 1; samples > maxAccessSamples {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":       "requested window exceeds sample budget",
			"max_samples": maxAccessSamples,
		})
		return
	}
	step = time.Duration(stepSec * float64(time.Second))
	span := time.Duration(hours * float64(time.Hour))

	policy := h.opts.OpenWindow
	if s := r.URL.Query().Get("open_window"); s != "" {
		p, ok := access.ParseOpenWindowPolicy(s)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid open_window %q: want drop or truncate", s))
			return
		}
		policy = p
	}

	prop, err := propagation.New(es, propagation.WithGravity(h.opts.Propagation.Gravity))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	traj, err := propagation.GenerateTrajectory(prop, start, step, span)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	passes := access.ComputeAccess(traj, start, site, access.WithOpenWindow(policy))
	if passes == nil {
		passes = []access.Pass{}
	}

	writeJSON(w, http.StatusOK, accessResponse{
		NORADID:     es.NORADID,
		Name:        es.Name,
		Site:        site,
		Start:       start,
		End:         traj.At(len(traj.Samples) - 1),
		StepSeconds: step.Seconds(),
		OpenWindow:  policy.String(),
		Passes:      passes,
	})
}

type decayRequest struct {
	atmosphere.Params
	Stepped bool    `json:"stepped"`
	FloorKm float64 `json:"floor_km"`
}

type decayResponse struct {
	Params        atmosphere.Params         `json:"params"`
	DecayPerRevKm float64                   `json:"decay_per_rev_km"`
	LifetimeDays  float64                   `json:"lifetime_days"`
	Stepped       *atmosphere.SteppedResult `json:"stepped,omitempty"`
}

func (h *handlers) decay(w http.ResponseWriter, r *http.Request) {
	var req decayRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	p := req.Params.Complete()

	tab := h.opts.Atmosphere
	if tab == nil {
		var err error
		if tab, err = atmosphere.Default(); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	resp := decayResponse{Params: p}
	da, err := tab.DecayPerRevolution(p)
	if err == nil {
		resp.DecayPerRevKm = da
		resp.LifetimeDays, err = tab.EstimateLifetimeDays(p)
	}
	if err == nil && req.Stepped {
		var res atmosphere.SteppedResult
		res, err = tab.SteppedLifetimeDays(p, atmosphere.StepOptions{FloorKm: req.FloorKm})
		resp.Stepped = &res
	}
	metrics.RecordDecay(err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
