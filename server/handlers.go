package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/daylife/models"
	"github.com/daylife/templates"
	"github.com/daylife/timeline"
)

// dataset returns the built dataset for user. A participant without usable
// samples is reported as models.ErrNoData.
func (s *Server) dataset(ctx context.Context, user string) (*models.ParticipantDataset, error) {
	ds, err := s.downloader.PopulateDataStore(ctx, s.store, user, s.opts.Build)
	if err != nil {
		return nil, err
	}
	if !ds.HasData() {
		return nil, models.ErrNoData
	}
	return ds, nil
}

func notFound(err error) bool {
	return errors.Is(err, models.ErrNoParticipant) || errors.Is(err, models.ErrNoData)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// parseFilter reads the roster filters, keeping the defaults for missing or
// malformed values.
func parseFilter(r *http.Request) models.RosterFilter {
	f := models.DefaultRosterFilter
	q := r.URL.Query()
	for name, dst := range map[string]*float64{
		"age_min": &f.AgeMin,
		"age_max": &f.AgeMax,
		"hr_min":  &f.HRMin,
		"hr_max":  &f.HRMax,
	} {
		if v, err := strconv.ParseFloat(q.Get(name), 64); err == nil && !math.IsNaN(v) {
			*dst = v
		}
	}
	return f
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	roster, cohort, err := s.downloader.PopulateRoster(r.Context(), s.store)
	if err != nil {
		log.Printf("Failed to load roster: %v", err)
		component := templates.Error("Failed to load participants: " + err.Error())
		templ.Handler(component, templ.WithStatus(http.StatusInternalServerError)).ServeHTTP(w, r)
		return
	}

	filter := parseFilter(r)
	component := templates.Index(templates.IndexView{
		Participants: models.FilterRoster(roster, filter),
		Total:        len(roster),
		Filter:       filter,
		Cohort:       cohort,
	})
	templ.Handler(component).ServeHTTP(w, r)
}

func (s *Server) dayHandler(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	ds, err := s.dataset(r.Context(), user)
	if notFound(err) {
		message := "No data was recorded for " + user + "."
		if errors.Is(err, models.ErrNoParticipant) {
			log.Printf("No participant selected")
			message = "Pick a participant from the list to see their day."
		} else {
			log.Printf("No data for participant %s", user)
		}
		component := templates.Empty("No data", message)
		templ.Handler(component, templ.WithStatus(http.StatusNotFound)).ServeHTTP(w, r)
		return
	}
	if err != nil {
		log.Printf("Failed to load dataset for %s: %v", user, err)
		component := templates.Error("Failed to load data: " + err.Error())
		templ.Handler(component, templ.WithStatus(http.StatusInternalServerError)).ServeHTTP(w, r)
		return
	}

	_, cohort, _ := s.store.Roster()
	var metrics []models.Metric
	for _, m := range models.Metrics {
		if ds.Store(m) != nil {
			metrics = append(metrics, m)
		}
	}

	component := templates.Day(templates.DayView{
		User:          ds.User,
		Info:          ds.Info,
		Sleep:         models.SummarizeSleep(ds.Sleep),
		Hormones:      models.SummarizeHormones(ds.Saliva),
		Cohort:        cohort,
		Metrics:       metrics,
		Start:         ds.TimeExtent.Start,
		End:           ds.TimeExtent.End,
		WindowMinutes: int(s.opts.Window / time.Minute),
		ScrollHeight:  scrollHeight(ds.TimeExtent, s.opts.Window),
	})
	templ.Handler(component).ServeHTTP(w, r)
}

// scrollHeight sizes the scroll track so that one viewport of scrolling
// moves the window by roughly its own length.
func scrollHeight(extent models.Extent, window time.Duration) int {
	windows := extent.Duration().Hours() / window.Hours()
	return int(math.Max(200, math.Ceil(windows*100)))
}

// frameHandler returns the frame for a scroll position, or for an explicit
// window start given as "at" (RFC 3339).
func (s *Server) frameHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ds, err := s.dataset(r.Context(), q.Get("user"))
	if notFound(err) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	sync := timeline.NewSynchronizer(ds, s.opts.Window, nil)
	var frame timeline.Frame
	if at := q.Get("at"); at != "" {
		anchor, perr := time.Parse(time.RFC3339, at)
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr)
			return
		}
		frame, err = sync.Sync(anchor)
	} else {
		scrollTop, perr := scrollParam(q.Get("scrollTop"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr)
			return
		}
		maxScroll, perr := scrollParam(q.Get("maxScroll"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr)
			return
		}
		frame, err = sync.UpdateProgress(scrollTop, maxScroll)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, newFrameMessage(ds, frame))
}

// scrollParam parses a scroll offset. Missing means zero; NaN and the
// infinities are rejected.
func scrollParam(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid scroll offset %q", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("scroll offset must be finite, got %q", v)
	}
	return f, nil
}

func (s *Server) hourlyHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	metric, err := models.ParseMetric(q.Get("metric"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ds, err := s.dataset(r.Context(), q.Get("user"))
	if notFound(err) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	store := ds.Store(metric)
	if store == nil {
		writeError(w, http.StatusNotFound, models.ErrNoData)
		return
	}

	buckets := timeline.HourlyRollup(store.Points(), timeline.RollupFor(metric))
	bar := hourlyChart(timeline.HourlyChart(ds.User, metric, buckets))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := bar.Render(w); err != nil {
		log.Printf("Failed to render hourly chart: %v", err)
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.hub.Count(),
		"datasets": s.store.Len(),
	})
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(r.Context(), r.URL.Query().Get("user"))
	if notFound(err) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sess := newSession(conn, ds, s.opts.Window, s.assets)
	log.Printf("Session %s opened for %s", sess.ID, sess.User)
	sess.serve(s.hub)
}
