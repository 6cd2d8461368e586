// Package templates renders the dashboard pages as templ components.
// Stylesheet and page script live in static/ and are served under
// StaticPath.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/daylife/models"
)

// StaticPath is where the server mounts Static.
const StaticPath = "/assets/static/"

//go:embed static
var static embed.FS

// Static returns the stylesheet and scripts of the pages.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// IndexView is the participant roster page.
type IndexView struct {
	Participants []models.ParticipantInfo
	Total        int
	Filter       models.RosterFilter
	Cohort       models.CohortAverages
}

// DayView is the scroll-driven day page of one participant.
type DayView struct {
	User          string
	Info          *models.ParticipantInfo
	Sleep         models.SleepSummary
	Hormones      models.HormoneSummary
	Cohort        models.CohortAverages
	Metrics       []models.Metric
	Start, End    time.Time
	WindowMinutes int
	// ScrollHeight is the height of the scroll track in viewport heights.
	ScrollHeight int
}

// statRow is one line of a summary panel.
type statRow struct {
	Label  string
	Value  string
	Cohort string
}

// num formats a measurement, showing missing values as "n/a".
func num(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func dayURL(user string) string {
	return "/day?user=" + url.QueryEscape(user)
}

func hourlyURL(user string, m models.Metric) string {
	return "/api/hourly?" + url.Values{"user": {user}, "metric": {string(m)}}.Encode()
}

func showing(v IndexView) string {
	return fmt.Sprintf("Showing %d of %d participants", len(v.Participants), v.Total)
}

func profile(info *models.ParticipantInfo) string {
	return fmt.Sprintf("Age %s, BMI %s, avg HR %s bpm", num(info.Age, 0), num(info.BMI, 1), num(info.AvgHR, 1))
}

func span(v DayView) string {
	return fmt.Sprintf("%s to %s, %d minute window",
		v.Start.Format("Jan 2 3:04 PM"), v.End.Format("Jan 2 3:04 PM"), v.WindowMinutes)
}

// sleepRows lists sleep metrics, with the cohort value alongside when given.
func sleepRows(s models.SleepSummary, cohort *models.SleepSummary) []statRow {
	rows := []struct {
		label  string
		value  float64
		ref    func(models.SleepSummary) float64
		suffix string
	}{
		{"Efficiency", s.Efficiency, func(c models.SleepSummary) float64 { return c.Efficiency }, "%"},
		{"Total sleep", s.TotalSleep, func(c models.SleepSummary) float64 { return c.TotalSleep }, " min"},
		{"Wake after sleep onset", s.WASO, func(c models.SleepSummary) float64 { return c.WASO }, " min"},
		{"Latency", s.Latency, func(c models.SleepSummary) float64 { return c.Latency }, " min"},
		{"Awakenings", s.Awakenings, func(c models.SleepSummary) float64 { return c.Awakenings }, ""},
		{"Avg awakening length", s.AvgAwakeningLength, func(c models.SleepSummary) float64 { return c.AvgAwakeningLength }, " min"},
		{"Movement index", s.MovementIndex, func(c models.SleepSummary) float64 { return c.MovementIndex }, ""},
		{"Fragmentation index", s.FragmentationIndex, func(c models.SleepSummary) float64 { return c.FragmentationIndex }, ""},
	}
	out := make([]statRow, len(rows))
	for i, r := range rows {
		out[i] = statRow{Label: r.label, Value: num(r.value, 1) + r.suffix}
		if cohort != nil {
			out[i].Cohort = num(r.ref(*cohort), 1) + r.suffix
		}
	}
	return out
}

// hormoneRows lists the four saliva readings.
func hormoneRows(h models.HormoneSummary, cohort *models.HormoneSummary) []statRow {
	rows := []struct {
		hormone, sample string
		value           float64
		ref             func(models.HormoneSummary) float64
	}{
		{"cortisol", models.SampleBeforeSleep, h.CortisolBeforeSleep, func(c models.HormoneSummary) float64 { return c.CortisolBeforeSleep }},
		{"cortisol", models.SampleWakeUp, h.CortisolAfterSleep, func(c models.HormoneSummary) float64 { return c.CortisolAfterSleep }},
		{"melatonin", models.SampleBeforeSleep, h.MelatoninBeforeSleep, func(c models.HormoneSummary) float64 { return c.MelatoninBeforeSleep }},
		{"melatonin", models.SampleWakeUp, h.MelatoninAfterSleep, func(c models.HormoneSummary) float64 { return c.MelatoninAfterSleep }},
	}
	out := make([]statRow, len(rows))
	for i, r := range rows {
		out[i] = statRow{Label: models.HormoneLabel(r.hormone, r.sample), Value: num(r.value, 3)}
		if cohort != nil {
			out[i].Cohort = num(r.ref(*cohort), 3)
		}
	}
	return out
}
