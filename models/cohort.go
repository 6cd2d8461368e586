package models

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Hormone sample labels used by the saliva export.
const (
	SampleBeforeSleep = "before sleep"
	SampleWakeUp      = "wake up"
)

// HormoneLabel names one hormone reading for display, e.g. "cortisol" and
// "before sleep" give "Cortisol Before Sleep".
func HormoneLabel(hormone, sample string) string {
	label := strings.Join(strings.Fields(hormone+" "+sample), " ")
	return cases.Title(language.English).String(label)
}

// SleepSummary averages the nights recorded for one participant or the cohort.
type SleepSummary struct {
	Nights             int     `json:"nights"`
	Efficiency         float64 `json:"efficiency"`
	TotalSleep         float64 `json:"total_sleep"`
	WASO               float64 `json:"waso"`
	Latency            float64 `json:"latency"`
	Awakenings         float64 `json:"awakenings"`
	AvgAwakeningLength float64 `json:"avg_awakening_length"`
	MovementIndex      float64 `json:"movement_index"`
	FragmentationIndex float64 `json:"fragmentation_index"`
}

// HormoneSummary holds cortisol and melatonin before sleep and after waking.
type HormoneSummary struct {
	CortisolBeforeSleep  float64 `json:"cortisol_before_sleep"`
	CortisolAfterSleep   float64 `json:"cortisol_after_sleep"`
	MelatoninBeforeSleep float64 `json:"melatonin_before_sleep"`
	MelatoninAfterSleep  float64 `json:"melatonin_after_sleep"`
}

// CohortAverages are the all-participant reference values shown next to
// one participant's metrics.
type CohortAverages struct {
	Sleep    SleepSummary   `json:"sleep"`
	Hormones HormoneSummary `json:"hormones"`
}

type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(v float64) {
	if math.IsNaN(v) {
		return
	}
	m.sum += v
	m.n++
}

func (m meanAcc) mean() float64 {
	if m.n == 0 {
		return math.NaN()
	}
	return m.sum / float64(m.n)
}

// SummarizeSleep averages every record, ignoring NaN fields.
func SummarizeSleep(records []SleepRecord) SleepSummary {
	var eff, tst, waso, lat, awk, awl, mov, frag meanAcc
	for _, r := range records {
		eff.add(r.Efficiency)
		tst.add(r.TotalSleep)
		waso.add(r.WASO)
		lat.add(r.Latency)
		awk.add(r.Awakenings)
		awl.add(r.AvgAwakeningLength)
		mov.add(r.MovementIndex)
		frag.add(r.FragmentationIndex)
	}
	return SleepSummary{
		Nights:             len(records),
		Efficiency:         eff.mean(),
		TotalSleep:         tst.mean(),
		WASO:               waso.mean(),
		Latency:            lat.mean(),
		Awakenings:         awk.mean(),
		AvgAwakeningLength: awl.mean(),
		MovementIndex:      mov.mean(),
		FragmentationIndex: frag.mean(),
	}
}

// SummarizeHormones averages the per-participant before/after samples. When
// a participant has several samples with the same label the last one counts.
func SummarizeHormones(samples []SalivaSample) HormoneSummary {
	type pair struct{ before, after *SalivaSample }
	byUser := make(map[string]*pair)
	for i := range samples {
		s := &samples[i]
		p, ok := byUser[s.User]
		if !ok {
			p = &pair{}
			byUser[s.User] = p
		}
		switch strings.ToLower(strings.TrimSpace(s.Sample)) {
		case SampleBeforeSleep:
			p.before = s
		case SampleWakeUp:
			p.after = s
		}
	}
	var cb, ca, mb, ma meanAcc
	for _, p := range byUser {
		if p.before != nil {
			cb.add(p.before.Cortisol)
			mb.add(p.before.Melatonin)
		}
		if p.after != nil {
			ca.add(p.after.Cortisol)
			ma.add(p.after.Melatonin)
		}
	}
	return HormoneSummary{
		CortisolBeforeSleep:  cb.mean(),
		CortisolAfterSleep:   ca.mean(),
		MelatoninBeforeSleep: mb.mean(),
		MelatoninAfterSleep:  ma.mean(),
	}
}

// ComputeCohortAverages summarizes sleep and hormones across all participants.
func ComputeCohortAverages(raw RawData) CohortAverages {
	return CohortAverages{
		Sleep:    SummarizeSleep(raw.Sleep),
		Hormones: SummarizeHormones(raw.Saliva),
	}
}

// RosterFilter selects participants by age and average heart rate. Bounds
// are inclusive.
type RosterFilter struct {
	AgeMin, AgeMax float64
	HRMin, HRMax   float64
}

// DefaultRosterFilter matches the initial slider positions of the roster page.
var DefaultRosterFilter = RosterFilter{AgeMin: 20, AgeMax: 40, HRMin: 60, HRMax: 95}

// FilterRoster returns the matching participants sorted by user key.
func FilterRoster(roster []ParticipantInfo, f RosterFilter) []ParticipantInfo {
	var out []ParticipantInfo
	for _, p := range roster {
		if p.Age >= f.AgeMin && p.Age <= f.AgeMax && p.AvgHR >= f.HRMin && p.AvgHR <= f.HRMax {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return UserLess(out[i].User, out[j].User) })
	return out
}

// UserLess orders keys like "user_2" before "user_10".
func UserLess(a, b string) bool {
	na, errA := strconv.Atoi(a[strings.LastIndex(a, "_")+1:])
	nb, errB := strconv.Atoi(b[strings.LastIndex(b, "_")+1:])
	if errA == nil && errB == nil && na != nb {
		return na < nb
	}
	return a < b
}
