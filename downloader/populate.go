package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/daylife/models"
	"github.com/daylife/timeline"
)

// DatasetFiles are needed to build a participant's day view.
var DatasetFiles = []string{ActigraphFile, AccelerometerFile, ActivityFile, SleepFile, SalivaFile, ParticipantsFile}

// RosterFiles are needed for the participant overview.
var RosterFiles = []string{ParticipantsFile, SleepFile, SalivaFile}

// parse decodes one export into raw. Callers hold the lock around the
// assignment, not the parse.
func (d *Downloader) parse(name string, r io.Reader) (func(*models.RawData), error) {
	switch name {
	case ActigraphFile:
		hr, steps, err := ParseActigraph(r, d.BaseDate)
		return func(raw *models.RawData) { raw.HeartRate, raw.Steps = hr, steps }, err
	case AccelerometerFile:
		mag, err := ParseAccelerometer(r)
		return func(raw *models.RawData) { raw.Magnitude = mag }, err
	case ActivityFile:
		acts, err := ParseActivity(r)
		return func(raw *models.RawData) { raw.Activities = acts }, err
	case SleepFile:
		sleep, err := ParseSleep(r, d.BaseDate)
		return func(raw *models.RawData) { raw.Sleep = sleep }, err
	case SalivaFile:
		saliva, err := ParseSaliva(r)
		return func(raw *models.RawData) { raw.Saliva = saliva }, err
	case ParticipantsFile:
		people, err := ParseParticipants(r)
		return func(raw *models.RawData) { raw.Participants = people }, err
	}
	return nil, fmt.Errorf("unknown export %q", name)
}

// PopulateRaw fetches and parses the named exports in parallel. Nothing is
// returned unless every file succeeded.
func (d *Downloader) PopulateRaw(ctx context.Context, names ...string) (models.RawData, error) {
	var raw models.RawData
	var wg sync.WaitGroup
	var mu sync.Mutex

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errChan := make(chan error, len(names))

	wg.Add(len(names))
	for _, name := range names {
		go func(name string) {
			defer wg.Done()
			body, err := d.Open(ctx, name)
			if err != nil {
				errChan <- err
				cancel()
				return
			}
			defer body.Close()

			apply, err := d.parse(name, body)
			if err != nil {
				errChan <- fmt.Errorf("failed to parse %s: %w", name, err)
				cancel()
				return
			}
			mu.Lock()
			apply(&raw)
			mu.Unlock()
		}(name)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		log.Println(err)
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return models.RawData{}, errors.Join(errs...)
	}
	return raw, nil
}

// PopulateDataStore returns the dataset for user from store, building and
// caching it from a full load when missing. The roster and cohort averages
// are refreshed from the same load.
func (d *Downloader) PopulateDataStore(ctx context.Context, store *models.DataStore, user string, opts timeline.BuildOptions) (*models.ParticipantDataset, error) {
	if user == "" {
		return nil, models.ErrNoParticipant
	}
	if ds, ok := store.Get(user); ok {
		return ds, nil
	}

	raw, err := d.PopulateRaw(ctx, DatasetFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to load data for %s: %w", user, err)
	}
	if opts.BaseDate.IsZero() {
		opts.BaseDate = d.BaseDate
	}
	ds, err := timeline.BuildDataset(user, raw, opts)
	if err != nil {
		return nil, err
	}
	store.SetRoster(raw.Participants, models.ComputeCohortAverages(raw))
	store.Put(ds)
	log.Printf("Built dataset for %s from %s", user, d.Describe())
	return ds, nil
}

// PopulateRoster returns the participant roster and cohort averages,
// loading them when the store has none.
func (d *Downloader) PopulateRoster(ctx context.Context, store *models.DataStore) ([]models.ParticipantInfo, models.CohortAverages, error) {
	if roster, cohort, ok := store.Roster(); ok {
		return roster, cohort, nil
	}
	raw, err := d.PopulateRaw(ctx, RosterFiles...)
	if err != nil {
		return nil, models.CohortAverages{}, fmt.Errorf("failed to load roster: %w", err)
	}
	cohort := models.ComputeCohortAverages(raw)
	store.SetRoster(raw.Participants, cohort)
	return raw.Participants, cohort, nil
}
