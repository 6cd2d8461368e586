package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Names of the cleaned CSV exports.
const (
	ActigraphFile     = "all_actigraph.csv"
	AccelerometerFile = "acc.csv"
	ActivityFile      = "all_activity.csv"
	SleepFile         = "all_sleep.csv"
	SalivaFile        = "all_saliva.csv"
	ParticipantsFile  = "relevant_user_info.csv"
)

// DefaultBaseDate is day 1 of the study calendar used by the exports.
var DefaultBaseDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// FetchError reports an export that could not be retrieved.
type FetchError struct {
	Name       string // export file name
	StatusCode int    // HTTP status, 0 for local sources
	Message    string
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: %d %s", e.Name, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("failed to fetch %s: %s", e.Name, e.Message)
}

// Downloader retrieves the CSV exports from a directory, an fs.FS or an
// HTTP base URL.
type Downloader struct {
	Source   string
	FS       fs.FS
	Client   *http.Client
	BaseDate time.Time
}

// NewDownloader picks the source kind from source: an http(s) URL, otherwise
// a local directory. A non-nil fsys takes precedence over source.
func NewDownloader(source string, fsys fs.FS, baseDate time.Time) *Downloader {
	if baseDate.IsZero() {
		baseDate = DefaultBaseDate
	}
	return &Downloader{
		Source:   source,
		FS:       fsys,
		Client:   &http.Client{Timeout: 30 * time.Second},
		BaseDate: baseDate,
	}
}

func (d *Downloader) isRemote() bool {
	return strings.HasPrefix(d.Source, "http://") || strings.HasPrefix(d.Source, "https://")
}

// LocalDir returns the directory the exports are read from, when they come
// from the local filesystem.
func (d *Downloader) LocalDir() (string, bool) {
	if d.FS != nil || d.isRemote() || d.Source == "" {
		return "", false
	}
	return d.Source, true
}

// Describe names the source for log lines.
func (d *Downloader) Describe() string {
	if d.FS != nil {
		return "embedded sample data"
	}
	return d.Source
}

// Open returns the contents of one export. The caller closes it.
func (d *Downloader) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	switch {
	case d.FS != nil:
		f, err := d.FS.Open(name)
		if err != nil {
			return nil, &FetchError{Name: name, Message: err.Error()}
		}
		return f, nil
	case d.isRemote():
		return d.fetch(ctx, name)
	default:
		f, err := os.Open(filepath.Join(d.Source, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &FetchError{Name: name, Message: "file does not exist"}
			}
			return nil, &FetchError{Name: name, Message: err.Error()}
		}
		return f, nil
	}
}

func (d *Downloader) fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	url := strings.TrimSuffix(d.Source, "/") + "/" + path.Clean(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request for %s failed: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{Name: name, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return resp.Body, nil
}
