package animation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/daylife/models"
)

// AssetPath is where the server mounts the animation files.
const AssetPath = "/assets/animations/"

// Asset is one looping animation.
type Asset struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// AssetTable maps activity categories to animations.
type AssetTable struct {
	Idle   Asset
	Assets map[models.Category]Asset
}

var defaultFiles = map[models.Category]string{
	1:  "sleeping.mp4",
	2:  "laying_down.mp4",
	3:  "sitting.mp4",
	4:  "light_movement.mp4",
	5:  "medium_movement.mp4",
	6:  "heavy_movement.mp4",
	7:  "eating.mp4",
	8:  "small_screen_usage.mp4",
	9:  "large_screen_usage.mp4",
	10: "caffeinated_drink_consumption.mp4",
	11: "smoking.mp4",
	12: "alcohol_consumption.mp4",
}

// DefaultAssetTable returns the built-in mapping for the twelve diary
// categories plus the idle animation.
func DefaultAssetTable() *AssetTable {
	t := &AssetTable{
		Idle:   Asset{Name: "no activity", URL: AssetPath + "idle.mp4"},
		Assets: make(map[models.Category]Asset, len(defaultFiles)),
	}
	for code, file := range defaultFiles {
		t.Assets[code] = Asset{Name: code.Description(), URL: AssetPath + file}
	}
	return t
}

type assetFile struct {
	Idle       *Asset        `yaml:"idle"`
	Categories map[int]Asset `yaml:"categories"`
}

// LoadAssetTable reads YAML overrides on top of the defaults:
//
//	idle:
//	  name: resting
//	  url: /assets/animations/resting.mp4
//	categories:
//	  11: {url: ""}   # unmap smoking
//
// An entry with an empty url removes the category's animation. A missing
// name keeps the default one.
func LoadAssetTable(path string) (*AssetTable, error) {
	t := DefaultAssetTable()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset table: %w", err)
	}
	var file assetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse asset table %s: %w", path, err)
	}
	if file.Idle != nil && file.Idle.URL != "" {
		t.Idle = mergeAsset(t.Idle, *file.Idle)
	}
	for code, a := range file.Categories {
		c := models.Category(code)
		if strings.TrimSpace(a.URL) == "" {
			delete(t.Assets, c)
			continue
		}
		t.Assets[c] = mergeAsset(t.Assets[c], a)
	}
	return t, nil
}

func mergeAsset(base, override Asset) Asset {
	if override.Name != "" {
		base.Name = override.Name
	}
	if base.Name == "" {
		base.Name = override.URL
	}
	base.URL = override.URL
	return base
}

// TargetKind classifies what the animation slot should show.
type TargetKind int

const (
	TargetIdle TargetKind = iota
	TargetAsset
	TargetUnavailable
)

func (k TargetKind) String() string {
	switch k {
	case TargetIdle:
		return "idle"
	case TargetAsset:
		return "asset"
	case TargetUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// Target is the resolved animation for one activity.
type Target struct {
	Kind TargetKind      `json:"kind"`
	Name string          `json:"name"`
	URL  string          `json:"url,omitempty"`
	Code models.Category `json:"code,omitempty"`
}

// Resolve picks the animation for the active interval; nil means idle.
func (t *AssetTable) Resolve(active *models.ActivityInterval) Target {
	if active == nil {
		return Target{Kind: TargetIdle, Name: t.Idle.Name, URL: t.Idle.URL}
	}
	a, ok := t.Assets[active.Code]
	if !ok {
		return Target{Kind: TargetUnavailable, Name: active.Code.Label(), Code: active.Code}
	}
	return Target{Kind: TargetAsset, Name: a.Name, URL: a.URL, Code: active.Code}
}

// URLs lists every distinct animation URL, idle first.
func (t *AssetTable) URLs() []string {
	seen := map[string]bool{t.Idle.URL: true}
	out := []string{t.Idle.URL}
	for _, c := range models.Categories() {
		if a, ok := t.Assets[c]; ok && !seen[a.URL] {
			seen[a.URL] = true
			out = append(out, a.URL)
		}
	}
	return out
}
