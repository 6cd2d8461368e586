package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/daylife/models"
)

func runFrame(t *testing.T, args ...string) (frameOutput, error) {
	t.Helper()
	t.Setenv("DAYLIFE_DATA_SOURCE", "")
	t.Setenv("DAYLIFE_WINDOW_MINUTES", "60")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"frame"}, args...))
	if err := cmd.Execute(); err != nil {
		return frameOutput{}, err
	}

	var got frameOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode output %q: %v", out.String(), err)
	}
	return got, nil
}

func TestFrameCommand(t *testing.T) {
	got, err := runFrame(t, "--user", "user_1", "--progress", "0")
	if err != nil {
		t.Fatal(err)
	}
	if got.Caption != "Sleeping" {
		t.Errorf("Expected caption Sleeping, got %q", got.Caption)
	}
	if got.Series != nil {
		t.Error("Expected series to be omitted by default")
	}
	if got.Animation.Target.URL == "" || got.Animation.Current.URL != got.Animation.Target.URL {
		t.Errorf("Expected the target animation to be current, got %+v", got.Animation)
	}
	if !got.Animation.Current.Playing {
		t.Error("Expected the current animation to play")
	}
}

func TestFrameCommandAt(t *testing.T) {
	got, err := runFrame(t, "--user", "user_2", "--at", "2024-01-01T10:45:00Z", "--series")
	if err != nil {
		t.Fatal(err)
	}
	if got.Active == nil || got.Active.Code != 12 {
		t.Errorf("Expected alcohol interval at 10:45, got %+v", got.Active)
	}
	if len(got.Series[models.HeartRate]) == 0 {
		t.Error("Expected heart rate points with --series")
	}
}

func TestFrameCommandUnknownUser(t *testing.T) {
	_, err := runFrame(t, "--user", "nobody")
	if !errors.Is(err, models.ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
}

func TestFrameCommandRequiresUser(t *testing.T) {
	if _, err := runFrame(t); err == nil {
		t.Error("Expected an error without --user")
	}
}
