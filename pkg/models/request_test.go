package models

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestWithDefaultsMaxJobs(t *testing.T) {
	tests := []struct {
		name string
		json string
		want int
	}{
		{"omitted", `{"jobTitle":"Go"}`, DefaultMaxJobs},
		{"explicit zero", `{"jobTitle":"Go","maxJobs":0}`, 0},
		{"negative", `{"jobTitle":"Go","maxJobs":-3}`, -3},
		{"explicit value", `{"jobTitle":"Go","maxJobs":25}`, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req ExtractRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if req.JobTitle != "Go" {
				t.Errorf("JobTitle = %q", req.JobTitle)
			}
			if got := req.WithDefaults(nil).MaxJobs; got != tt.want {
				t.Errorf("MaxJobs = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWithDefaultsMaxJobsFromYAML(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want int
	}{
		{"omitted", "job_title: Go\n", DefaultMaxJobs},
		{"explicit zero", "job_title: Go\nmax_jobs: 0\n", 0},
		{"explicit value", "job_title: Go\nmax_jobs: 5\nboards: [indeed]\n", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req ExtractRequest
			if err := yaml.Unmarshal([]byte(tt.yaml), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if req.JobTitle != "Go" {
				t.Errorf("JobTitle = %q", req.JobTitle)
			}
			if got := req.WithDefaults(nil).MaxJobs; got != tt.want {
				t.Errorf("MaxJobs = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWithDefaultsKeepsLiteralRequestDefaulting(t *testing.T) {
	got := ExtractRequest{JobTitle: "Go"}.WithDefaults([]string{"dice"})
	if got.MaxJobs != DefaultMaxJobs || got.Location != DefaultLocation || got.ExperienceLevel != DefaultExperienceLevel {
		t.Errorf("defaults not applied: %+v", got)
	}
	if len(got.Boards) != 1 || got.Boards[0] != "dice" {
		t.Errorf("Boards = %v, want [dice]", got.Boards)
	}
}
