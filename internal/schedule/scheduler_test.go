package schedule

import (
	"testing"

	"github.com/valetproj/valet/internal/config"
)

func TestNewValidatesCron(t *testing.T) {
	jobs := []config.JobConfig{
		{Name: "ok", Cron: "0 8 * * *", Prompt: "morning"},
	}
	if _, err := New(jobs, func(string, string, string) {}); err != nil {
		t.Fatalf("valid cron rejected: %v", err)
	}

	jobs = []config.JobConfig{
		{Name: "bad", Cron: "not a cron", Prompt: "x"},
	}
	if _, err := New(jobs, func(string, string, string) {}); err == nil {
		t.Fatal("invalid cron accepted")
	}
}

func TestStartWithNoJobsIsNoop(t *testing.T) {
	s, err := New(nil, func(string, string, string) {})
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	s.Stop()
}
