// Package schedule fires configured prompts on cron expressions.
package schedule

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/valetproj/valet/internal/config"
	"github.com/valetproj/valet/internal/logging"
)

// FireFunc receives a job's prompt when its schedule triggers.
type FireFunc func(name, conversationID, prompt string)

// Scheduler owns the cron runner for configured jobs.
type Scheduler struct {
	cron *cron.Cron
	jobs int
}

// New builds a scheduler from job configs. Every cron expression is
// validated up front; one bad job fails the whole construction.
func New(jobs []config.JobConfig, fire FireFunc) (*Scheduler, error) {
	c := cron.New()
	for _, job := range jobs {
		job := job
		_, err := c.AddFunc(job.Cron, func() {
			logging.Infof("schedule", "firing job %q", job.Name)
			fire(job.Name, job.ConversationID, job.Prompt)
		})
		if err != nil {
			return nil, fmt.Errorf("job %q: invalid cron %q: %w", job.Name, job.Cron, err)
		}
	}
	return &Scheduler{cron: c, jobs: len(jobs)}, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	if s.jobs == 0 {
		return
	}
	s.cron.Start()
	logging.Infof("schedule", "started with %d job(s)", s.jobs)
}

// Stop halts the runner and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
