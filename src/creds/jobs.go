package creds

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/swipely/refreshable/src/queue"
	"github.com/swipely/refreshable/src/utils"
)

// refreshJob drives a Manager's lifecycle from the background. It is what an
// eagerly refreshing session enqueues on its refresh timer.
type refreshJob struct {
	manager *Manager
	logger  *logrus.Entry
}

// NewRefreshJob creates a queue.Job which refreshes the Manager's credentials
// when they are inside a refresh window.
func NewRefreshJob(manager *Manager) queue.Job {
	return &refreshJob{
		manager: manager,
		logger:  logrus.WithField("prefix", "creds/refresh-job"),
	}
}

func (job *refreshJob) ID() string {
	return "creds/refresh"
}

func (job *refreshJob) AllowedAttempts() int {
	return 3
}

func (job *refreshJob) Backoff(attempt int) time.Duration {
	return utils.ExponentialBackoff(time.Second, attempt)
}

func (job *refreshJob) Perform() error {
	if job.manager.State() == StateValid {
		job.logger.Debug("Credentials are fresh, skipping refresh")
		return nil
	}
	job.logger.Debug("Refreshing credentials")
	return job.manager.Refresh()
}
