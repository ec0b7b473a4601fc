// Package main: Zamanlanmış görevler.
package main

import (
	"github.com/akinalp/pastane/config"
	"github.com/akinalp/pastane/services"
)

// initJobs, cron görevlerini kaydeder. Start/Stop main'dedir.
func initJobs(cfg *config.Config, repos *Repositories, svcs *Services) (services.Scheduler, error) {
	return services.NewScheduler(cfg.Jobs, repos.Session, svcs.Calendar, svcs.Mailer)
}
