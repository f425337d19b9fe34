// Package scheduler runs periodic jobs on cron schedules using github.com/robfig/cron/v3.
//
// The watch command uses it to re-run the concurrent users report:
//
//	s := scheduler.NewWithContext(ctx, scheduler.Config{Logger: log})
//	policy, err := scheduler.ParseOverlapPolicy("skip")
//	if err != nil {
//		return err
//	}
//	_, err = s.AddJob("@every 1m", report, scheduler.JobOptions{
//		Name:          "users-report",
//		Timeout:       30 * time.Second,
//		OverlapPolicy: policy,
//		RunOnStart:    true,
//	})
//	if err != nil {
//		return err
//	}
//	return s.Run(ctx, 5*time.Second)
//
// Schedules accept five or six fields (seconds optional) and descriptors
// such as "@hourly" or "@every 5m".
//
// Overlap policies:
//   - SkipIfRunning: skip a run while the previous one is active (default)
//   - DelayIfRunning: wait for the previous run to finish
//   - AllowOverlap: runs may execute concurrently
//
// Job errors and panics are logged and passed to JobHooks.OnJobFinish;
// they never stop the scheduler.
package scheduler
