// Package activitylog records member activity (logins, logouts, heartbeat
// activity) for reporting.
//
// Events land in a local SQLite table. Repeated activity from the same
// account within the collapse granularity updates the existing row instead
// of inserting a new one, so a member watching an hour of video produces a
// handful of rows rather than thousands.
//
// The Archiver prunes rows past the retention period on a cron schedule.
package activitylog
