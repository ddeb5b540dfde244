// Package cron provides recurring enqueue schedules. An [Entry] pairs a
// cron expression with a shell command; the [Scheduler] ticks on an
// interval, finds due entries, and enqueues a fresh job for each.
//
// Entries are persisted in the same aggregate as jobs, so due-checking
// happens under the store lock. [Store.FireCron] is an atomic
// check-and-advance: it re-verifies that the entry is still due before
// moving NextRunAt forward, which guarantees that concurrent schedulers
// fire a due entry at most once per tick.
//
// Schedules use the standard 5-field cron syntax or descriptors like
// "@every 30s", parsed by robfig/cron.
package cron
