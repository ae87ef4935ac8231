// Package history persists dispatch outcomes and provider state
// transitions to SQLite.
//
// The Store satisfies the recorder interfaces used by the dispatch and
// recovery packages. Writes are buffered through a channel and applied
// by a background worker, so recording never blocks a request; when the
// buffer is full the record is dropped and counted rather than queued.
//
// A Pruner deletes records older than the configured retention period
// on a cron schedule.
package history
