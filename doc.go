// Package queuectl provides a single-node, file-persisted shell command
// queue. Producers enqueue commands, worker loops claim and execute them,
// failed commands are retried with exponential backoff, and jobs that
// exhaust their retry budget land in a dead letter queue for inspection
// or manual requeue.
//
// # Quick Start
//
//	st, err := file.Open(dataDir)
//	if err != nil { ... }
//	defer st.Close()
//
//	exec := worker.NewExecutor(st, worker.NewShellRunner(), bo, cfg.MaxRetries, logger)
//	pool := worker.NewPool(st, st, exec, logger, worker.WithPoolConcurrency(4))
//
// # Architecture
//
// All queue state lives in one JSON aggregate guarded by a marker-file
// mutex ([github.com/manasamurali63/queuectl/lock.FileLock]). Every store
// operation is a single lock-guarded read/mutate/write of the whole
// aggregate, which makes the claim transition (pending → processing)
// mutually exclusive across processes. A SQLite backend implements the
// same contract using a claim transaction instead of the marker file.
//
// Persistence is deliberately best-effort: a crash mid-write can truncate
// the aggregate, and a crash while holding the lock leaves a stale marker
// that blocks all later acquisitions until an operator breaks it.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package queuectl
