// Package dlq defines the dead letter queue contract. Jobs that exhaust
// their retry ceiling are moved here with state "dead", keeping the full
// job record (command, attempt count, timestamps) for inspection.
//
// A dead job can be revived with [Store.RequeueDead], which resets its
// state to pending and appends it back to the active list. The attempt
// count is deliberately preserved so the job's failure history survives
// the requeue.
package dlq
