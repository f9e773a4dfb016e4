package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"sqldrive/pacing"
	"sqldrive/param"
	"sqldrive/rlog"
	"sqldrive/stats"
)

const (
	maxConnectionRetries = 3
	connectionBackoff    = 300 * time.Millisecond
)

// Worker runs one goroutine's share of the workload: loop until the
// wall-clock deadline, open a connection, run queryPerTx parametrised
// statements in a single transaction, commit, update the shared stats, and
// pace itself. Every field set at construction is immutable
// for the worker's lifetime; state that changes across iterations (the
// ring and the generators' RNGs) is owned exclusively by this goroutine.
type Worker struct {
	ID       int
	DS       *DataSource
	Stats    *stats.Array
	Template *param.Template
	Hist     *stats.LatencyHistograms // optional, nil disables per-verb hdr recording

	Deadline    time.Time
	QueryPerTx  int
	Iterate     bool
	TargetTxNs  int64
	Desaturation float64
	Ring        *pacing.Ring
}

// Run blocks on barrier, then drives transactions until Deadline. It
// returns only when the deadline has passed or the worker gives up after a
// classified fatal failure; either way the
// caller (the supervisor) simply waits for the WaitGroup, since a worker
// exiting early is not itself a process-level error.
func (w *Worker) Run(ctx context.Context, barrier *sync.WaitGroup) {
	barrier.Done()
	barrier.Wait()

	w.Stats.CompareAndSwap(stats.StartTime, 0, time.Now().UnixNano())

	// retries counts non-transient connection failures over the worker's
	// entire lifetime, not consecutively - it is never reset on success.
	retries := 0
	for time.Now().Before(w.Deadline) {
		ok := w.runOneTransaction(ctx)
		if !ok {
			retries++
			if retries > maxConnectionRetries {
				rlog.Errorf("worker %d: giving up after %d connection retries", w.ID, retries)
				return
			}
			time.Sleep(connectionBackoff * time.Duration(retries))
		}
	}
}

// runOneTransaction executes one outer-loop iteration. It returns false
// only for a non-transient connection failure, signalling the caller to
// apply the linear backoff and advance the cumulative retry counter; all
// other outcomes - success, classified rollback/deadlock, transient
// connection loss - return true and leave that counter untouched.
func (w *Worker) runOneTransaction(ctx context.Context) bool {
	begin := time.Now().UnixNano()

	conn, err := w.DS.db.Conn(ctx)
	if err != nil {
		return w.classifyConnectionError(err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return w.classifyConnectionError(err)
	}

	stmt, err := tx.PrepareContext(ctx, w.Template.SQL)
	if err != nil {
		rlog.Errorf("worker %d: prepare failed: %v", w.ID, err)
		_ = tx.Rollback()
		return true
	}

	var response, elapsed, rowCount int64
	for i := 0; i < w.QueryPerTx; i++ {
		args, err := w.bindArgs()
		if err != nil {
			rlog.Errorf("worker %d: parameter binding failed: %v", w.ID, err)
			_ = stmt.Close()
			_ = tx.Rollback()
			return true
		}

		start := time.Now().UnixNano()
		n, err := w.execOne(ctx, stmt, args)
		opNanos := time.Now().UnixNano() - start
		response += opNanos
		elapsed += opNanos

		if err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			if isRollback, isDeadlock := IsRollback(err); isRollback {
				if isDeadlock {
					w.Stats.Increment(stats.AbortDeadlock)
				} else {
					w.Stats.Increment(stats.AbortConflict)
				}
				return true
			}
			if IsTransient(err) {
				rlog.Infof("worker %d: transient connection loss: %v", w.ID, err)
				return true
			}
			rlog.Errorf("worker %d: statement failed: %v", w.ID, err)
			return true
		}
		rowCount += n
		if w.Hist != nil {
			w.Hist.Record(string(w.Template.Verb), opNanos/int64(time.Microsecond))
		}
	}
	_ = stmt.Close()

	w.Stats.Add(stats.LatencyTime, response)
	w.Stats.Add(stats.OpsTime, elapsed)
	w.Stats.Increment(stats.TxCount)
	w.Stats.Add(stats.OpsCount, int64(w.QueryPerTx))
	w.Stats.Add(stats.RowCount, rowCount)

	if err := tx.Commit(); err != nil {
		if isRollback, isDeadlock := IsRollback(err); isRollback {
			if isDeadlock {
				w.Stats.Increment(stats.AbortDeadlock)
			} else {
				w.Stats.Increment(stats.AbortConflict)
			}
			return true
		}
		rlog.Errorf("worker %d: commit failed: %v", w.ID, err)
		return true
	}

	end := time.Now().UnixNano()
	w.Stats.Add(stats.TxTime, end-begin)
	w.Ring.Add(begin, end)
	w.Stats.Set(stats.EndTime, end)

	w.pace(response)
	return true
}

// classifyConnectionError distinguishes a transient pool hiccup (log and
// let the next iteration acquire a fresh connection) from a non-transient
// connection failure (signal the caller to apply backoff and retry up to
// the configured bound).
func (w *Worker) classifyConnectionError(err error) bool {
	if IsTransient(err) {
		rlog.Infof("worker %d: transient connection loss on node %s: %v", w.ID, w.DS.NodeID(), err)
		return true
	}
	if IsConnectionFailure(err) {
		rlog.Warnf("worker %d: connection failure on node %s: %v", w.ID, w.DS.NodeID(), err)
		return false
	}
	rlog.Errorf("worker %d: unexpected connection error on node %s: %v", w.ID, w.DS.NodeID(), err)
	return true
}

// bindArgs draws one value from every generator, in order, for the next
// statement execution. database/sql binds by runtime
// Go type already, so no extra dispatch by value kind is needed beyond
// what Generator.NextValue already returns.
func (w *Worker) bindArgs() ([]interface{}, error) {
	args := make([]interface{}, len(w.Template.Generators))
	for i, g := range w.Template.Generators {
		v, err := g.NextValue()
		if err != nil {
			return nil, fmt.Errorf("generator %d: %w", i, err)
		}
		args[i] = v
	}
	return args, nil
}

// execOne dispatches one statement execution by verb
// and returns the row count consumed (only meaningful for an iterated
// SELECT).
func (w *Worker) execOne(ctx context.Context, stmt *sql.Stmt, args []interface{}) (int64, error) {
	switch w.Template.Verb {
	case param.VerbSelect:
		rows, err := stmt.QueryContext(ctx, args...)
		if err != nil {
			return 0, err
		}
		defer rows.Close()
		var count int64
		if w.Iterate {
			for rows.Next() {
				count++
			}
			if err := rows.Err(); err != nil {
				return count, err
			}
		}
		return count, nil

	case param.VerbInsert, param.VerbUpdate, param.VerbDelete, param.VerbExecute:
		_, err := stmt.ExecContext(ctx, args...)
		return 0, err

	default:
		return 0, fmt.Errorf("unreachable verb %q", w.Template.Verb)
	}
}

// pace applies the rate-targeting or load-desaturating sleep.
func (w *Worker) pace(responseNanos int64) {
	if w.TargetTxNs > 0 {
		sleep := w.Ring.GetSleepTime(w.TargetTxNs)
		if sleep > 0 {
			time.Sleep(time.Duration(sleep))
			w.Stats.Add(stats.InactiveTime, sleep)
		}
		return
	}
	if w.Desaturation > 0 && w.Ring.Size() > 1 {
		sleep := int64(float64(responseNanos) * w.Desaturation)
		if sleep > 0 {
			time.Sleep(time.Duration(sleep))
			w.Stats.Add(stats.InactiveTime, sleep)
		}
	}
}
