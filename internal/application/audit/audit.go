// Package audit writes the append-only operation log. Every mutating service
// call produces exactly one row: a success row written inside the caller's
// transaction, or an error row written on the base connection after rollback.
package audit

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/infrastructure/metrics"
	"propertyops-backend/internal/infrastructure/redisstream"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxSQLLength  = 8000
	writeAttempts = 3
	savepointName = "audit_log"
	// FeedKey is the Redis stream carrying committed audit rows.
	FeedKey = "audit_log"
	// FeedEventType tags audit rows on the Redis feed.
	FeedEventType = "audit_log.insert"
)

// Entry is the log_operation contract.
type Entry struct {
	Scope         string
	Op            string
	ObjectType    string
	ObjectID      string
	Params        interface{}
	SQL           string
	RowsAffected  *int64
	Status        string
	Error         string
	CorrelationID string
	Actor         string
	DurationMs    int64
	CreatedAt     time.Time
}

// LogOperation appends one audit row through db and returns its id.
func LogOperation(ctx context.Context, db *gorm.DB, e Entry) (int64, error) {
	row := e.row()
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, err
	}
	return row.ID, nil
}

func (e Entry) row() domain.AuditLog {
	row := domain.AuditLog{
		Scope:        e.Scope,
		Op:           e.Op,
		Status:       e.Status,
		RowsAffected: e.RowsAffected,
		CreatedAt:    e.CreatedAt,
	}
	if row.Status == "" {
		row.Status = domain.AuditSuccess
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	row.Actor = optional(e.Actor)
	row.CorrelationID = optional(e.CorrelationID)
	row.ObjectType = optional(e.ObjectType)
	row.ObjectID = optional(e.ObjectID)
	row.Error = optional(e.Error)
	if e.SQL != "" {
		sql := e.SQL
		if len(sql) > maxSQLLength {
			sql = sql[:maxSQLLength]
		}
		row.SQLStatement = &sql
	}
	dur := e.DurationMs
	row.DurationMs = &dur
	if e.Params != nil {
		if b, err := json.Marshal(e.Params); err == nil {
			row.Params = datatypes.JSON(b)
		}
	}
	return row
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Recorder starts trackers and owns the out-of-band write path.
type Recorder struct {
	DB      *gorm.DB
	Feed    *redisstream.Stream
	Metrics *metrics.Recorder
	Now     func() time.Time
	Backoff time.Duration
}

// Op identifies one audited invocation.
type Op struct {
	Scope         string
	Name          string
	ObjectType    string
	ObjectID      string
	Actor         string
	CorrelationID string
	Params        interface{}
}

func (r *Recorder) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// Start begins tracking an operation. Call Finish exactly once.
func (r *Recorder) Start(op Op) *Tracker {
	return &Tracker{r: r, op: op, start: time.Now()}
}

// Tracker accumulates the statements of one operation.
type Tracker struct {
	r       *Recorder
	op      Op
	start   time.Time
	sql     []string
	rows    int64
	written *domain.AuditLog
}

// SetObject records the primary object once it is known (e.g. a new lease id).
func (t *Tracker) SetObject(objectType, id string) {
	t.op.ObjectType = objectType
	t.op.ObjectID = id
}

// Exec records the SQL text and affected rows of a finished gorm call and
// returns it unchanged.
func (t *Tracker) Exec(res *gorm.DB) *gorm.DB {
	if res.Statement != nil {
		if s := res.Statement.SQL.String(); s != "" {
			t.sql = append(t.sql, s)
		}
	}
	if res.Error == nil {
		t.rows += res.RowsAffected
	}
	return res
}

func (t *Tracker) entry(status, errMsg string) Entry {
	rows := t.rows
	return Entry{
		Scope:         t.op.Scope,
		Op:            t.op.Name,
		ObjectType:    t.op.ObjectType,
		ObjectID:      t.op.ObjectID,
		Params:        t.op.Params,
		SQL:           strings.Join(t.sql, ";\n"),
		RowsAffected:  &rows,
		Status:        status,
		Error:         errMsg,
		CorrelationID: t.op.CorrelationID,
		Actor:         t.op.Actor,
		DurationMs:    time.Since(t.start).Milliseconds(),
		CreatedAt:     t.r.now(),
	}
}

// Succeed writes the success row inside tx under a savepoint, so a failing
// audit insert never aborts the surrounding transaction. If it fails, Finish
// retries on the base connection after commit.
func (t *Tracker) Succeed(tx *gorm.DB) {
	row := t.entry(domain.AuditSuccess, "").row()
	if err := tx.SavePoint(savepointName).Error; err != nil {
		log.Warn().Err(err).Str("op", t.op.Name).Msg("audit savepoint failed")
		return
	}
	if err := tx.Create(&row).Error; err != nil {
		log.Warn().Err(err).Str("op", t.op.Name).Msg("audit insert inside transaction failed")
		_ = tx.RollbackTo(savepointName).Error
		return
	}
	t.written = &row
}

// Finish completes the operation after its transaction has ended. opErr is
// the operation's outcome. Audit failures are logged and swallowed.
func (t *Tracker) Finish(ctx context.Context, opErr error) {
	success := opErr == nil
	var row *domain.AuditLog
	switch {
	case success && t.written != nil:
		row = t.written
	case success:
		row = t.writeOutOfBand(ctx, t.entry(domain.AuditSuccess, ""))
	default:
		// Anything written inside the transaction was rolled back with it.
		row = t.writeOutOfBand(ctx, t.entry(domain.AuditError, opErr.Error()))
	}
	t.r.Metrics.Observe(t.op.Name, success, time.Since(t.start))
	if row != nil && t.r.Feed != nil {
		if _, err := t.r.Feed.Append(ctx, FeedEventType, row); err != nil {
			log.Warn().Err(err).Int64("audit_id", row.ID).Msg("audit feed publish failed")
		}
	}
}

func (t *Tracker) writeOutOfBand(ctx context.Context, e Entry) *domain.AuditLog {
	row := e.row()
	backoff := t.r.Backoff
	if backoff <= 0 {
		backoff = 50 * time.Millisecond
	}
	// The operation may have been cancelled; the audit row must still land.
	wctx := context.WithoutCancel(ctx)
	var err error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		row.ID = 0
		if err = t.r.DB.WithContext(wctx).Create(&row).Error; err == nil {
			return &row
		}
		if attempt < writeAttempts {
			time.Sleep(backoff * time.Duration(attempt))
		}
	}
	log.Error().Err(err).Str("scope", e.Scope).Str("op", e.Op).Str("status", e.Status).
		Str("correlation_id", e.CorrelationID).Msg("audit log write failed")
	return nil
}
