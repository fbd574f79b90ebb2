// Package audit writes security relevant actions to the ScyllaDB
// audit_logs table.
package audit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/rs/zerolog/log"

	"flower_shop/internal/models"
)

const (
	ActionUserRegister   = "user.register"
	ActionUserLogin      = "user.login"
	ActionUserLoginOAuth = "user.login_oauth"
	ActionProductCreate  = "product.create"
	ActionOrderCreate    = "order.create"
)

const createTable = `CREATE TABLE IF NOT EXISTS audit_logs (
	id timeuuid,
	user_id text,
	action text,
	resource text,
	resource_id text,
	new_value text,
	ip_address text,
	user_agent text,
	success boolean,
	error_msg text,
	timestamp timestamp,
	PRIMARY KEY ((action), timestamp, id)
) WITH CLUSTERING ORDER BY (timestamp DESC, id DESC)`

// Logger is safe to use with a nil session; entries then only reach the
// process log.
type Logger struct {
	session *gocql.Session
	pending sync.WaitGroup
}

func NewLogger(session *gocql.Session) *Logger {
	return &Logger{session: session}
}

func (l *Logger) EnsureSchema() error {
	if l == nil || l.session == nil {
		return nil
	}
	return l.session.Query(createTable).Exec()
}

func (l *Logger) Log(ctx context.Context, e models.AuditLog) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	if l == nil || l.session == nil {
		log.Debug().
			Str("action", e.Action).
			Str("user_id", e.UserID).
			Str("resource_id", e.ResourceID).
			Bool("success", e.Success).
			Msg("audit")
		return nil
	}

	id := gocql.UUIDFromTime(e.Timestamp)
	return l.session.Query(`INSERT INTO audit_logs (
			id, user_id, action, resource, resource_id, new_value,
			ip_address, user_agent, success, error_msg, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, e.UserID, e.Action, e.Resource, e.ResourceID, e.NewValue,
		e.IPAddress, e.UserAgent, e.Success, e.ErrorMsg, e.Timestamp,
	).WithContext(ctx).Exec()
}

// Record logs an action from a request in the background. Wait blocks
// until every recorded entry has been written.
func (l *Logger) Record(c *gin.Context, userID *uint, action, resource, resourceID string, failure error) {
	entry := Entry(c, userID, action, resource, resourceID, failure)
	if l == nil {
		_ = l.Log(c.Request.Context(), entry)
		return
	}

	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.Log(ctx, entry); err != nil {
			log.Warn().Err(err).Str("action", action).Msg("⚠️ audit log write failed")
		}
	}()
}

func (l *Logger) Wait() {
	if l == nil {
		return
	}
	l.pending.Wait()
}

func Entry(c *gin.Context, userID *uint, action, resource, resourceID string, failure error) models.AuditLog {
	e := models.AuditLog{
		UserID:     "guest",
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Success:    failure == nil,
		Timestamp:  time.Now().UTC(),
	}
	if userID != nil {
		e.UserID = strconv.FormatUint(uint64(*userID), 10)
	}
	if failure != nil {
		e.ErrorMsg = failure.Error()
	}
	return e
}
