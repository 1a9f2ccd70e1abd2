package aggregates

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/modules/authoring"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
)

// CourseGuard issues conditional UPDATEs against the course row. Every
// statement bumps version, so zero affected rows means another writer won.
type CourseGuard struct {
	db *gorm.DB
}

func NewCourseGuard(db *gorm.DB) CourseGuard {
	return CourseGuard{db: db}
}

func (g CourseGuard) conn(dbc dbctx.Context) (*gorm.DB, error) {
	switch {
	case dbc.Tx != nil:
		return dbc.Tx.WithContext(dbc.Ctx), nil
	case g.db != nil:
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, InvariantError("course guard has no database handle")
}

// SaveAt writes updates only while the row is still at c.Version, then
// advances c.Version to match the stored row.
func (g CourseGuard) SaveAt(dbc dbctx.Context, c *types.Course, updates map[string]any) error {
	db, err := g.conn(dbc)
	if err != nil {
		return err
	}
	updates["version"] = c.Version + 1
	res := db.Table(types.Course{}.TableName()).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ConflictError(fmt.Sprintf("course %s moved past version %d", c.ID, c.Version))
	}
	c.Version++
	return nil
}

// Transition moves c to `to` only while the stored status may still reach
// it. With pinVersion the stored version must also equal c.Version.
func (g CourseGuard) Transition(dbc dbctx.Context, c *types.Course, to types.CourseStatus, pinVersion bool, now time.Time) error {
	db, err := g.conn(dbc)
	if err != nil {
		return err
	}
	q := db.Table(types.Course{}.TableName()).
		Where("id = ? AND status IN ?", c.ID, authoring.SourcesOf(to))
	if pinVersion {
		q = q.Where("version = ?", c.Version)
	}
	res := q.Updates(map[string]any{
		"status":     to,
		"version":    gorm.Expr("version + 1"),
		"updated_at": now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ConflictError(fmt.Sprintf("course %s left %s before it could move to %s", c.ID, c.Status, to))
	}
	c.Status = to
	c.Version++
	c.UpdatedAt = now
	return nil
}
