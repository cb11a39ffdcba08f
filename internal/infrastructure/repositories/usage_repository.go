package repositories

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/domain/usage"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/db"
)

type usageRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewUsageRepository creates a new instance of UsageRepository
func NewUsageRepository(database *db.Database, logger *logrus.Logger) ports.UsageRepository {
	return &usageRepository{
		db:     database,
		logger: logger,
	}
}

// Create inserts a new usage record. Records are append-only; there is no
// update path.
func (r *usageRepository) Create(ctx context.Context, record *usage.Record) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO usage_records (id, user_id, resource_type, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.DB.ExecContext(ctx, query,
		record.ID, record.UserID, record.ResourceType, record.CreatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": record.UserID, "resource_type": record.ResourceType}).WithError(err).Error("db: failed to insert usage record")
		}
		return err
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"user_id": record.UserID, "resource_type": record.ResourceType, "id": record.ID}).Debug("db: usage record inserted")
	}
	return nil
}

// CountSince returns the number of records for user and resource created
// at or after since. This is the quota read path; it relies on the
// (user_id, resource_type, created_at) index.
func (r *usageRepository) CountSince(ctx context.Context, userID uuid.UUID, resourceType string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM usage_records
		WHERE user_id = $1 AND resource_type = $2 AND created_at >= $3`

	var count int
	err := r.db.DB.GetContext(ctx, &count, query, userID, resourceType, since)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": userID, "resource_type": resourceType}).WithError(err).Error("db: failed to count usage records")
		}
		return 0, err
	}
	return count, nil
}

// List retrieves usage records based on the provided filter
func (r *usageRepository) List(ctx context.Context, filter *usage.Filter) ([]*usage.Record, error) {
	query, args := r.buildListQuery(filter, false)
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"query": query, "args": args}).Debug("db: executing usage list query")
	}
	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"query": query}).WithError(err).Error("db: failed to execute usage list query")
		}
		return nil, err
	}
	defer rows.Close()

	var records []*usage.Record
	for rows.Next() {
		record := &usage.Record{}
		if err := rows.Scan(&record.ID, &record.UserID, &record.ResourceType, &record.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		if r.logger != nil {
			r.logger.WithError(err).Error("db: error iterating usage list rows")
		}
		return nil, err
	}

	return records, nil
}

// Count returns the total number of usage records matching the filter
func (r *usageRepository) Count(ctx context.Context, filter *usage.Filter) (int, error) {
	query, args := r.buildListQuery(filter, true)

	var count int
	err := r.db.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"query": query}).WithError(err).Error("db: failed to execute usage count query")
		}
		return 0, err
	}
	return count, nil
}

// buildListQuery constructs the SQL query and arguments for listing/counting usage records
func (r *usageRepository) buildListQuery(filter *usage.Filter, isCount bool) (string, []interface{}) {
	var selectClause string
	if isCount {
		selectClause = "SELECT COUNT(*)"
	} else {
		selectClause = "SELECT id, user_id, resource_type, created_at"
	}

	query := selectClause + " FROM usage_records"
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter != nil {
		if filter.UserID != nil {
			conditions = append(conditions, "user_id = $"+strconv.Itoa(argIndex))
			args = append(args, *filter.UserID)
			argIndex++
		}

		if filter.ResourceType != nil {
			conditions = append(conditions, "resource_type = $"+strconv.Itoa(argIndex))
			args = append(args, *filter.ResourceType)
			argIndex++
		}

		if filter.StartTime != nil {
			conditions = append(conditions, "created_at >= $"+strconv.Itoa(argIndex))
			args = append(args, *filter.StartTime)
			argIndex++
		}

		if filter.EndTime != nil {
			conditions = append(conditions, "created_at <= $"+strconv.Itoa(argIndex))
			args = append(args, *filter.EndTime)
			argIndex++
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if !isCount {
		query += " ORDER BY created_at DESC"

		if filter != nil {
			if filter.Limit > 0 {
				query += " LIMIT $" + strconv.Itoa(argIndex)
				args = append(args, filter.Limit)
				argIndex++
			}

			if filter.Offset > 0 {
				query += " OFFSET $" + strconv.Itoa(argIndex)
				args = append(args, filter.Offset)
				argIndex++
			}
		}
	}

	return query, args
}
