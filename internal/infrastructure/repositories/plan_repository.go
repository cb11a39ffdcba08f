package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/db"
)

// PlanRepository implements the plan repository interface. Features and
// limits are stored as JSONB columns.
type PlanRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(database *db.Database, logger *logrus.Logger) ports.PlanRepository {
	return &PlanRepository{
		db:     database,
		logger: logger,
	}
}

// Create creates a new plan
func (r *PlanRepository) Create(ctx context.Context, p *plan.Plan) error {
	query := `
		INSERT INTO plans (id, name, features, limits)
		VALUES ($1, $2, $3, $4)`

	featuresJSON, err := json.Marshal(p.Features)
	if err != nil {
		return fmt.Errorf("failed to marshal features: %w", err)
	}
	limitsJSON, err := json.Marshal(p.Limits)
	if err != nil {
		return fmt.Errorf("failed to marshal limits: %w", err)
	}

	_, err = r.db.DB.ExecContext(ctx, query, p.ID, p.Name, featuresJSON, limitsJSON)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return nil
}

// GetByID retrieves a plan by ID
func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	query := `
		SELECT id, name, features, limits, created_at, updated_at
		FROM plans
		WHERE id = $1`

	return r.scanPlan(r.db.DB.QueryRowContext(ctx, query, id))
}

// GetByName retrieves a plan by its tier name
func (r *PlanRepository) GetByName(ctx context.Context, name plan.Name) (*plan.Plan, error) {
	query := `
		SELECT id, name, features, limits, created_at, updated_at
		FROM plans
		WHERE name = $1`

	return r.scanPlan(r.db.DB.QueryRowContext(ctx, query, name))
}

// Update updates an existing plan
func (r *PlanRepository) Update(ctx context.Context, p *plan.Plan) error {
	featuresJSON, err := json.Marshal(p.Features)
	if err != nil {
		return fmt.Errorf("failed to marshal features: %w", err)
	}
	limitsJSON, err := json.Marshal(p.Limits)
	if err != nil {
		return fmt.Errorf("failed to marshal limits: %w", err)
	}

	query := `
		UPDATE plans
		SET features = $2, limits = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, p.ID, featuresJSON, limitsJSON)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("plan not found")
	}

	return nil
}

// Delete removes a plan
func (r *PlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM plans WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("plan not found")
	}

	return nil
}

// List retrieves all plans ordered from least to most recent
func (r *PlanRepository) List(ctx context.Context) ([]*plan.Plan, error) {
	query := `
		SELECT id, name, features, limits, created_at, updated_at
		FROM plans
		ORDER BY created_at ASC`

	rows, err := r.db.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*plan.Plan
	for rows.Next() {
		p, err := r.scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}

	return plans, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PlanRepository) scanPlan(row rowScanner) (*plan.Plan, error) {
	var p plan.Plan
	var featuresJSON, limitsJSON sql.NullString

	err := row.Scan(&p.ID, &p.Name, &featuresJSON, &limitsJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("plan not found")
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	if featuresJSON.Valid && featuresJSON.String != "" {
		if err := json.Unmarshal([]byte(featuresJSON.String), &p.Features); err != nil {
			return nil, fmt.Errorf("failed to parse features: %w", err)
		}
	}
	if limitsJSON.Valid && limitsJSON.String != "" {
		if err := json.Unmarshal([]byte(limitsJSON.String), &p.Limits); err != nil {
			return nil, fmt.Errorf("failed to parse limits: %w", err)
		}
	}

	return &p, nil
}
