package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/maneesh/lumina/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GetSetting returns a setting value, or "" when it is not set
func (mc *MySQLClient) GetSetting(ctx context.Context, name string) (string, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_setting",
		trace.WithAttributes(attribute.String("setting", name)),
	)
	defer span.End()

	var value string
	err := mc.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	} else if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to query setting: %w", err)
	}
	return value, nil
}

// SetSetting stores a setting (insert or replace)
func (mc *MySQLClient) SetSetting(ctx context.Context, name, value string) error {
	ctx, span := tracer.Start(ctx, "mysql.set_setting",
		trace.WithAttributes(attribute.String("setting", name)),
	)
	defer span.End()

	_, err := mc.db.ExecContext(ctx,
		"INSERT INTO settings (name, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)",
		name, value,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

// CreateTenant inserts a tenant. Returns ErrConflict on duplicate slug.
func (mc *MySQLClient) CreateTenant(ctx context.Context, name, slug string) (int64, error) {
	ctx, span := tracer.Start(ctx, "mysql.create_tenant",
		trace.WithAttributes(attribute.String("slug", slug)),
	)
	defer span.End()

	res, err := mc.db.ExecContext(ctx,
		"INSERT INTO tenants (name, slug) VALUES (?, ?)", name, slug)
	if err != nil {
		if isDuplicateEntry(err) {
			return 0, ErrConflict
		}
		span.RecordError(err)
		return 0, fmt.Errorf("failed to insert tenant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to read insert id: %w", err)
	}
	return id, nil
}

// GetTenantBySlug returns a tenant by slug, or nil when missing
func (mc *MySQLClient) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_tenant",
		trace.WithAttributes(attribute.String("slug", slug)),
	)
	defer span.End()

	var t models.Tenant
	err := mc.db.QueryRowContext(ctx,
		"SELECT id, name, slug, created_at FROM tenants WHERE slug = ?", slug).
		Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query tenant: %w", err)
	}
	return &t, nil
}

// CreateUser inserts a user record. Credentials live with the external
// auth layer; only identity and tenant membership are stored here.
// Returns ErrConflict on duplicate username or email.
func (mc *MySQLClient) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	ctx, span := tracer.Start(ctx, "mysql.create_user",
		trace.WithAttributes(attribute.String("username", u.Username)),
	)
	defer span.End()

	role := u.Role
	if role == "" {
		role = "user"
	}
	res, err := mc.db.ExecContext(ctx,
		"INSERT INTO users (username, email, role, tenant_id) VALUES (?, ?, ?, ?)",
		u.Username, u.Email, role, nullableID(u.TenantID),
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return 0, ErrConflict
		}
		span.RecordError(err)
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to read insert id: %w", err)
	}
	return id, nil
}

// ListUsers returns active users, optionally filtered by tenant
func (mc *MySQLClient) ListUsers(ctx context.Context, tenantID int64) ([]models.User, error) {
	ctx, span := tracer.Start(ctx, "mysql.list_users")
	defer span.End()

	query := "SELECT id, username, email, role, tenant_id, is_active, created_at FROM users WHERE is_active = 1"
	var args []any
	if tenantID != 0 {
		query += " AND tenant_id = ?"
		args = append(args, tenantID)
	}
	query += " ORDER BY username"

	rows, err := mc.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var tid sql.NullInt64
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &tid, &u.IsActive, &u.CreatedAt); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.TenantID = tid.Int64
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	span.SetAttributes(attribute.Int("user_count", len(users)))
	return users, nil
}

// DeactivateUser soft-deletes a user. Returns whether a row changed.
func (mc *MySQLClient) DeactivateUser(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "mysql.deactivate_user",
		trace.WithAttributes(attribute.Int64("user_id", id)),
	)
	defer span.End()

	res, err := mc.db.ExecContext(ctx,
		"UPDATE users SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND is_active = 1", id)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to deactivate user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}
