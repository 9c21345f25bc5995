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

const albumColumns = `id, name, description, user_id, tenant_id, parent_id,
	is_public, created_at, updated_at`

func scanAlbum(scanner interface{ Scan(...any) error }) (models.Album, error) {
	var al models.Album
	var description sql.NullString
	var userID, tenantID, parentID sql.NullInt64
	err := scanner.Scan(
		&al.ID,
		&al.Name,
		&description,
		&userID,
		&tenantID,
		&parentID,
		&al.IsPublic,
		&al.CreatedAt,
		&al.UpdatedAt,
	)
	if err != nil {
		return al, err
	}
	al.Description = description.String
	al.UserID = userID.Int64
	al.TenantID = tenantID.Int64
	al.ParentID = parentID.Int64
	return al, nil
}

// CreateAlbum inserts a new album and returns its id
func (mc *MySQLClient) CreateAlbum(ctx context.Context, al *models.Album) (int64, error) {
	ctx, span := tracer.Start(ctx, "mysql.create_album",
		trace.WithAttributes(attribute.String("name", al.Name)),
	)
	defer span.End()

	var description any
	if al.Description != "" {
		description = al.Description
	}
	res, err := mc.db.ExecContext(ctx,
		`INSERT INTO albums (name, description, user_id, tenant_id, parent_id, is_public)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		al.Name, description, nullableID(al.UserID), nullableID(al.TenantID),
		nullableID(al.ParentID), al.IsPublic,
	)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to insert album: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to read insert id: %w", err)
	}
	span.SetAttributes(attribute.Int64("album_id", id))
	return id, nil
}

// GetAlbum returns an album by id, or nil when it doesn't exist
func (mc *MySQLClient) GetAlbum(ctx context.Context, id int64) (*models.Album, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_album",
		trace.WithAttributes(attribute.Int64("album_id", id)),
	)
	defer span.End()

	row := mc.db.QueryRowContext(ctx,
		"SELECT "+albumColumns+" FROM albums WHERE id = ?", id)
	al, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, nil
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query album: %w", err)
	}
	span.SetAttributes(attribute.Bool("found", true))
	return &al, nil
}

// ListAlbums returns albums filtered by tenant and/or user, newest first
func (mc *MySQLClient) ListAlbums(ctx context.Context, tenantID, userID int64) ([]models.Album, error) {
	ctx, span := tracer.Start(ctx, "mysql.list_albums")
	defer span.End()

	var clauses []string
	var args []any
	if tenantID != 0 {
		clauses = append(clauses, "tenant_id = ?")
		args = append(args, tenantID)
	}
	if userID != 0 {
		clauses = append(clauses, "user_id = ?")
		args = append(args, userID)
	}
	query := "SELECT " + albumColumns + " FROM albums" + whereSQL(clauses) +
		" ORDER BY created_at DESC, id DESC"

	rows, err := mc.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	var albums []models.Album
	for rows.Next() {
		al, err := scanAlbum(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, al)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating albums: %w", err)
	}
	span.SetAttributes(attribute.Int("album_count", len(albums)))
	return albums, nil
}

// UpdateAlbum updates album details. Returns whether a row changed.
func (mc *MySQLClient) UpdateAlbum(ctx context.Context, al *models.Album) (bool, error) {
	ctx, span := tracer.Start(ctx, "mysql.update_album",
		trace.WithAttributes(attribute.Int64("album_id", al.ID)),
	)
	defer span.End()

	var description any
	if al.Description != "" {
		description = al.Description
	}
	res, err := mc.db.ExecContext(ctx,
		`UPDATE albums SET name = ?, description = ?, parent_id = ?, is_public = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		al.Name, description, nullableID(al.ParentID), al.IsPublic, al.ID,
	)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to update album: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteAlbum deletes an album. Member assets keep existing but their
// album reference is cleared by the foreign key (ON DELETE SET NULL).
func (mc *MySQLClient) DeleteAlbum(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "mysql.delete_album",
		trace.WithAttributes(attribute.Int64("album_id", id)),
	)
	defer span.End()

	res, err := mc.db.ExecContext(ctx, "DELETE FROM albums WHERE id = ?", id)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to delete album: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}
