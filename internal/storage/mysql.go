package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/maneesh/lumina/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrDuplicateAsset is returned by InsertAsset when an asset with the
// same remote media id already exists. Concurrent double-submission of
// the same upload is an expected race, so callers treat this as a no-op.
var ErrDuplicateAsset = errors.New("asset with this remote media id already exists")

// ErrConflict is returned when a unique constraint rejects an insert
// (duplicate tenant slug, username or email).
var ErrConflict = errors.New("record already exists")

const mysqlDuplicateEntry = 1062

// MySQLClient wraps gallery metadata storage with tracing
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient initializes a new MySQL client
func NewMySQLClient(dsn string) (*MySQLClient, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &MySQLClient{db: db}, nil
}

// Close closes the database connection
func (mc *MySQLClient) Close() error {
	return mc.db.Close()
}

// Ping verifies database connectivity for health checks
func (mc *MySQLClient) Ping(ctx context.Context) error {
	return mc.db.PingContext(ctx)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(64) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		role VARCHAR(16) NOT NULL DEFAULT 'user',
		tenant_id BIGINT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_users_tenant (tenant_id),
		CONSTRAINT fk_users_tenant FOREIGN KEY (tenant_id) REFERENCES tenants(id)
	)`,
	`CREATE TABLE IF NOT EXISTS albums (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NULL,
		user_id BIGINT NULL,
		tenant_id BIGINT NULL,
		parent_id BIGINT NULL,
		is_public TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_albums_user (user_id),
		INDEX idx_albums_tenant (tenant_id),
		INDEX idx_albums_parent (parent_id),
		CONSTRAINT fk_albums_parent FOREIGN KEY (parent_id) REFERENCES albums(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS gallery_assets (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		wp_media_id BIGINT NOT NULL UNIQUE,
		title VARCHAR(512) NOT NULL,
		file_name VARCHAR(512) NOT NULL,
		mime_type VARCHAR(128) NOT NULL,
		url_full TEXT NOT NULL,
		url_thumbnail TEXT NOT NULL,
		url_medium TEXT NOT NULL,
		user_id BIGINT NULL,
		tenant_id BIGINT NULL,
		album_id BIGINT NULL,
		is_public TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_assets_created (created_at),
		INDEX idx_assets_tenant (tenant_id),
		INDEX idx_assets_user (user_id),
		INDEX idx_assets_album (album_id),
		CONSTRAINT fk_assets_album FOREIGN KEY (album_id) REFERENCES albums(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		name VARCHAR(191) PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// InitSchema creates the database schema if it doesn't exist
func (mc *MySQLClient) InitSchema(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "mysql.init_schema")
	defer span.End()

	for _, stmt := range schema {
		if _, err := mc.db.ExecContext(ctx, stmt); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// isDuplicateEntry reports whether err is a MySQL unique-key violation
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// nullableID maps a zero id to SQL NULL
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

const assetColumns = `id, wp_media_id, title, file_name, mime_type,
	url_full, url_thumbnail, url_medium, user_id, tenant_id, album_id,
	is_public, created_at, updated_at`

func scanAsset(rows *sql.Rows) (models.Asset, error) {
	var a models.Asset
	var userID, tenantID, albumID sql.NullInt64
	err := rows.Scan(
		&a.ID,
		&a.RemoteID,
		&a.Title,
		&a.FileName,
		&a.MimeType,
		&a.URLFull,
		&a.URLThumbnail,
		&a.URLMedium,
		&userID,
		&tenantID,
		&albumID,
		&a.IsPublic,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return a, err
	}
	a.UserID = userID.Int64
	a.TenantID = tenantID.Int64
	a.AlbumID = albumID.Int64
	return a, nil
}

// QueryAssets returns filtered assets ordered newest first, up to limit
// rows starting at offset. Ties on created_at break by id descending so
// pagination stays stable.
func (mc *MySQLClient) QueryAssets(ctx context.Context, f models.AssetFilter, limit, offset int) ([]models.Asset, error) {
	ctx, span := tracer.Start(ctx, "mysql.query_assets",
		trace.WithAttributes(
			attribute.Int("limit", limit),
			attribute.Int("offset", offset),
			attribute.Bool("public_only", f.PublicOnly),
		),
	)
	defer span.End()

	clauses, args := assetConditions(f)
	query := "SELECT " + assetColumns + " FROM gallery_assets" + whereSQL(clauses) +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := mc.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	span.SetAttributes(attribute.Int("asset_count", len(assets)))
	return assets, nil
}

// InsertAsset stores a new asset record. New assets are public by
// default. Returns ErrDuplicateAsset when the remote media id is taken.
func (mc *MySQLClient) InsertAsset(ctx context.Context, a *models.Asset) (int64, error) {
	ctx, span := tracer.Start(ctx, "mysql.insert_asset",
		trace.WithAttributes(
			attribute.Int64("wp_media_id", a.RemoteID),
			attribute.String("file_name", a.FileName),
		),
	)
	defer span.End()

	query := `INSERT INTO gallery_assets (
			wp_media_id, title, file_name, mime_type,
			url_full, url_thumbnail, url_medium,
			user_id, tenant_id, album_id, is_public
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`

	res, err := mc.db.ExecContext(ctx, query,
		a.RemoteID, a.Title, a.FileName, a.MimeType,
		a.URLFull, a.URLThumbnail, a.URLMedium,
		nullableID(a.UserID), nullableID(a.TenantID), nullableID(a.AlbumID),
	)
	if err != nil {
		if isDuplicateEntry(err) {
			span.SetAttributes(attribute.Bool("duplicate", true))
			return 0, ErrDuplicateAsset
		}
		span.RecordError(err)
		return 0, fmt.Errorf("failed to insert asset: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to read insert id: %w", err)
	}
	span.SetAttributes(attribute.Int64("asset_id", id))
	return id, nil
}

// DeleteAssets deletes the requested assets that fall within scope and
// returns their remote media ids for host-side cleanup. Ids outside
// scope are silently excluded.
func (mc *MySQLClient) DeleteAssets(ctx context.Context, ids []int64, scope models.Scope) ([]int64, error) {
	ctx, span := tracer.Start(ctx, "mysql.delete_assets",
		trace.WithAttributes(attribute.Int("requested", len(ids))),
	)
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	tx, err := mc.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	args := make([]any, 0, len(ids)+2)
	for _, id := range ids {
		args = append(args, id)
	}
	clauses, scopeArgs := scopeConditions(scope)
	query := "SELECT id, wp_media_id FROM gallery_assets WHERE id IN (" + placeholders(len(ids)) + ")"
	if len(clauses) > 0 {
		query += " AND " + strings.Join(clauses, " AND ")
		args = append(args, scopeArgs...)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to resolve deletable assets: %w", err)
	}
	var allowed []int64
	var remoteIDs []int64
	for rows.Next() {
		var id, remoteID int64
		if err := rows.Scan(&id, &remoteID); err != nil {
			rows.Close()
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan asset id: %w", err)
		}
		allowed = append(allowed, id)
		remoteIDs = append(remoteIDs, remoteID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	if len(allowed) == 0 {
		span.SetAttributes(attribute.Int("deleted", 0))
		return nil, nil
	}

	delArgs := make([]any, 0, len(allowed))
	for _, id := range allowed {
		delArgs = append(delArgs, id)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM gallery_assets WHERE id IN ("+placeholders(len(allowed))+")", delArgs...); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to delete assets: %w", err)
	}
	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}

	span.SetAttributes(attribute.Int("deleted", len(allowed)))
	return remoteIDs, nil
}

// UpdateAssetVisibility sets is_public on an asset within scope.
// Returns whether a row changed.
func (mc *MySQLClient) UpdateAssetVisibility(ctx context.Context, id int64, isPublic bool, scope models.Scope) (bool, error) {
	ctx, span := tracer.Start(ctx, "mysql.update_asset_visibility",
		trace.WithAttributes(
			attribute.Int64("asset_id", id),
			attribute.Bool("is_public", isPublic),
		),
	)
	defer span.End()

	args := []any{isPublic, id}
	query := "UPDATE gallery_assets SET is_public = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	clauses, scopeArgs := scopeConditions(scope)
	if len(clauses) > 0 {
		query += " AND " + strings.Join(clauses, " AND ")
		args = append(args, scopeArgs...)
	}

	res, err := mc.db.ExecContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to update visibility: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	span.SetAttributes(attribute.Int64("affected", affected))
	return affected > 0, nil
}

// MoveAssetsToAlbum reassigns assets within scope to an album
// (albumID 0 clears the membership). Returns the number of rows moved.
func (mc *MySQLClient) MoveAssetsToAlbum(ctx context.Context, ids []int64, albumID int64, scope models.Scope) (int64, error) {
	ctx, span := tracer.Start(ctx, "mysql.move_assets_to_album",
		trace.WithAttributes(
			attribute.Int("requested", len(ids)),
			attribute.Int64("album_id", albumID),
		),
	)
	defer span.End()

	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(ids)+3)
	args = append(args, nullableID(albumID))
	for _, id := range ids {
		args = append(args, id)
	}
	query := "UPDATE gallery_assets SET album_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id IN (" +
		placeholders(len(ids)) + ")"
	clauses, scopeArgs := scopeConditions(scope)
	if len(clauses) > 0 {
		query += " AND " + strings.Join(clauses, " AND ")
		args = append(args, scopeArgs...)
	}

	res, err := mc.db.ExecContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to move assets: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	span.SetAttributes(attribute.Int64("affected", affected))
	return affected, nil
}
