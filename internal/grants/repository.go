package grants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
	"github.com/gameguild-gg/gameguild-sub001/internal/platform/db"
)

const (
	tenantTable      = "tenant_permissions"
	contentTypeTable = "content_type_permissions"

	uniqueViolation = "23505"
	upsertSavepoint = "grant_upsert"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the PostgreSQL grant store. It satisfies Store and TxStore.
type Repository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	now     func() time.Time
	// inTx is set on stores bound by WithTx.
	inTx bool
}

// NewRepository constructs a repository backed by any executor that satisfies
// pgExecutor (*pgxpool.Pool, pgx.Tx or a pgxmock pool).
func NewRepository(exec pgExecutor) *Repository {
	return &Repository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:     time.Now,
	}
}

// WithClock overrides the audit timestamp source.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	clone := *r
	clone.now = now
	return &clone
}

// WithTx runs fn with a store bound to one read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	beginner, ok := r.exec.(db.Beginner)
	if !ok {
		return errors.New("grants: executor does not support transactions")
	}
	return db.WithTx(ctx, beginner, func(tx pgx.Tx) error {
		return fn(ctx, &Repository{exec: tx, builder: r.builder, now: r.now, inTx: true})
	})
}

type table struct {
	name   string
	scope  Scope
	target string
}

func tableFor(scope Scope) (table, error) {
	switch scope.Kind {
	case ScopeTenant:
		return table{name: tenantTable, scope: TenantLevel()}, nil
	case ScopeContentType:
		return table{name: contentTypeTable, scope: Scope{Kind: ScopeContentType}, target: "content_type"}, nil
	case ScopeResource:
		name, ok := scope.ContentType.ResourceTable()
		if !ok {
			return table{}, fmt.Errorf("%w: %w: %q", ErrInvalidGrant, permission.ErrUnknownContentType, scope.ContentType)
		}
		return table{name: name, scope: Scope{Kind: ScopeResource, ContentType: scope.ContentType}, target: "resource_id"}, nil
	default:
		return table{}, fmt.Errorf("%w: scope kind %d", ErrInvalidGrant, scope.Kind)
	}
}

func (t table) columns() []string {
	cols := []string{"id", "user_id", "tenant_id"}
	if t.target != "" {
		cols = append(cols, t.target)
	}
	return append(cols, "permission_flags1", "permission_flags2", "expires_at", "created_at", "updated_at", "deleted_at")
}

func (t table) keyColumns() []string {
	cols := []string{"user_id", "tenant_id"}
	if t.target != "" {
		cols = append(cols, t.target)
	}
	return cols
}

func (t table) keyWhere(key Key) squirrel.Eq {
	where := squirrel.Eq{
		"user_id":   userColumn(key.UserID),
		"tenant_id": key.Tenant.column(),
	}
	switch t.target {
	case "content_type":
		where["content_type"] = string(key.Scope.ContentType)
	case "resource_id":
		where["resource_id"] = key.Scope.ResourceID
	}
	return where
}

func userColumn(u uuid.NullUUID) any {
	if !u.Valid {
		return nil
	}
	return u.UUID
}

func (t table) scan(row pgx.Row) (Grant, error) {
	var (
		g              Grant
		tenant         uuid.NullUUID
		contentType    string
		resourceID     uuid.UUID
		flags1, flags2 int64
	)
	dest := []any{&g.ID, &g.UserID, &tenant}
	switch t.target {
	case "content_type":
		dest = append(dest, &contentType)
	case "resource_id":
		dest = append(dest, &resourceID)
	}
	dest = append(dest, &flags1, &flags2, &g.ExpiresAt, &g.CreatedAt, &g.UpdatedAt, &g.DeletedAt)
	if err := row.Scan(dest...); err != nil {
		return Grant{}, err
	}
	g.Tenant = tenantFromColumn(tenant)
	g.Flags = permission.FromColumns(flags1, flags2)
	g.Scope = t.scope
	switch t.target {
	case "content_type":
		g.Scope.ContentType = permission.ContentType(contentType)
	case "resource_id":
		g.Scope.ResourceID = resourceID
	}
	return g, nil
}

// FindTenantGrant returns the active tenant-level grant for user in tenant.
func (r *Repository) FindTenantGrant(ctx context.Context, user uuid.NullUUID, tenant TenantScope, now time.Time) (Grant, error) {
	return r.findActive(ctx, Key{UserID: user, Tenant: tenant, Scope: TenantLevel()}, now)
}

// FindContentTypeGrant returns the active content-type grant for user in tenant.
func (r *Repository) FindContentTypeGrant(ctx context.Context, user uuid.NullUUID, tenant TenantScope, ct permission.ContentType, now time.Time) (Grant, error) {
	return r.findActive(ctx, Key{UserID: user, Tenant: tenant, Scope: ContentTypeLevel(ct)}, now)
}

// FindResourceGrant returns the active resource grant for user in tenant.
func (r *Repository) FindResourceGrant(ctx context.Context, user uuid.NullUUID, tenant TenantScope, ct permission.ContentType, resourceID uuid.UUID, now time.Time) (Grant, error) {
	return r.findActive(ctx, Key{UserID: user, Tenant: tenant, Scope: ResourceLevel(ct, resourceID)}, now)
}

func (r *Repository) findActive(ctx context.Context, key Key, now time.Time) (Grant, error) {
	if err := key.Validate(); err != nil {
		return Grant{}, err
	}
	t, err := tableFor(key.Scope)
	if err != nil {
		return Grant{}, err
	}
	stmt, args, err := r.builder.Select(t.columns()...).
		From(t.name).
		Where(t.keyWhere(key)).
		Where("deleted_at IS NULL").
		Where(squirrel.Or{squirrel.Eq{"expires_at": nil}, squirrel.Gt{"expires_at": now}}).
		Limit(1).
		ToSql()
	if err != nil {
		return Grant{}, fmt.Errorf("grants: build find %s sql: %w", t.name, err)
	}
	g, err := t.scan(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Grant{}, ErrNotFound
		}
		return Grant{}, fmt.Errorf("%w: find %s: %w", ErrStoreUnavailable, t.name, err)
	}
	return g, nil
}

// Get returns the live grant for key regardless of expiry and locks it for
// the remainder of the surrounding transaction.
func (r *Repository) Get(ctx context.Context, key Key) (Grant, error) {
	if err := key.Validate(); err != nil {
		return Grant{}, err
	}
	t, err := tableFor(key.Scope)
	if err != nil {
		return Grant{}, err
	}
	stmt, args, err := r.builder.Select(t.columns()...).
		From(t.name).
		Where(t.keyWhere(key)).
		Where("deleted_at IS NULL").
		Limit(1).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return Grant{}, fmt.Errorf("grants: build get %s sql: %w", t.name, err)
	}
	g, err := t.scan(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Grant{}, ErrNotFound
		}
		return Grant{}, fmt.Errorf("grants: get %s: %w", t.name, err)
	}
	return g, nil
}

// GetByID returns the live grant id from scope's table.
func (r *Repository) GetByID(ctx context.Context, scope Scope, id uuid.UUID) (Grant, error) {
	t, err := tableFor(scope)
	if err != nil {
		return Grant{}, err
	}
	stmt, args, err := r.builder.Select(t.columns()...).
		From(t.name).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return Grant{}, fmt.Errorf("grants: build get %s by id sql: %w", t.name, err)
	}
	g, err := t.scan(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Grant{}, ErrNotFound
		}
		return Grant{}, fmt.Errorf("%w: get %s by id: %w", ErrStoreUnavailable, t.name, err)
	}
	return g, nil
}

// ListForUser returns every live grant held by user across all scopes.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Grant, error) {
	tables := []table{
		{name: tenantTable, scope: TenantLevel()},
		{name: contentTypeTable, scope: Scope{Kind: ScopeContentType}, target: "content_type"},
	}
	for _, ct := range permission.ContentTypes() {
		t, err := tableFor(Scope{Kind: ScopeResource, ContentType: ct})
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	var out []Grant
	for _, t := range tables {
		stmt, args, err := r.builder.Select(t.columns()...).
			From(t.name).
			Where(squirrel.Eq{"user_id": userID}).
			Where("deleted_at IS NULL").
			OrderBy("created_at ASC").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("grants: build list %s sql: %w", t.name, err)
		}
		rows, err := r.exec.Query(ctx, stmt, args...)
		if err != nil {
			return nil, fmt.Errorf("grants: list %s: %w", t.name, err)
		}
		for rows.Next() {
			g, err := t.scan(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("grants: scan %s: %w", t.name, err)
			}
			out = append(out, g)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("grants: iterate %s: %w", t.name, err)
		}
	}
	return out, nil
}

// Upsert writes g by natural key. An existing live row has its flags, expiry
// and updated_at overwritten; a duplicate row is never created.
func (r *Repository) Upsert(ctx context.Context, g Grant) (Grant, error) {
	if err := g.Key().Validate(); err != nil {
		return Grant{}, err
	}
	t, err := tableFor(g.Scope)
	if err != nil {
		return Grant{}, err
	}

	now := r.now().UTC()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	if g.UpdatedAt.Before(g.CreatedAt) {
		g.UpdatedAt = g.CreatedAt
	}
	g.DeletedAt = nil

	flags1, flags2 := g.Flags.Columns()
	values := []any{g.ID, userColumn(g.UserID), g.Tenant.column()}
	switch t.target {
	case "content_type":
		values = append(values, string(g.Scope.ContentType))
	case "resource_id":
		values = append(values, g.Scope.ResourceID)
	}
	values = append(values, flags1, flags2, g.ExpiresAt, g.CreatedAt, g.UpdatedAt)

	cols := t.columns()
	stmt, args, err := r.builder.Insert(t.name).
		Columns(cols[:len(cols)-1]...).
		Values(values...).
		Suffix(fmt.Sprintf(
			"ON CONFLICT (%s) WHERE deleted_at IS NULL DO UPDATE SET "+
				"permission_flags1 = EXCLUDED.permission_flags1, "+
				"permission_flags2 = EXCLUDED.permission_flags2, "+
				"expires_at = EXCLUDED.expires_at, "+
				"updated_at = GREATEST(%s.updated_at, EXCLUDED.updated_at) "+
				"RETURNING id, created_at, updated_at",
			strings.Join(t.keyColumns(), ", "), t.name)).
		ToSql()
	if err != nil {
		return Grant{}, fmt.Errorf("grants: build upsert %s sql: %w", t.name, err)
	}

	// A unique violation aborts the surrounding transaction, so inside one the
	// insert runs under a savepoint that the update fallback can roll back to.
	if err := r.savepoint(ctx, "SAVEPOINT "); err != nil {
		return Grant{}, fmt.Errorf("grants: upsert %s: %w", t.name, err)
	}
	err = r.exec.QueryRow(ctx, stmt, args...).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err == nil {
		if err := r.savepoint(ctx, "RELEASE SAVEPOINT "); err != nil {
			return Grant{}, fmt.Errorf("grants: upsert %s: %w", t.name, err)
		}
		return g, nil
	}
	if !isUniqueViolation(err) {
		return Grant{}, fmt.Errorf("grants: upsert %s: %w", t.name, err)
	}
	if err := r.savepoint(ctx, "ROLLBACK TO SAVEPOINT "); err != nil {
		return Grant{}, fmt.Errorf("grants: upsert %s: %w", t.name, err)
	}
	return r.updateByKey(ctx, t, g)
}

func (r *Repository) savepoint(ctx context.Context, verb string) error {
	if !r.inTx {
		return nil
	}
	if _, err := r.exec.Exec(ctx, verb+upsertSavepoint); err != nil {
		return fmt.Errorf("%s%s: %w", strings.ToLower(verb), upsertSavepoint, err)
	}
	return nil
}

// updateByKey resolves a duplicate-key insert into an update of the live row.
func (r *Repository) updateByKey(ctx context.Context, t table, g Grant) (Grant, error) {
	flags1, flags2 := g.Flags.Columns()
	stmt, args, err := r.builder.Update(t.name).
		Set("permission_flags1", flags1).
		Set("permission_flags2", flags2).
		Set("expires_at", g.ExpiresAt).
		Set("updated_at", squirrel.Expr("GREATEST(updated_at, ?)", g.UpdatedAt)).
		Where(t.keyWhere(g.Key())).
		Where("deleted_at IS NULL").
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return Grant{}, fmt.Errorf("grants: build update %s sql: %w", t.name, err)
	}
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Grant{}, fmt.Errorf("%w: %s vanished during update", ErrDuplicateGrantKey, g.Key())
		}
		return Grant{}, fmt.Errorf("grants: update %s: %w", t.name, err)
	}
	return g, nil
}

// SoftDelete marks the live grant id in scope's table as deleted.
func (r *Repository) SoftDelete(ctx context.Context, scope Scope, id uuid.UUID) error {
	t, err := tableFor(scope)
	if err != nil {
		return err
	}
	now := r.now().UTC()
	stmt, args, err := r.builder.Update(t.name).
		Set("deleted_at", now).
		Set("updated_at", squirrel.Expr("GREATEST(updated_at, ?)", now)).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("grants: build soft delete %s sql: %w", t.name, err)
	}
	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("grants: soft delete %s: %w", t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeUserGrants hard-deletes every tenant-level and content-type grant held
// by user. Only the super-admin bootstrap uses it.
func (r *Repository) PurgeUserGrants(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	for _, name := range []string{tenantTable, contentTypeTable} {
		stmt, args, err := r.builder.Delete(name).Where(squirrel.Eq{"user_id": userID}).ToSql()
		if err != nil {
			return 0, fmt.Errorf("grants: build purge %s sql: %w", name, err)
		}
		tag, err := r.exec.Exec(ctx, stmt, args...)
		if err != nil {
			return 0, fmt.Errorf("grants: purge %s: %w", name, err)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
