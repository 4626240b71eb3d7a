package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, r *Room) error
	GetByID(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context, filter Filter) ([]*Room, int, error)
	Update(ctx context.Context, r *Room) error
	Delete(ctx context.Context, id string) error
}

var roomColumns = []string{
	"id", "name", "capacity", "equipment", "image_file_id", "description",
	"location_type", "is_available", "is_recorded", "created_at",
}

type pgxRepository struct {
	pool *pgxpool.Pool
	psql squirrel.StatementBuilderType
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{
		pool: pool,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanRoom(row pgx.Row, extra ...any) (*Room, error) {
	var rm Room
	dest := []any{
		&rm.ID, &rm.Name, &rm.Capacity, &rm.Equipment, &rm.ImageFileID, &rm.Description,
		&rm.LocationType, &rm.IsAvailable, &rm.IsRecorded, &rm.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if rm.Equipment == nil {
		rm.Equipment = []string{}
	}
	return &rm, nil
}

func (r *pgxRepository) Create(ctx context.Context, rm *Room) error {
	query, args, err := r.psql.Insert("public.rooms").
		Columns("name", "capacity", "equipment", "image_file_id", "description",
			"location_type", "is_available", "is_recorded").
		Values(rm.Name, rm.Capacity, rm.Equipment, rm.ImageFileID, rm.Description,
			rm.LocationType, rm.IsAvailable, rm.IsRecorded).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create room query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&rm.ID, &rm.CreatedAt); err != nil {
		return fmt.Errorf("create room failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Room, error) {
	query, args, err := r.psql.Select(roomColumns...).
		From("public.rooms").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get room query failed: %w", err)
	}

	rm, err := scanRoom(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room failed: %w", err)
	}
	return rm, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Room, int, error) {
	query := r.psql.Select(append(roomColumns, "count(*) OVER() AS total_count")...).
		From("public.rooms")

	if filter.LocationType != "" {
		query = query.Where(squirrel.Eq{"location_type": filter.LocationType})
	}
	if filter.IsAvailable != nil {
		query = query.Where(squirrel.Eq{"is_available": *filter.IsAvailable})
	}
	if filter.Search != "" {
		query = query.Where(squirrel.ILike{"name": "%" + filter.Search + "%"})
	}

	orderBy := "name"
	if filter.SortBy != "" {
		orderBy = filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	query = query.OrderBy(orderBy+" "+orderDir, "id")

	if filter.PageSize > 0 {
		if filter.Page < 1 {
			filter.Page = 1
		}
		query = query.Limit(uint64(filter.PageSize)).Offset(uint64((filter.Page - 1) * filter.PageSize))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list rooms query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list rooms failed: %w", err)
	}
	defer rows.Close()

	var result []*Room
	var total int
	for rows.Next() {
		rm, err := scanRoom(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan room failed: %w", err)
		}
		result = append(result, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rooms failed: %w", err)
	}

	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, rm *Room) error {
	query, args, err := r.psql.Update("public.rooms").
		Set("name", rm.Name).
		Set("capacity", rm.Capacity).
		Set("equipment", rm.Equipment).
		Set("image_file_id", rm.ImageFileID).
		Set("description", rm.Description).
		Set("location_type", rm.LocationType).
		Set("is_available", rm.IsAvailable).
		Set("is_recorded", rm.IsRecorded).
		Where(squirrel.Eq{"id": rm.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update room query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update room failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the room only. Bookings keep a dangling room_id.
func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM public.rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete room failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
