package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatusUpdate is a compare-and-set status change: it applies only while the row is still in From.
type StatusUpdate struct {
	ID      string
	RoomID  string
	From    Status
	To      Status
	VideoID *string // stored with COMPLETED
}

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	UpdateStatus(ctx context.Context, u StatusUpdate) (*Booking, error)
	SetVideo(ctx context.Context, id string, videoID *string) (*Booking, error)
	Delete(ctx context.Context, id string) error
}

var bookingColumns = []string{
	"id", "room_id", "user_id", "user_name", "title", "investigator_id", "second_investigator_id",
	"interrogated_name", "offenses", "type", "description", "start_time", "end_time", "status",
	"is_recorded", "checkout_video_id", "phone_number", "created_at", "updated_at",
}

var sortColumns = map[string]string{
	"start_time": "start_time",
	"end_time":   "end_time",
	"created_at": "created_at",
	"status":     "status",
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

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	dest := []any{
		&b.ID, &b.RoomID, &b.UserID, &b.UserName, &b.Title, &b.InvestigatorID, &b.SecondInvestigatorID,
		&b.InterrogatedName, &b.Offenses, &b.Type, &b.Description, &b.StartTime, &b.EndTime, &b.Status,
		&b.IsRecorded, &b.CheckoutVideoID, &b.PhoneNumber, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	query, args, err := r.psql.Insert("public.bookings").
		Columns("room_id", "user_id", "user_name", "title", "investigator_id", "second_investigator_id",
			"interrogated_name", "offenses", "type", "description", "start_time", "end_time", "status",
			"is_recorded", "phone_number").
		Values(b.RoomID, b.UserID, b.UserName, b.Title, b.InvestigatorID, b.SecondInvestigatorID,
			b.InterrogatedName, b.Offenses, b.Type, b.Description, b.StartTime, b.EndTime, b.Status,
			b.IsRecorded, b.PhoneNumber).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := r.psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := r.psql.Select(append(bookingColumns, "count(*) OVER() AS total_count")...).
		From("public.bookings")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.RoomID != "" {
		query = query.Where(squirrel.Eq{"room_id": filter.RoomID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query = query.Where(squirrel.Eq{"status": statuses})
	}
	// Date range filtering (intersection logic)
	if filter.StartTime != nil {
		query = query.Where(squirrel.Gt{"end_time": *filter.StartTime})
	}
	if filter.EndTime != nil {
		query = query.Where(squirrel.Lt{"start_time": *filter.EndTime})
	}
	if filter.HasVideo != nil {
		if *filter.HasVideo {
			query = query.Where(squirrel.NotEq{"checkout_video_id": nil})
		} else {
			query = query.Where(squirrel.Eq{"checkout_video_id": nil})
		}
	}

	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = "start_time"
	}
	orderDir := "ASC"
	if filter.SortOrder == "DESC" {
		orderDir = "DESC"
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
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}

	return bookings, total, nil
}

const lockRoomQuery = `SELECT pg_advisory_xact_lock(hashtext($1::text))`

// approvedOverlapQuery looks for another APPROVED booking on the same room overlapping $1.
const approvedOverlapQuery = `
	SELECT EXISTS (
		SELECT 1
		FROM public.bookings o
		JOIN public.bookings b ON b.id = $1
		WHERE o.room_id = b.room_id
		  AND o.id <> b.id
		  AND o.status = 'APPROVED'
		  AND o.start_time < b.end_time
		  AND o.end_time > b.start_time
	)
`

// UpdateStatus applies u in a transaction. Approvals serialise per room on an advisory
// lock and fail with ErrApprovalConflict when another APPROVED booking overlaps.
// A row that is no longer in u.From yields ErrInvalidTransition.
func (r *pgxRepository) UpdateStatus(ctx context.Context, u StatusUpdate) (*Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin status update failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if u.To == StatusApproved {
		if _, err := tx.Exec(ctx, lockRoomQuery, u.RoomID); err != nil {
			return nil, fmt.Errorf("lock room failed: %w", err)
		}

		var overlap bool
		if err := tx.QueryRow(ctx, approvedOverlapQuery, u.ID).Scan(&overlap); err != nil {
			return nil, fmt.Errorf("check approved overlap failed: %w", err)
		}
		if overlap {
			return nil, ErrApprovalConflict
		}
	}

	update := r.psql.Update("public.bookings").
		Set("status", u.To).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": u.ID, "status": u.From}).
		Suffix("RETURNING " + strings.Join(bookingColumns, ", "))
	if u.VideoID != nil {
		update = update.Set("checkout_video_id", *u.VideoID)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build status update query failed: %w", err)
	}

	b, err := scanBooking(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.missingOrMoved(ctx, tx, u.ID)
		}
		return nil, fmt.Errorf("update booking status failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit status update failed: %w", err)
	}
	return b, nil
}

// missingOrMoved tells a deleted row apart from one whose status changed underneath us.
func (r *pgxRepository) missingOrMoved(ctx context.Context, tx pgx.Tx, id string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM public.bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check booking existence failed: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrInvalidTransition
}

func (r *pgxRepository) SetVideo(ctx context.Context, id string, videoID *string) (*Booking, error) {
	query, args, err := r.psql.Update("public.bookings").
		Set("checkout_video_id", videoID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(bookingColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build set video query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("set booking video failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := r.psql.Delete("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete booking query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
