package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/travelbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TravelRepository interface {
	Search(ctx context.Context, filters domain.TravelSearchFilters) ([]domain.TravelOption, error)
	GetByTravelID(ctx context.Context, travelID string) (*domain.TravelOption, error)
	Similar(ctx context.Context, travelID string, limit int) ([]domain.TravelOption, error)
	Cities(ctx context.Context, query string) ([]string, error)
	Create(ctx context.Context, option *domain.TravelOption) error
}

type PGTravelRepository struct {
	db *pgxpool.Pool
}

func NewTravelRepository(db *pgxpool.Pool) TravelRepository {
	return &PGTravelRepository{db: db}
}

const travelColumns = `id, travel_id, kind, source, destination, departure_at, arrival_at, price_cents, total_seats, available_seats, created_at, updated_at`

func (r *PGTravelRepository) Search(ctx context.Context, filters domain.TravelSearchFilters) ([]domain.TravelOption, error) {
	query, args := searchQuery(filters)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTravelOptions(rows)
}

func searchQuery(filters domain.TravelSearchFilters) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + travelColumns + ` FROM travel_options WHERE departure_at::date >= CURRENT_DATE AND available_seats > 0`)

	args := make([]interface{}, 0, 6)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Source != "" {
		sb.WriteString(` AND source ILIKE '%' || ` + arg(filters.Source) + ` || '%'`)
	}
	if filters.Destination != "" {
		sb.WriteString(` AND destination ILIKE '%' || ` + arg(filters.Destination) + ` || '%'`)
	}
	if filters.Kind != "" {
		sb.WriteString(` AND kind = ` + arg(string(filters.Kind)))
	}
	if filters.Date != nil {
		sb.WriteString(` AND departure_at::date = ` + arg(*filters.Date) + `::date`)
	}
	if filters.MinPriceCents != nil {
		sb.WriteString(` AND price_cents >= ` + arg(*filters.MinPriceCents))
	}
	if filters.MaxPriceCents != nil {
		sb.WriteString(` AND price_cents <= ` + arg(*filters.MaxPriceCents))
	}

	sb.WriteString(` ORDER BY departure_at`)
	if filters.Limit > 0 {
		sb.WriteString(` LIMIT ` + arg(filters.Limit))
	}
	if filters.Offset > 0 {
		sb.WriteString(` OFFSET ` + arg(filters.Offset))
	}

	return sb.String(), args
}

func (r *PGTravelRepository) GetByTravelID(ctx context.Context, travelID string) (*domain.TravelOption, error) {
	row := r.db.QueryRow(ctx, `SELECT `+travelColumns+` FROM travel_options WHERE travel_id=$1`, travelID)
	var t domain.TravelOption
	if err := scanTravelOption(row, &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "travel option"}
		}
		return nil, err
	}
	return &t, nil
}

func (r *PGTravelRepository) Similar(ctx context.Context, travelID string, limit int) ([]domain.TravelOption, error) {
	rows, err := r.db.Query(ctx, `SELECT `+travelColumns+` FROM travel_options
		WHERE travel_id <> $1
		  AND (source, destination) = (SELECT source, destination FROM travel_options WHERE travel_id=$1)
		  AND departure_at::date >= CURRENT_DATE AND available_seats > 0
		ORDER BY departure_at LIMIT $2`, travelID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTravelOptions(rows)
}

func (r *PGTravelRepository) Cities(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT city FROM (
			SELECT source AS city FROM travel_options
			UNION
			SELECT destination FROM travel_options
		) cities WHERE city ILIKE '%' || $1 || '%' ORDER BY city`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cities := make([]string, 0)
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, err
		}
		cities = append(cities, city)
	}
	return cities, rows.Err()
}

func (r *PGTravelRepository) Create(ctx context.Context, option *domain.TravelOption) error {
	err := r.db.QueryRow(ctx, `INSERT INTO travel_options (travel_id, kind, source, destination, departure_at, arrival_at, price_cents, total_seats, available_seats)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		option.TravelID, option.Kind, option.Source, option.Destination, option.DepartureAt, option.ArrivalAt,
		option.PriceCents, option.TotalSeats, option.AvailableSeats).
		Scan(&option.ID, &option.CreatedAt, &option.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ConflictError{Resource: "travel option", Msg: "travel_id already exists"}
		}
		return err
	}
	return nil
}

func scanTravelOption(row pgx.Row, t *domain.TravelOption) error {
	return row.Scan(&t.ID, &t.TravelID, &t.Kind, &t.Source, &t.Destination, &t.DepartureAt, &t.ArrivalAt,
		&t.PriceCents, &t.TotalSeats, &t.AvailableSeats, &t.CreatedAt, &t.UpdatedAt)
}

func scanTravelOptions(rows pgx.Rows) ([]domain.TravelOption, error) {
	options := make([]domain.TravelOption, 0)
	for rows.Next() {
		var t domain.TravelOption
		if err := scanTravelOption(rows, &t); err != nil {
			return nil, err
		}
		options = append(options, t)
	}
	return options, rows.Err()
}

var _ TravelRepository = (*PGTravelRepository)(nil)
