package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/holiday"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/database"
)

type holidayRepository struct {
	db *database.DB
}

// HolidayOn implements holiday.HolidayRepository.
func (h *holidayRepository) HolidayOn(ctx context.Context, date time.Time) (*holiday.Holiday, error) {
	q := GetQuerier(ctx, h.db)

	query := `SELECT id, name, date FROM holidays WHERE date = $1 LIMIT 1`

	var hol holiday.Holiday
	err := q.QueryRow(ctx, query, date).Scan(&hol.ID, &hol.Name, &hol.Date)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // working day
		}
		return nil, fmt.Errorf("failed to get holiday: %w", err)
	}

	return &hol, nil
}

func NewHolidayRepository(db *database.DB) holiday.HolidayRepository {
	return &holidayRepository{db: db}
}
