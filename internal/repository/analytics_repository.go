package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/evently/internal/model"
)

// AnalyticsRepo runs the read-only aggregation queries behind the
// admin reporting endpoints.  Everything here is single-shot SELECTs
// with no locking; results are cached by the handlers, never by the
// repository.
type AnalyticsRepo struct {
	db *sql.DB
}

// NewAnalyticsRepo returns a new AnalyticsRepo bound to the database.
func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

// Totals aggregates the headline counters of the overview report.
type Totals struct {
	Bookings uint64 `json:"total_bookings"`
	Events   uint64 `json:"total_events"`
	Users    uint64 `json:"total_users"`
}

// GetTotals counts active bookings, events and users.
func (r *AnalyticsRepo) GetTotals(ctx context.Context) (Totals, error) {
	var t Totals
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE status = ?`, model.BookingBooked).Scan(&t.Bookings); err != nil {
		return t, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&t.Events); err != nil {
		return t, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&t.Users); err != nil {
		return t, err
	}
	return t, nil
}

// PopularEvent ranks an event by its active booking count.
type PopularEvent struct {
	EventID     uint64  `json:"event_id"`
	EventName   string  `json:"event_name"`
	Venue       *string `json:"venue,omitempty"`
	Bookings    uint64  `json:"total_bookings"`
	Capacity    uint32  `json:"capacity"`
	Utilization float64 `json:"utilization_percentage"`
}

// MostPopularEvents returns the top events by BOOKED count.
func (r *AnalyticsRepo) MostPopularEvents(ctx context.Context, limit int) ([]PopularEvent, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	const q = `SELECT e.id, e.name, e.venue, e.capacity, COUNT(b.id) AS total_bookings
	           FROM events e
	           JOIN bookings b ON b.event_id = e.id AND b.status = ?
	           GROUP BY e.id, e.name, e.venue, e.capacity
	           ORDER BY total_bookings DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, model.BookingBooked, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]PopularEvent, 0, limit)
	for rows.Next() {
		var p PopularEvent
		var venue sql.NullString
		if err := rows.Scan(&p.EventID, &p.EventName, &venue, &p.Capacity, &p.Bookings); err != nil {
			return nil, err
		}
		if venue.Valid {
			v := venue.String
			p.Venue = &v
		}
		if p.Capacity > 0 {
			p.Utilization = round2(float64(p.Bookings) / float64(p.Capacity) * 100)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// EventUtilization reports how full a single event is.
type EventUtilization struct {
	EventID     uint64  `json:"event_id"`
	EventName   string  `json:"event_name"`
	Venue       *string `json:"venue,omitempty"`
	Capacity    uint32  `json:"total_capacity"`
	BookedSeats uint64  `json:"booked_seats"`
	Available   uint64  `json:"available_seats"`
	Utilization float64 `json:"utilization_percentage"`
	Status      string  `json:"status"`
}

// CapacityUtilization returns the fill level of every event ordered by
// name.  Events with no bookings are included via the outer join.
func (r *AnalyticsRepo) CapacityUtilization(ctx context.Context) ([]EventUtilization, error) {
	const q = `SELECT e.id, e.name, e.venue, e.capacity, COUNT(b.id) AS booked_seats
	           FROM events e
	           LEFT JOIN bookings b ON b.event_id = e.id AND b.status = ?
	           GROUP BY e.id, e.name, e.venue, e.capacity
	           ORDER BY e.name`
	rows, err := r.db.QueryContext(ctx, q, model.BookingBooked)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]EventUtilization, 0)
	for rows.Next() {
		var u EventUtilization
		var venue sql.NullString
		if err := rows.Scan(&u.EventID, &u.EventName, &venue, &u.Capacity, &u.BookedSeats); err != nil {
			return nil, err
		}
		if venue.Valid {
			v := venue.String
			u.Venue = &v
		}
		if uint64(u.Capacity) >= u.BookedSeats {
			u.Available = uint64(u.Capacity) - u.BookedSeats
		}
		if u.Capacity > 0 {
			u.Utilization = round2(float64(u.BookedSeats) / float64(u.Capacity) * 100)
		}
		switch {
		case u.Utilization == 100:
			u.Status = "Full"
		case u.Utilization >= 80:
			u.Status = "High"
		case u.Utilization >= 50:
			u.Status = "Medium"
		default:
			u.Status = "Low"
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// AverageUtilization averages the per-event utilization percentages
// across all events with a positive capacity.
func (r *AnalyticsRepo) AverageUtilization(ctx context.Context) (float64, error) {
	events, err := r.CapacityUtilization(ctx)
	if err != nil {
		return 0, err
	}
	total := 0.0
	count := 0
	for _, u := range events {
		if u.Capacity > 0 {
			total += u.Utilization
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return round2(total / float64(count)), nil
}

// TrendPoint is one day of booking activity.
type TrendPoint struct {
	Date     string `json:"date"`
	Bookings uint64 `json:"total_bookings"`
	Events   uint64 `json:"events_count"`
}

// BookingTrends returns daily booking counts for the last N days.
func (r *AnalyticsRepo) BookingTrends(ctx context.Context, days int) ([]TrendPoint, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	const q = `SELECT DATE(created_at) AS booking_date,
	                  COUNT(id) AS total_bookings,
	                  COUNT(DISTINCT event_id) AS events_count
	           FROM bookings
	           WHERE created_at >= ? AND status = ?
	           GROUP BY DATE(created_at)
	           ORDER BY booking_date`
	rows, err := r.db.QueryContext(ctx, q, since, model.BookingBooked)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TrendPoint, 0)
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Date, &p.Bookings, &p.Events); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UserStats summarizes one user's booking history.
type UserStats struct {
	UserID          uint64  `json:"user_id"`
	Email           string  `json:"user_email"`
	TotalBookings   uint64  `json:"total_bookings"`
	ActiveBookings  uint64  `json:"active_bookings"`
	Cancelled       uint64  `json:"cancelled_bookings"`
	MostBookedVenue *string `json:"most_booked_venue,omitempty"`
}

// GetUserStats aggregates booking counts and the most frequented
// venue for a single user.  Returns ErrEventNotFound-free semantics:
// an unknown user simply yields zero counters and an empty email.
func (r *AnalyticsRepo) GetUserStats(ctx context.Context, userID uint64) (UserStats, error) {
	stats := UserStats{UserID: userID}
	const countQ = `SELECT
	                  COUNT(id),
	                  COALESCE(SUM(status = ?), 0),
	                  COALESCE(SUM(status = ?), 0)
	                FROM bookings WHERE user_id = ?`
	if err := r.db.QueryRowContext(ctx, countQ, model.BookingBooked, model.BookingCancelled, userID).
		Scan(&stats.TotalBookings, &stats.ActiveBookings, &stats.Cancelled); err != nil {
		return stats, err
	}
	const venueQ = `SELECT e.venue
	                FROM bookings b
	                JOIN events e ON e.id = b.event_id
	                WHERE b.user_id = ? AND e.venue IS NOT NULL
	                GROUP BY e.venue
	                ORDER BY COUNT(b.id) DESC
	                LIMIT 1`
	var venue sql.NullString
	err := r.db.QueryRowContext(ctx, venueQ, userID).Scan(&venue)
	if err != nil && err != sql.ErrNoRows {
		return stats, err
	}
	if venue.Valid {
		v := venue.String
		stats.MostBookedVenue = &v
	}
	var email sql.NullString
	err = r.db.QueryRowContext(ctx, `SELECT email FROM users WHERE id = ?`, userID).Scan(&email)
	if err != nil && err != sql.ErrNoRows {
		return stats, err
	}
	if email.Valid {
		stats.Email = email.String
	}
	return stats, nil
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
