package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// Postgres is the pgx-backed Store.
type Postgres struct {
	db *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres constructs a Postgres store.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// ─── Users ───────────────────────────────────────────────────────────────────

const userColumns = `id, username, email, password_hash, full_name, role, phone_number, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.PhoneNumber, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Postgres) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FullName, u.Role, u.PhoneNumber, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user: %w", model.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, err
}

func (s *Postgres) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, err
}

func (s *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, err
}

// ─── Events ──────────────────────────────────────────────────────────────────

const eventColumns = `id, organizer_id, title, description, image_url, location, start_date, end_date,
	category, total_tickets, available_tickets, ticket_price::text, is_featured, status, created_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e     model.Event
		price string
	)
	err := row.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.ImageURL, &e.Location,
		&e.StartDate, &e.EndDate, &e.Category, &e.TotalTickets, &e.AvailableTickets,
		&price, &e.IsFeatured, &e.Status, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if e.TicketPrice, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse ticket price %q: %w", price, err)
	}
	return &e, nil
}

func (s *Postgres) CreateEvent(ctx context.Context, e *model.Event) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO events (id, organizer_id, title, description, image_url, location, start_date, end_date,
			category, total_tickets, available_tickets, ticket_price, is_featured, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::numeric, $13, $14, $15)`,
		e.ID, e.OrganizerID, e.Title, e.Description, e.ImageURL, e.Location, e.StartDate, e.EndDate,
		e.Category, e.TotalTickets, e.AvailableTickets, e.TicketPrice.StringFixed(2), e.IsFeatured, e.Status, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Postgres) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(s.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, err
}

// ListEvents returns events matching f, newest start date first.
func (s *Postgres) ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.OrganizerID != "" {
		args = append(args, f.OrganizerID)
		where = append(where, fmt.Sprintf("organizer_id = $%d", len(args)))
	}
	if f.Featured {
		where = append(where, "is_featured")
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_date ASC, created_at ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// UpdateEvent applies metadata changes. Ticket counts are never part of the SET list.
func (s *Postgres) UpdateEvent(ctx context.Context, id string, u model.EventUpdate) (*model.Event, error) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.Title != nil {
		add("title", strings.TrimSpace(*u.Title))
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.ImageURL != nil {
		add("image_url", *u.ImageURL)
	}
	if u.Location != nil {
		add("location", strings.TrimSpace(*u.Location))
	}
	if u.StartDate != nil {
		add("start_date", *u.StartDate)
	}
	if u.EndDate != nil {
		add("end_date", *u.EndDate)
	}
	if u.Category != nil {
		add("category", strings.TrimSpace(*u.Category))
	}
	if u.TicketPrice != nil {
		args = append(args, u.TicketPrice.StringFixed(2))
		sets = append(sets, fmt.Sprintf("ticket_price = $%d::numeric", len(args)))
	}
	if u.IsFeatured != nil {
		add("is_featured", *u.IsFeatured)
	}
	if u.Status != nil {
		add("status", *u.Status)
	}
	if len(sets) == 0 {
		return s.GetEvent(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE events SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), eventColumns)

	e, err := scanEvent(s.db.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, err
}

func (s *Postgres) DeleteEvent(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ─── Inventory ───────────────────────────────────────────────────────────────

// ReserveTickets performs the decrement as one conditional UPDATE. Postgres
// takes the row lock for the duration of the statement, so concurrent callers
// on the same event serialize here no matter how many processes issue them.
func (s *Postgres) ReserveTickets(ctx context.Context, eventID string, quantity int) (int, error) {
	var remaining int
	err := s.db.QueryRow(ctx,
		`UPDATE events
		 SET available_tickets = available_tickets - $2
		 WHERE id = $1 AND status = 'active' AND available_tickets >= $2
		 RETURNING available_tickets`,
		eventID, quantity,
	).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("reserve tickets: %w", err)
	}

	// The update matched nothing; find out why.
	var (
		status    model.EventStatus
		available int
	)
	err = s.db.QueryRow(ctx,
		`SELECT status, available_tickets FROM events WHERE id = $1`, eventID,
	).Scan(&status, &available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %w", model.ErrEventNotBookable, model.ErrNotFound)
		}
		return 0, fmt.Errorf("inspect event after failed reserve: %w", err)
	}
	if status != model.EventActive {
		return 0, fmt.Errorf("%w: event is %s", model.ErrEventNotBookable, status)
	}
	return 0, &model.InsufficientInventoryError{Available: available, Requested: quantity}
}

func (s *Postgres) ReleaseTickets(ctx context.Context, eventID string, quantity int) (int, error) {
	var available int
	err := s.db.QueryRow(ctx,
		`UPDATE events
		 SET available_tickets = LEAST(total_tickets, available_tickets + $2)
		 WHERE id = $1
		 RETURNING available_tickets`,
		eventID, quantity,
	).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrNotFound
		}
		return 0, fmt.Errorf("release tickets: %w", err)
	}
	return available, nil
}

// ─── Tickets ─────────────────────────────────────────────────────────────────

const ticketColumns = `id, event_id, user_id, quantity, total_amount::text, purchase_date, status`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var (
		t      model.Ticket
		amount string
	)
	if err := row.Scan(&t.ID, &t.EventID, &t.UserID, &t.Quantity, &amount, &t.PurchaseDate, &t.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	var err error
	if t.TotalAmount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse total amount %q: %w", amount, err)
	}
	return &t, nil
}

func (s *Postgres) listTickets(ctx context.Context, query string, arg string) ([]model.Ticket, error) {
	rows, err := s.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}

func (s *Postgres) CreateTicket(ctx context.Context, t *model.Ticket) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO tickets (id, event_id, user_id, quantity, total_amount, purchase_date, status)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)`,
		t.ID, t.EventID, t.UserID, t.Quantity, t.TotalAmount.StringFixed(2), t.PurchaseDate, t.Status,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (s *Postgres) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	t, err := scanTicket(s.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return t, err
}

func (s *Postgres) ListTicketsByUser(ctx context.Context, userID string) ([]model.Ticket, error) {
	return s.listTickets(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE user_id = $1 ORDER BY purchase_date DESC`, userID)
}

func (s *Postgres) ListTicketsByEvent(ctx context.Context, eventID string) ([]model.Ticket, error) {
	return s.listTickets(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE event_id = $1 ORDER BY purchase_date ASC`, eventID)
}

func (s *Postgres) TransitionTicket(ctx context.Context, id string, from, to model.TicketStatus) (*model.Ticket, error) {
	t, err := scanTicket(s.db.QueryRow(ctx,
		`UPDATE tickets SET status = $3 WHERE id = $1 AND status = $2 RETURNING `+ticketColumns,
		id, from, to,
	))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("transition ticket: %w", err)
	}
	if _, getErr := s.GetTicket(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("ticket %s is not %s: %w", id, from, model.ErrConflict)
}

// ─── Payments ────────────────────────────────────────────────────────────────

const paymentColumns = `id, user_id, ticket_id, booking_id, provider_order_id, provider_payment_id,
	amount::text, currency, status, payment_date`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p      model.Payment
		amount string
	)
	err := row.Scan(&p.ID, &p.UserID, &p.TicketID, &p.BookingID, &p.ProviderOrderID, &p.ProviderPaymentID,
		&amount, &p.Currency, &p.Status, &p.PaymentDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse payment amount %q: %w", amount, err)
	}
	return &p, nil
}

func (s *Postgres) CreatePayment(ctx context.Context, p *model.Payment) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO payments (id, user_id, ticket_id, booking_id, provider_order_id, provider_payment_id,
			amount, currency, status, payment_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10)`,
		p.ID, p.UserID, p.TicketID, p.BookingID, p.ProviderOrderID, p.ProviderPaymentID,
		p.Amount.StringFixed(2), p.Currency, p.Status, p.PaymentDate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create payment for order %s: %w", p.ProviderOrderID, model.ErrConflict)
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *Postgres) getPayment(ctx context.Context, where string, arg string) (*model.Payment, error) {
	p, err := scanPayment(s.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE `+where, arg))
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, err
}

func (s *Postgres) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	return s.getPayment(ctx, "id = $1", id)
}

func (s *Postgres) GetPaymentByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	return s.getPayment(ctx, "provider_order_id = $1", orderID)
}

func (s *Postgres) GetPaymentByTicketID(ctx context.Context, ticketID string) (*model.Payment, error) {
	return s.getPayment(ctx, "ticket_id = $1", ticketID)
}

func (s *Postgres) UpdatePayment(ctx context.Context, id string, u model.PaymentUpdate) (*model.Payment, error) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.ProviderPaymentID != nil {
		add("provider_payment_id", *u.ProviderPaymentID)
	}
	if u.TicketID != nil {
		add("ticket_id", *u.TicketID)
	}
	if len(sets) == 0 {
		return s.GetPayment(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE payments SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), paymentColumns)
	p, err := scanPayment(s.db.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	return p, err
}

func (s *Postgres) ListPaymentsByUser(ctx context.Context, userID string) ([]model.Payment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY payment_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// ─── Categories ──────────────────────────────────────────────────────────────

func (s *Postgres) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, icon, event_count FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.EventCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Postgres) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	var c model.Category
	err := s.db.QueryRow(ctx,
		`SELECT id, name, icon, event_count FROM categories WHERE name = $1`, name,
	).Scan(&c.ID, &c.Name, &c.Icon, &c.EventCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (s *Postgres) CreateCategory(ctx context.Context, c *model.Category) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO categories (id, name, icon, event_count) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Icon, c.EventCount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create category %q: %w", c.Name, model.ErrConflict)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *Postgres) AdjustCategoryEventCount(ctx context.Context, name string, delta int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE categories SET event_count = GREATEST(0, event_count + $2) WHERE name = $1`,
		name, delta,
	)
	if err != nil {
		return fmt.Errorf("adjust category count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Postgres) SetCategoryEventCount(ctx context.Context, name string, count int) error {
	tag, err := s.db.Exec(ctx, `UPDATE categories SET event_count = $2 WHERE name = $1`, name, count)
	if err != nil {
		return fmt.Errorf("set category count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
