package orders

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/orderdesk/orderdesk/internal/logging"
)

// ErrNotFound is returned when an order cannot be located.
var ErrNotFound = errors.New("order not found")

// Service implements the order operations on top of the SQLite store. The
// database is seeded with sample orders so the system answers usefully out
// of the box; unknown positive IDs fall back to a canned sample order, which
// keeps the backend's demo-record-store character from growing real
// inventory semantics.
type Service struct {
	db  *DB
	log *logging.Logger
}

// NewService creates the order service and seeds sample data when the store
// is empty.
func NewService(db *DB, log *logging.Logger) (*Service, error) {
	s := &Service{db: db, log: log.Sub("orders")}
	if err := s.seed(); err != nil {
		return nil, fmt.Errorf("seeding orders: %w", err)
	}
	return s, nil
}

// seed inserts the two sample orders on first run.
func (s *Service) seed() error {
	var count int
	if err := s.db.sql.QueryRow("SELECT COUNT(*) FROM orders").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	samples := []Order{
		{
			ID:            1,
			CustomerName:  "John Doe",
			CustomerEmail: "john.doe@example.com",
			Items: []OrderItem{
				{ItemName: "Laptop", Quantity: 1, Price: 999.99},
				{ItemName: "Mouse", Quantity: 2, Price: 25.50},
			},
			TotalAmount: 1050.99,
			Status:      StatusConfirmed,
			Address:     "home",
			OrderDate:   time.Now().AddDate(0, 0, -2),
		},
		{
			ID:            2,
			CustomerName:  "Jane Smith",
			CustomerEmail: "jane.smith@example.com",
			Items: []OrderItem{
				{ItemName: "Keyboard", Quantity: 1, Price: 75.00},
			},
			TotalAmount: 75.00,
			Status:      StatusShipped,
			Address:     "work",
			OrderDate:   time.Now().AddDate(0, 0, -1),
		},
	}
	for _, o := range samples {
		if err := s.insert(o); err != nil {
			return err
		}
	}
	s.log.Info().Int("orders", len(samples)).Msg("seeded sample orders")
	return nil
}

func (s *Service) insert(o Order) error {
	tx, err := s.db.sql.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO orders (id, customer_name, customer_email, total_amount, status, address, order_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerName, o.CustomerEmail, o.TotalAmount, string(o.Status), o.Address,
		o.OrderDate.UTC().Format(time.RFC3339),
	); err != nil {
		tx.Rollback()
		return err
	}
	for _, it := range o.Items {
		if _, err := tx.Exec(
			"INSERT INTO order_items (order_id, item_name, quantity, price) VALUES (?, ?, ?, ?)",
			o.ID, it.ItemName, it.Quantity, it.Price,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Create stores a new order with a generated ID, PENDING status and the
// current timestamp, echoing it back.
func (s *Service) Create(o Order) (Order, error) {
	var maxID int64
	if err := s.db.sql.QueryRow("SELECT COALESCE(MAX(id), 0) FROM orders").Scan(&maxID); err != nil {
		return Order{}, fmt.Errorf("allocating order id: %w", err)
	}
	o.ID = maxID + 1
	o.Status = StatusPending
	o.OrderDate = time.Now()
	if err := s.insert(o); err != nil {
		return Order{}, fmt.Errorf("creating order: %w", err)
	}
	s.log.Info().Int64("id", o.ID).Str("customer", o.CustomerName).Msg("order created")
	return o, nil
}

// List returns all stored orders.
func (s *Service) List() ([]Order, error) {
	rows, err := s.db.sql.Query(
		"SELECT id, customer_name, customer_email, total_amount, status, address, order_date FROM orders ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := s.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Get returns the order with the given ID. Unknown positive IDs fall back to
// a canned sample order; non-positive IDs are not found.
func (s *Service) Get(id int64) (Order, error) {
	if id <= 0 {
		return Order{}, ErrNotFound
	}

	row := s.db.sql.QueryRow(
		"SELECT id, customer_name, customer_email, total_amount, status, address, order_date FROM orders WHERE id = ?", id,
	)
	o, err := s.scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sampleOrder(id, "home"), nil
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// Update echoes the submitted order back with the given ID and a fresh
// timestamp, persisting the address change when the row exists.
func (s *Service) Update(id int64, o Order) (Order, error) {
	if id <= 0 {
		return Order{}, ErrNotFound
	}
	o.ID = id
	o.OrderDate = time.Now()
	if _, err := s.db.sql.Exec(
		"UPDATE orders SET customer_name = ?, customer_email = ?, total_amount = ?, status = ?, address = ? WHERE id = ?",
		o.CustomerName, o.CustomerEmail, o.TotalAmount, string(o.Status), o.Address, id,
	); err != nil {
		return Order{}, fmt.Errorf("updating order: %w", err)
	}
	return o, nil
}

// Cancel deletes the order if present. Non-positive IDs are not found;
// unknown positive IDs succeed, matching the record store's echo semantics.
func (s *Service) Cancel(id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	if _, err := s.db.sql.Exec("DELETE FROM orders WHERE id = ?", id); err != nil {
		return fmt.Errorf("cancelling order: %w", err)
	}
	s.log.Info().Int64("id", id).Msg("order cancelled")
	return nil
}

// UpdateAddress sets the delivery address label and returns the order.
func (s *Service) UpdateAddress(id int64, address string) (Order, error) {
	if id <= 0 {
		return Order{}, ErrNotFound
	}
	if _, err := s.db.sql.Exec("UPDATE orders SET address = ? WHERE id = ?", address, id); err != nil {
		return Order{}, fmt.Errorf("updating address: %w", err)
	}
	o, err := s.Get(id)
	if err != nil {
		return Order{}, err
	}
	o.Address = address
	s.log.Info().Int64("id", id).Str("address", address).Msg("order address updated")
	return o, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Service) scanOrder(row rowScanner) (Order, error) {
	var o Order
	var status, orderDate string
	if err := row.Scan(&o.ID, &o.CustomerName, &o.CustomerEmail, &o.TotalAmount, &status, &o.Address, &orderDate); err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	if t, err := time.Parse(time.RFC3339, orderDate); err == nil {
		o.OrderDate = t
	}

	items, err := s.itemsFor(o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

func (s *Service) itemsFor(orderID int64) ([]OrderItem, error) {
	rows, err := s.db.sql.Query(
		"SELECT item_name, quantity, price FROM order_items WHERE order_id = ? ORDER BY id", orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ItemName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// sampleOrder is the canned fallback returned for unknown positive IDs.
func sampleOrder(id int64, address string) Order {
	return Order{
		ID:            id,
		CustomerName:  "John Doe",
		CustomerEmail: "john.doe@example.com",
		Items: []OrderItem{
			{ItemName: "Sample Product", Quantity: 1, Price: 99.99},
		},
		TotalAmount: 99.99,
		Status:      StatusPending,
		Address:     address,
		OrderDate:   time.Now(),
	}
}

// MarshalJSONList renders orders as a JSON array, never null.
func MarshalJSONList(orders []Order) ([]byte, error) {
	if orders == nil {
		orders = []Order{}
	}
	return json.Marshal(orders)
}
