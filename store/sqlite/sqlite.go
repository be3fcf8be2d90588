/*
Package sqlite provides a SQLite-backed implementation of budget.Store.

PURPOSE:
  Persists organizations, employees, AOPs, allocations and budgets using
  SQLite through database/sql. Schema is created on New().

KEY TABLES:
  aop:          Budget envelopes (total_amount stored as decimal TEXT)
  cost_center:  Organizational units, unique code
  employee:     People, unique ldap, self-referential manager_id
  aop_detail:   AOP allocations per cost center
  budget:       Project budgets, unique budget_id

INVARIANTS ENFORCED HERE:
  - UNIQUE(employee.ldap), UNIQUE(budget.budget_id), UNIQUE(cost_center.code)
  - Foreign keys on (opened with _foreign_keys=on)
  - CreateBudget inserts the budget and increments aop.total_amount in a
    single database transaction

CONCURRENCY:
  One open connection plus a sync.RWMutex. SQLite allows one writer at a
  time anyway, and ":memory:" databases exist per connection.

USAGE:
  store, err := sqlite.New("./budget.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - budget/store.go: Interface definition
  - budget/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/budgetbot/budget"
)

// Store implements budget.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ budget.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection (used by the health endpoint).
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS aop (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		total_amount TEXT NOT NULL DEFAULT '0',
		state TEXT NOT NULL DEFAULT 'draft',
		created_at TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS cost_center (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS employee (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ldap TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL,
		level INTEGER NOT NULL,
		cost_center_id INTEGER REFERENCES cost_center(id),
		manager_id INTEGER REFERENCES employee(id),
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);

	-- Org tree traversal (hot path for "show me my organization")
	CREATE INDEX IF NOT EXISTS idx_employee_manager
		ON employee(manager_id);

	CREATE TABLE IF NOT EXISTS aop_detail (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		aop_id INTEGER NOT NULL REFERENCES aop(id),
		cost_center_id INTEGER NOT NULL REFERENCES cost_center(id),
		amount TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_aop_detail_aop
		ON aop_detail(aop_id);

	CREATE TABLE IF NOT EXISTS budget (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		budget_id TEXT NOT NULL UNIQUE,
		aop_id INTEGER NOT NULL REFERENCES aop(id),
		employee_id INTEGER REFERENCES employee(id),
		project TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_budget_aop
		ON budget(aop_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset clears all data (for demo scenarios). Child tables go first so
// foreign keys hold throughout.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"budget", "aop_detail", "aop", "employee", "cost_center"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	// Restart rowid sequences so demo IDs are predictable.
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sqlite_sequence"); err != nil {
		return fmt.Errorf("failed to reset sequences: %w", err)
	}
	return nil
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

const employeeColumns = `id, ldap, first_name, last_name, email, level, cost_center_id, manager_id, is_active`

// CreateEmployee inserts an employee.
func (s *Store) CreateEmployee(ctx context.Context, e *budget.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO employee (ldap, first_name, last_name, email, level, cost_center_id, manager_id, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.LDAP, e.FirstName, e.LastName, e.Email, e.Level,
		nullInt64(e.CostCenterID), nullInt64(e.ManagerID), e.IsActive,
	)
	if err != nil {
		if isUniqueConstraintError(err, "employee.ldap") {
			return fmt.Errorf("employee with LDAP %s already exists: %w", e.LDAP, budget.ErrDuplicateLDAP)
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}

	e.ID, err = res.LastInsertId()
	return err
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id int64) (*budget.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employee WHERE id = ?", id)
	return scanEmployee(row)
}

// GetEmployeeByLDAP retrieves an employee by LDAP handle.
func (s *Store) GetEmployeeByLDAP(ctx context.Context, ldap string) (*budget.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employee WHERE ldap = ?", ldap)
	return scanEmployee(row)
}

// ListEmployees returns employees ordered by ID.
func (s *Store) ListEmployees(ctx context.Context, activeOnly bool) ([]budget.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + employeeColumns + " FROM employee"
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY id"

	return s.queryEmployees(ctx, query)
}

// ListReports returns the direct reports of a manager.
func (s *Store) ListReports(ctx context.Context, managerID int64) ([]budget.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEmployees(ctx,
		"SELECT "+employeeColumns+" FROM employee WHERE manager_id = ? ORDER BY id", managerID)
}

// SetManager updates an employee's manager reference.
func (s *Store) SetManager(ctx context.Context, employeeID int64, managerID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE employee SET manager_id = ? WHERE id = ?", nullInt64(managerID), employeeID)
	if err != nil {
		if isForeignKeyError(err) {
			return budget.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to set manager: %w", err)
	}
	return requireRow(res, budget.ErrEmployeeNotFound)
}

// DeactivateEmployee clears the active flag.
func (s *Store) DeactivateEmployee(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE employee SET is_active = FALSE WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate employee: %w", err)
	}
	return requireRow(res, budget.ErrEmployeeNotFound)
}

func (s *Store) queryEmployees(ctx context.Context, query string, args ...any) ([]budget.Employee, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []budget.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

func scanEmployee(row scanner) (*budget.Employee, error) {
	var (
		e            budget.Employee
		costCenterID sql.NullInt64
		managerID    sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.LDAP, &e.FirstName, &e.LastName, &e.Email, &e.Level,
		&costCenterID, &managerID, &e.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, budget.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan employee: %w", err)
	}
	e.CostCenterID = int64Ptr(costCenterID)
	e.ManagerID = int64Ptr(managerID)
	return &e, nil
}

// =============================================================================
// COST CENTER STORE
// =============================================================================

// CreateCostCenter inserts a cost center.
func (s *Store) CreateCostCenter(ctx context.Context, c *budget.CostCenter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO cost_center (code, name, is_active) VALUES (?, ?, ?)",
		c.Code, c.Name, c.IsActive,
	)
	if err != nil {
		if isUniqueConstraintError(err, "cost_center.code") {
			return fmt.Errorf("cost center %s already exists: %w", c.Code, budget.ErrDuplicateCostCenter)
		}
		return fmt.Errorf("failed to create cost center: %w", err)
	}

	c.ID, err = res.LastInsertId()
	return err
}

// GetCostCenter retrieves a cost center by ID.
func (s *Store) GetCostCenter(ctx context.Context, id int64) (*budget.CostCenter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT id, code, name, is_active FROM cost_center WHERE id = ?", id)
	return scanCostCenter(row)
}

// GetCostCenterByCode retrieves a cost center by its unique code.
func (s *Store) GetCostCenterByCode(ctx context.Context, code string) (*budget.CostCenter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT id, code, name, is_active FROM cost_center WHERE code = ?", code)
	return scanCostCenter(row)
}

// ListCostCenters returns all cost centers ordered by code.
func (s *Store) ListCostCenters(ctx context.Context) ([]budget.CostCenter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, code, name, is_active FROM cost_center ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to query cost centers: %w", err)
	}
	defer rows.Close()

	var centers []budget.CostCenter
	for rows.Next() {
		c, err := scanCostCenter(rows)
		if err != nil {
			return nil, err
		}
		centers = append(centers, *c)
	}
	return centers, rows.Err()
}

func scanCostCenter(row scanner) (*budget.CostCenter, error) {
	var c budget.CostCenter
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, budget.ErrCostCenterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cost center: %w", err)
	}
	return &c, nil
}

// =============================================================================
// AOP STORE
// =============================================================================

const aopColumns = `id, name, total_amount, state, created_at, is_active`

// CreateAOP inserts an AOP.
func (s *Store) CreateAOP(ctx context.Context, a *budget.AOP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.State == "" {
		a.State = budget.AOPDraft
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO aop (name, total_amount, state, created_at, is_active)
		VALUES (?, ?, ?, ?, ?)
	`,
		a.Name, a.TotalAmount.String(), string(a.State),
		a.CreatedAt.Format(time.RFC3339), a.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create aop: %w", err)
	}

	a.ID, err = res.LastInsertId()
	return err
}

// GetAOP retrieves an AOP by ID.
func (s *Store) GetAOP(ctx context.Context, id int64) (*budget.AOP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return scanAOP(s.db.QueryRowContext(ctx, "SELECT "+aopColumns+" FROM aop WHERE id = ?", id))
}

// ListAOPs returns AOPs ordered by ID.
func (s *Store) ListAOPs(ctx context.Context, activeOnly bool) ([]budget.AOP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + aopColumns + " FROM aop"
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query aops: %w", err)
	}
	defer rows.Close()

	var aops []budget.AOP
	for rows.Next() {
		a, err := scanAOP(rows)
		if err != nil {
			return nil, err
		}
		aops = append(aops, *a)
	}
	return aops, rows.Err()
}

// SetAOPState updates an AOP's lifecycle state. Transition rules are
// checked by the caller (budget.Transition).
func (s *Store) SetAOPState(ctx context.Context, id int64, state budget.AOPState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE aop SET state = ? WHERE id = ?", string(state), id)
	if err != nil {
		return fmt.Errorf("failed to set aop state: %w", err)
	}
	return requireRow(res, budget.ErrAOPNotFound)
}

func scanAOP(row scanner) (*budget.AOP, error) {
	var (
		a         budget.AOP
		state     string
		createdAt string
	)
	err := row.Scan(&a.ID, &a.Name, &a.TotalAmount, &state, &createdAt, &a.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, budget.ErrAOPNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan aop: %w", err)
	}
	a.State = budget.AOPState(state)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

// AddAOPDetail inserts an allocation of AOP money to a cost center.
func (s *Store) AddAOPDetail(ctx context.Context, d *budget.AOPDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO aop_detail (aop_id, cost_center_id, amount) VALUES (?, ?, ?)",
		d.AOPID, d.CostCenterID, d.Amount.String(),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("failed to allocate aop %d: %w", d.AOPID, budget.ErrAOPNotFound)
		}
		return fmt.Errorf("failed to add aop detail: %w", err)
	}

	d.ID, err = res.LastInsertId()
	return err
}

// ListAOPDetails returns the allocations of one AOP ordered by ID.
func (s *Store) ListAOPDetails(ctx context.Context, aopID int64) ([]budget.AOPDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, aop_id, cost_center_id, amount FROM aop_detail WHERE aop_id = ? ORDER BY id", aopID)
	if err != nil {
		return nil, fmt.Errorf("failed to query aop details: %w", err)
	}
	defer rows.Close()

	var details []budget.AOPDetail
	for rows.Next() {
		var d budget.AOPDetail
		if err := rows.Scan(&d.ID, &d.AOPID, &d.CostCenterID, &d.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan aop detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// =============================================================================
// BUDGET STORE
// =============================================================================

// CreateBudget inserts a budget and adds its amount to the AOP total in one
// transaction. The total is read and written as decimal text so no
// floating-point drift accumulates across budgets.
func (s *Store) CreateBudget(ctx context.Context, b *budget.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	var total decimal.Decimal
	err = sqlTx.QueryRowContext(ctx, "SELECT total_amount FROM aop WHERE id = ?", b.AOPID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return budget.ErrAOPNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read aop total: %w", err)
	}

	res, err := sqlTx.ExecContext(ctx, `
		INSERT INTO budget (budget_id, aop_id, employee_id, project, description, amount, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		b.BudgetID, b.AOPID, nullInt64(b.EmployeeID), b.Project,
		nullString(b.Description), b.Amount.String(), b.IsActive,
	)
	if err != nil {
		if isUniqueConstraintError(err, "budget.budget_id") {
			return fmt.Errorf("budget %s already exists: %w", b.BudgetID, budget.ErrDuplicateBudgetID)
		}
		if isForeignKeyError(err) {
			return budget.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to create budget: %w", err)
	}

	if _, err := sqlTx.ExecContext(ctx,
		"UPDATE aop SET total_amount = ? WHERE id = ?", total.Add(b.Amount).String(), b.AOPID,
	); err != nil {
		return fmt.Errorf("failed to update aop total: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit budget: %w", err)
	}

	b.ID, err = res.LastInsertId()
	return err
}

// BudgetIDExists checks whether a generated budget ID is taken.
func (s *Store) BudgetIDExists(ctx context.Context, budgetID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM budget WHERE budget_id = ?", budgetID,
	).Scan(&count)

	return count > 0, err
}

// ListBudgets returns budgets ordered by ID. aopID 0 lists every AOP.
func (s *Store) ListBudgets(ctx context.Context, aopID int64) ([]budget.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, budget_id, aop_id, employee_id, project, description, amount, is_active FROM budget`
	var args []any
	if aopID != 0 {
		query += " WHERE aop_id = ?"
		args = append(args, aopID)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []budget.Budget
	for rows.Next() {
		var (
			b           budget.Budget
			employeeID  sql.NullInt64
			description sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.BudgetID, &b.AOPID, &employeeID, &b.Project,
			&description, &b.Amount, &b.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		b.EmployeeID = int64Ptr(employeeID)
		b.Description = description.String
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueConstraintError(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
