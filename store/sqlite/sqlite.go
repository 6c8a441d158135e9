/*
Package sqlite provides a SQLite-backed implementation of the roster storage
interfaces.

PURPOSE:
  Implements roster.CatalogStore and roster.PlanStore on SQLite. Every row is
  scoped by tenant; the same schema works on PostgreSQL with minor dialect
  changes.

KEY TABLES:
  workers, tasks, equipment, roles   Catalogs, upserted by (tenant, id)
  week_plans                         One header per (tenant, week): version,
                                     revision id, updated_at
  plan_assignments                   Board rows of a plan, with column position

PLAN WRITES:
  SavePlan replaces every row of a week inside one SQL transaction after
  checking the header version. A mismatch returns *roster.ConflictError and
  nothing is written. Each successful write gets a fresh revision id so
  exports and logs can name the exact board they came from.

WAL MODE:
  Opened with WAL so API reads don't block the weekly scheduler's writes.

USAGE:
  store, err := sqlite.New("./data/roster.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - roster/store.go: Interface definitions
  - roster/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/roster-engine/roster"
)

// Store implements roster.CatalogStore and roster.PlanStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases shared across calls
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

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS roles (
		tenant TEXT NOT NULL,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (tenant, code)
	);

	CREATE TABLE IF NOT EXISTS workers (
		tenant TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		contract TEXT NOT NULL,
		mode TEXT NOT NULL,
		fixed_shift TEXT,
		-- NULL = unrestricted, '[]' = no shift allowed
		allowed_shifts_json TEXT,
		specialty_task TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (tenant, id)
	);

	CREATE INDEX IF NOT EXISTS idx_workers_role
		ON workers(tenant, role);

	CREATE TABLE IF NOT EXISTS tasks (
		tenant TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		roles_json TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		equipment_type TEXT,
		equipment_variant TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (tenant, id)
	);

	CREATE TABLE IF NOT EXISTS equipment (
		tenant TEXT NOT NULL,
		id TEXT NOT NULL,
		serial TEXT NOT NULL,
		role TEXT,
		type TEXT NOT NULL,
		variant TEXT,
		status TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (tenant, id)
	);

	-- Matching walks units in serial order
	CREATE UNIQUE INDEX IF NOT EXISTS idx_equipment_serial
		ON equipment(tenant, serial);

	CREATE TABLE IF NOT EXISTS week_plans (
		tenant TEXT NOT NULL,
		week TEXT NOT NULL,
		version INTEGER NOT NULL,
		revision TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (tenant, week)
	);

	CREATE TABLE IF NOT EXISTS plan_assignments (
		tenant TEXT NOT NULL,
		week TEXT NOT NULL,
		worker_id TEXT NOT NULL,
		shift TEXT NOT NULL,
		position INTEGER NOT NULL,
		task_id TEXT,
		equipment_id TEXT,
		provenance TEXT NOT NULL,
		PRIMARY KEY (tenant, week, worker_id),
		FOREIGN KEY (tenant, week) REFERENCES week_plans(tenant, week) ON DELETE CASCADE
	);

	-- History lookups: where was this worker last week
	CREATE INDEX IF NOT EXISTS idx_plan_assignments_worker
		ON plan_assignments(tenant, worker_id, week);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// ROLES
// =============================================================================

func (s *Store) SaveRole(ctx context.Context, tenant roster.TenantID, r roster.Role) error {
	if r.Code == "" {
		return &roster.ValidationError{Field: "role.code", Reason: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO roles (tenant, code, name, active, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tenant, code) DO UPDATE SET
			name = excluded.name,
			active = excluded.active,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, tenant, r.Code, r.Name, r.Active, now())
	return err
}

func (s *Store) ListRoles(ctx context.Context, tenant roster.TenantID) ([]roster.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT code, name, active FROM roles WHERE tenant = ? ORDER BY code", tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	var roles []roster.Role
	for rows.Next() {
		var r roster.Role
		if err := rows.Scan(&r.Code, &r.Name, &r.Active); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// =============================================================================
// WORKERS
// =============================================================================

func (s *Store) SaveWorker(ctx context.Context, tenant roster.TenantID, w roster.Worker) error {
	if err := w.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var fixed sql.NullString
	if w.FixedShift != nil {
		fixed = nullString(w.FixedShift.Code())
	}
	var allowed sql.NullString
	if w.AllowedShifts != nil {
		b, err := json.Marshal(shiftCodes(w.AllowedShifts.Members()))
		if err != nil {
			return err
		}
		allowed = sql.NullString{String: string(b), Valid: true}
	}

	query := `
		INSERT INTO workers (tenant, id, name, role, contract, mode, fixed_shift,
		                     allowed_shifts_json, specialty_task, active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant, id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			contract = excluded.contract,
			mode = excluded.mode,
			fixed_shift = excluded.fixed_shift,
			allowed_shifts_json = excluded.allowed_shifts_json,
			specialty_task = excluded.specialty_task,
			active = excluded.active,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		tenant, w.ID, w.Name, w.Role, w.Contract, w.Mode, fixed,
		allowed, nullString(string(w.SpecialtyTask)), w.Active, now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save worker: %w", err)
	}
	return nil
}

func (s *Store) DeleteWorker(ctx context.Context, tenant roster.TenantID, id roster.WorkerID) error {
	return s.deleteRow(ctx, "workers", tenant, string(id), roster.ErrWorkerNotFound)
}

// ListWorkers returns workers ordered by id.
func (s *Store) ListWorkers(ctx context.Context, tenant roster.TenantID) ([]roster.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, contract, mode, fixed_shift, allowed_shifts_json, specialty_task, active
		FROM workers WHERE tenant = ? ORDER BY id`, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	defer rows.Close()

	var workers []roster.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

func scanWorker(rows *sql.Rows) (roster.Worker, error) {
	var (
		w         roster.Worker
		fixed     sql.NullString
		allowed   sql.NullString
		specialty sql.NullString
	)
	err := rows.Scan(&w.ID, &w.Name, &w.Role, &w.Contract, &w.Mode, &fixed, &allowed, &specialty, &w.Active)
	if err != nil {
		return w, fmt.Errorf("failed to scan worker: %w", err)
	}
	w.SpecialtyTask = roster.TaskID(specialty.String)

	if fixed.Valid {
		s, err := roster.ParseShift(fixed.String)
		if err != nil {
			return w, fmt.Errorf("worker %s: %w", w.ID, err)
		}
		w.FixedShift = &s
	}
	if allowed.Valid {
		var codes []string
		if err := json.Unmarshal([]byte(allowed.String), &codes); err != nil {
			return w, fmt.Errorf("worker %s allowed shifts: %w", w.ID, err)
		}
		set, err := parseShiftSet(codes)
		if err != nil {
			return w, fmt.Errorf("worker %s: %w", w.ID, err)
		}
		w.AllowedShifts = &set
	}
	return w, nil
}

// =============================================================================
// TASKS
// =============================================================================

func (s *Store) SaveTask(ctx context.Context, tenant roster.TenantID, t roster.Task) error {
	if t.ID == "" {
		return &roster.ValidationError{Field: "task.id", Reason: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	roles := t.Roles
	if roles == nil {
		roles = []roster.RoleCode{}
	}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return err
	}
	var eqType, eqVariant sql.NullString
	if t.Equipment != nil {
		eqType = nullString(t.Equipment.Type)
		eqVariant = nullString(t.Equipment.Variant)
	}

	query := `
		INSERT INTO tasks (tenant, id, name, roles_json, active, equipment_type, equipment_variant, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant, id) DO UPDATE SET
			name = excluded.name,
			roles_json = excluded.roles_json,
			active = excluded.active,
			equipment_type = excluded.equipment_type,
			equipment_variant = excluded.equipment_variant,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		tenant, t.ID, t.Name, string(rolesJSON), t.Active, eqType, eqVariant, now())
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, tenant roster.TenantID, id roster.TaskID) error {
	return s.deleteRow(ctx, "tasks", tenant, string(id), roster.ErrTaskNotFound)
}

func (s *Store) ListTasks(ctx context.Context, tenant roster.TenantID) ([]roster.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, roles_json, active, equipment_type, equipment_variant
		FROM tasks WHERE tenant = ? ORDER BY id`, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []roster.Task
	for rows.Next() {
		var (
			t                 roster.Task
			rolesJSON         string
			eqType, eqVariant sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Name, &rolesJSON, &t.Active, &eqType, &eqVariant); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if err := json.Unmarshal([]byte(rolesJSON), &t.Roles); err != nil {
			return nil, fmt.Errorf("task %s roles: %w", t.ID, err)
		}
		if eqType.Valid {
			t.Equipment = &roster.EquipmentRequirement{Type: eqType.String, Variant: eqVariant.String}
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// =============================================================================
// EQUIPMENT
// =============================================================================

func (s *Store) SaveEquipment(ctx context.Context, tenant roster.TenantID, e roster.Equipment) error {
	if e.ID == "" {
		return &roster.ValidationError{Field: "equipment.id", Reason: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO equipment (tenant, id, serial, role, type, variant, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant, id) DO UPDATE SET
			serial = excluded.serial,
			role = excluded.role,
			type = excluded.type,
			variant = excluded.variant,
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		tenant, e.ID, e.Serial, nullString(string(e.Role)), e.Type, nullString(e.Variant), e.Status, now())
	if err != nil {
		if isUniqueConstraintError(err) {
			return &roster.ValidationError{Field: "equipment.serial", Reason: "duplicate " + e.Serial}
		}
		return fmt.Errorf("failed to save equipment: %w", err)
	}
	return nil
}

func (s *Store) DeleteEquipment(ctx context.Context, tenant roster.TenantID, id roster.EquipmentID) error {
	return s.deleteRow(ctx, "equipment", tenant, string(id), roster.ErrEquipmentNotFound)
}

func (s *Store) ListEquipment(ctx context.Context, tenant roster.TenantID) ([]roster.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, serial, role, type, variant, status
		FROM equipment WHERE tenant = ? ORDER BY serial, id`, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to query equipment: %w", err)
	}
	defer rows.Close()

	var out []roster.Equipment
	for rows.Next() {
		var (
			e             roster.Equipment
			role, variant sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Serial, &role, &e.Type, &variant, &e.Status); err != nil {
			return nil, fmt.Errorf("failed to scan equipment: %w", err)
		}
		e.Role = roster.RoleCode(role.String)
		e.Variant = variant.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) deleteRow(ctx context.Context, table string, tenant roster.TenantID, id string, notFound error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE tenant = ? AND id = ?", tenant, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// =============================================================================
// PLANS (roster.PlanStore interface)
// =============================================================================

// GetPlan loads the board of a week.
func (s *Store) GetPlan(ctx context.Context, tenant roster.TenantID, week roster.WeekKey) (*roster.WeekPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan := roster.NewWeekPlan(week)
	err := s.db.QueryRowContext(ctx,
		"SELECT version FROM week_plans WHERE tenant = ? AND week = ?", tenant, week,
	).Scan(&plan.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, roster.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT worker_id, shift, task_id, equipment_id, provenance
		FROM plan_assignments
		WHERE tenant = ? AND week = ?
		ORDER BY shift, position`, tenant, week)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id          roster.WorkerID
			shiftCode   string
			task, equip sql.NullString
			provenance  roster.Provenance
		)
		if err := rows.Scan(&id, &shiftCode, &task, &equip, &provenance); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		shift, err := roster.ParseShift(shiftCode)
		if err != nil {
			return nil, fmt.Errorf("plan %s/%s worker %s: %w", tenant, week, id, err)
		}
		plan.Place(id, shift, provenance)
		if task.Valid {
			plan.Tasks[id] = roster.TaskID(task.String)
		}
		if equip.Valid {
			plan.Equipment[id] = roster.EquipmentID(equip.String)
		}
	}
	return plan, rows.Err()
}

// SavePlan replaces the week's rows if the stored version equals expected.
func (s *Store) SavePlan(ctx context.Context, tenant roster.TenantID, plan *roster.WeekPlan, expected int64) (int64, error) {
	if err := plan.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx,
		"SELECT version FROM week_plans WHERE tenant = ? AND week = ?", tenant, plan.Week,
	).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to read plan version: %w", err)
	}
	if current != expected {
		return 0, &roster.ConflictError{Tenant: tenant, Week: plan.Week, Expected: expected, Actual: current}
	}

	next := current + 1
	_, err = tx.ExecContext(ctx, `
		INSERT INTO week_plans (tenant, week, version, revision, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tenant, week) DO UPDATE SET
			version = excluded.version,
			revision = excluded.revision,
			updated_at = excluded.updated_at`,
		tenant, plan.Week, next, uuid.NewString(), now())
	if err != nil {
		return 0, fmt.Errorf("failed to write plan header: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM plan_assignments WHERE tenant = ? AND week = ?", tenant, plan.Week); err != nil {
		return 0, fmt.Errorf("failed to clear plan: %w", err)
	}
	if err := insertAssignments(ctx, tx, tenant, plan); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	plan.Version = next
	return next, nil
}

func insertAssignments(ctx context.Context, db execer, tenant roster.TenantID, plan *roster.WeekPlan) error {
	query := `
		INSERT INTO plan_assignments
		(tenant, week, worker_id, shift, position, task_id, equipment_id, provenance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, s := range roster.Priority {
		for pos, id := range plan.Columns[s] {
			prov := plan.Provenance[id]
			if prov == "" {
				prov = roster.ProvenanceGenerated
			}
			_, err := db.ExecContext(ctx, query,
				tenant, plan.Week, id, s.Code(), pos,
				nullString(string(plan.Tasks[id])),
				nullString(string(plan.Equipment[id])),
				prov,
			)
			if err != nil {
				return fmt.Errorf("failed to insert assignment for %s: %w", id, err)
			}
		}
	}
	return nil
}

// ListWeeks returns stored weeks, oldest first.
func (s *Store) ListWeeks(ctx context.Context, tenant roster.TenantID) ([]roster.WeekKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT week FROM week_plans WHERE tenant = ? ORDER BY week", tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weeks []roster.WeekKey
	for rows.Next() {
		var w roster.WeekKey
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

// Revision returns the revision id of the stored plan, for audit logs and
// export file names.
func (s *Store) Revision(ctx context.Context, tenant roster.TenantID, week roster.WeekKey) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rev string
	err := s.db.QueryRowContext(ctx,
		"SELECT revision FROM week_plans WHERE tenant = ? AND week = ?", tenant, week,
	).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return "", roster.ErrPlanNotFound
	}
	return rev, err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"plan_assignments", "week_plans", "equipment", "tasks", "workers", "roles"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func shiftCodes(shifts []roster.Shift) []string {
	codes := make([]string, len(shifts))
	for i, s := range shifts {
		codes[i] = s.Code()
	}
	return codes
}

func parseShiftSet(codes []string) (roster.ShiftSet, error) {
	shifts := make([]roster.Shift, 0, len(codes))
	for _, c := range codes {
		s, err := roster.ParseShift(c)
		if err != nil {
			return 0, err
		}
		shifts = append(shifts, s)
	}
	return roster.NewShiftSet(shifts...), nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

var (
	_ roster.CatalogStore = (*Store)(nil)
	_ roster.PlanStore    = (*Store)(nil)
)
