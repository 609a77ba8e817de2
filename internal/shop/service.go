package shop

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/shopq/internal/queryir"
	"github.com/roach88/shopq/internal/querysql"
	"github.com/roach88/shopq/internal/schema"
	"github.com/roach88/shopq/internal/store"
)

// Service runs commerce operations against one store.
//
// Service holds no mutable state of its own; every operation is a function
// of its inputs and the database.
type Service struct {
	store    *store.Store
	schema   *schema.Schema
	compiler *querysql.SQLCompiler
	logger   *slog.Logger
	clock    Clock
	ids      IDGenerator
	validate *validator.Validate
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for operation failures and debug SQL.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock that stamps new orders.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithIDGenerator sets the operation id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Service) {
		if g != nil {
			s.ids = g
		}
	}
}

// NewService creates a service over st. Statements are compiled for the
// store's dialect.
func NewService(st *store.Store, opts ...Option) *Service {
	sch := schema.Commerce()
	s := &Service{
		store:    st,
		schema:   sch,
		compiler: querysql.NewSQLCompiler(sch, st.Dialect()),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:    SystemClock{},
		ids:      UUIDv7Generator{},
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// At returns a copy of the service whose new orders are dated by c. The
// copy shares the store.
func (s *Service) At(c Clock) *Service {
	cp := *s
	cp.clock = c
	return &cp
}

// Compiler returns the compiler the service builds statements with.
func (s *Service) Compiler() *querysql.SQLCompiler {
	return s.compiler
}

// runner is satisfied by *store.Store and *store.Tx.
type runner interface {
	Query(ctx context.Context, st querysql.Statement) ([]store.Row, error)
	QueryOne(ctx context.Context, st querysql.Statement) (store.Row, bool, error)
	Exec(ctx context.Context, st querysql.Statement) (int64, error)
	Insert(ctx context.Context, st querysql.Statement) (int64, error)
}

// compile builds a statement and logs it at debug level.
func (s *Service) compile(ctx context.Context, op string, q queryir.Query) (querysql.Statement, error) {
	st, err := s.compiler.Compile(q)
	if err != nil {
		return querysql.Statement{}, err
	}
	s.logger.DebugContext(ctx, "statement",
		"op", op,
		"sql", st.SQL,
		"args", len(st.Args),
	)
	return st, nil
}

// fail is the operation boundary. *Error values pass through; anything else
// is logged once with a fresh operation id and returned as UNEXPECTED.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	opID := s.ids.Generate()
	s.logger.ErrorContext(ctx, "operation failed",
		"op", op,
		"op_id", opID,
		"error", err,
	)
	return unexpected(op, opID, err)
}

// fetchAll runs a Select and converts every row.
func fetchAll[T any](ctx context.Context, s *Service, r runner, op string, q queryir.Query, conv func(store.Row) T) ([]T, error) {
	st, err := s.compile(ctx, op, q)
	if err != nil {
		return nil, err
	}
	rows, err := r.Query(ctx, st)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(rows))
	for _, row := range rows {
		items = append(items, conv(row))
	}
	return items, nil
}

// fetchOne runs a Select expected to match at most one row.
func fetchOne[T any](ctx context.Context, s *Service, r runner, op string, q queryir.Query, conv func(store.Row) T) (T, bool, error) {
	var zero T
	st, err := s.compile(ctx, op, q)
	if err != nil {
		return zero, false, err
	}
	row, ok, err := r.QueryOne(ctx, st)
	if err != nil || !ok {
		return zero, false, err
	}
	return conv(row), true, nil
}

// listOf runs a Select and wraps the rows in a List. Failures go through
// the operation boundary, so a failed list never carries items.
func listOf[T any](ctx context.Context, s *Service, op string, q queryir.Query, conv func(store.Row) T) (List[T], error) {
	items, err := fetchAll(ctx, s, s.store, op, q, conv)
	if err != nil {
		return List[T]{}, s.fail(ctx, op, err)
	}
	return NewList(items), nil
}

// get looks up one entity by id and reports NOT_FOUND when absent.
func get[T any](ctx context.Context, s *Service, r runner, op, table string, id int64, conv func(store.Row) T) (T, error) {
	v, ok, err := fetchOne(ctx, s, r, op, byID(table, id), conv)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, NotFound(entityName(table), id)
	}
	return v, nil
}

// exists reports whether table has a row with id.
func (s *Service) exists(ctx context.Context, r runner, op, table string, id int64) (bool, error) {
	_, ok, err := fetchOne(ctx, s, r, op, queryir.Select{
		From:    table,
		Columns: queryir.Fields("id"),
		Filter:  queryir.Eq("id", queryir.Int(id)),
	}, func(store.Row) struct{} { return struct{}{} })
	return ok, err
}

// mustExist returns NOT_FOUND when table has no row with id.
func (s *Service) mustExist(ctx context.Context, r runner, op, table string, id int64) error {
	ok, err := s.exists(ctx, r, op, table, id)
	if err != nil {
		return err
	}
	if !ok {
		return NotFound(entityName(table), id)
	}
	return nil
}

// insert compiles and runs an Insert, translating constraint violations.
func (s *Service) insert(ctx context.Context, r runner, op string, q queryir.Insert) (int64, error) {
	st, err := s.compile(ctx, op, q)
	if err != nil {
		return 0, err
	}
	id, err := r.Insert(ctx, st)
	if err != nil {
		return 0, translate(q.Table, err)
	}
	return id, nil
}

// exec compiles and runs an Update or Delete on table and returns rows
// affected.
func (s *Service) exec(ctx context.Context, r runner, op, table string, q queryir.Query) (int64, error) {
	st, err := s.compile(ctx, op, q)
	if err != nil {
		return 0, err
	}
	n, err := r.Exec(ctx, st)
	if err != nil {
		return 0, translate(table, err)
	}
	return n, nil
}

// translate maps store constraint errors onto the error taxonomy. A
// foreign-key failure after the parent lookup means the parent was removed
// concurrently; it is still reported as a missing parent.
func translate(table string, err error) error {
	switch {
	case store.IsUniqueViolation(err):
		return Duplicate(entityName(table), entityName(table)+" already exists", err)
	case store.IsForeignKeyViolation(err):
		return &Error{Code: CodeNotFound, Message: "referenced row not found", Entity: entityName(table), cause: err}
	case store.IsCheckViolation(err):
		return &Error{Code: CodeValidation, Message: err.Error(), Entity: entityName(table), cause: err}
	default:
		return err
	}
}

func entityName(table string) string {
	switch table {
	case schema.Customers:
		return "customer"
	case schema.Products:
		return "product"
	case schema.Orders:
		return "order"
	case schema.OrderItems:
		return "order item"
	case schema.Reviews:
		return "review"
	case schema.Tags:
		return "tag"
	default:
		return table
	}
}
