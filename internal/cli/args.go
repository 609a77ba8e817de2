package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/roach88/shopq/internal/schema"
)

// decimalValue is a pflag.Value holding a money amount.
type decimalValue struct {
	d *decimal.Decimal
}

var _ pflag.Value = (*decimalValue)(nil)

func newDecimalValue(def decimal.Decimal, p *decimal.Decimal) *decimalValue {
	*p = def
	return &decimalValue{d: p}
}

func (v *decimalValue) String() string {
	if v.d == nil {
		return "0"
	}
	return v.d.String()
}

func (v *decimalValue) Set(s string) error {
	d, err := parseAmount(s)
	if err != nil {
		return err
	}
	*v.d = d
	return nil
}

func (v *decimalValue) Type() string {
	return "decimal"
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// argError marks a malformed positional argument.
func argError(format string, args ...any) *ExitError {
	return NewExitError(ExitCommandError, fmt.Sprintf(format, args...))
}

func parseID(name, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, argError("%s must be a positive integer, got %q", name, s)
	}
	return id, nil
}

func parseYear(s string) (int, error) {
	y, err := strconv.Atoi(s)
	if err != nil || y < 1 || y > 9999 {
		return 0, argError("year must be between 1 and 9999, got %q", s)
	}
	return y, nil
}

// Cell formatting for text tables.

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func nullMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return money(d.Decimal)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	customerHeaders = []string{"ID", "NAME", "EMAIL"}
	productHeaders  = []string{"ID", "NAME", "PRICE", "STOCK"}
	orderHeaders    = []string{"ID", "CUSTOMER", "CREATED"}
)

func customerRow(c schema.Customer) []string {
	return []string{itoa(c.ID), c.Name, c.Email}
}

func productRow(p schema.Product) []string {
	return []string{itoa(p.ID), p.Name, money(p.Price), itoa(p.Stock)}
}

func orderRow(o schema.Order) []string {
	return []string{itoa(o.ID), itoa(o.CustomerID), o.CreatedDate()}
}

func rowsOf[T any](items []T, row func(T) []string) [][]string {
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = row(it)
	}
	return rows
}
