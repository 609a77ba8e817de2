package fixture

import (
	_ "embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/shopspring/decimal"

	"github.com/roach88/shopq/internal/schema"
)

//go:embed catalog.cue
var catalogCUE string

// Catalog is a decoded fixture. Entities are keyed by the labels used in the
// fixture file and kept in declaration order.
type Catalog struct {
	Customers []Customer
	Products  []Product
	Orders    []Order
	Reviews   []Review
	Tags      []Tag
}

// Customer is a labelled customer entry.
type Customer struct {
	Key   string
	Name  string
	Email string
}

// Product is a labelled product entry.
type Product struct {
	Key   string
	Name  string
	Price decimal.Decimal
	Stock int64
}

// Order is a labelled order entry. A zero Date means the order is dated by
// the service clock.
type Order struct {
	Key      string
	Customer string
	Date     time.Time
	Items    []Item
}

// Item is one product line of a fixture order.
type Item struct {
	Product  string
	Quantity int64
}

// Review references its product and customer by key.
type Review struct {
	Product  string
	Customer string
	Data     map[string]any
}

// Tag references its product by key.
type Tag struct {
	Product  string
	Keywords []string
}

// Error reports a fixture problem with its source position.
type Error struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Load reads and decodes the fixture file at path.
func Load(path string) (*Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(path, src)
}

// Parse validates src against the catalog schema and decodes it. filename is
// used in error positions only.
func Parse(filename string, src []byte) (*Catalog, error) {
	ctx := cuecontext.New()

	def := ctx.CompileString(catalogCUE, cue.Filename("catalog.cue")).
		LookupPath(cue.ParsePath("#Catalog"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("catalog schema: %w", err)
	}

	data := ctx.CompileBytes(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return nil, formatCUEError(err, filename)
	}

	v := def.Unify(data)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, locate(formatCUEError(err, filename), data, filename)
	}

	cat := &Catalog{}
	var err error
	if cat.Customers, err = decodeCustomers(v.LookupPath(cue.ParsePath("customers"))); err != nil {
		return nil, err
	}
	if cat.Products, err = decodeProducts(v.LookupPath(cue.ParsePath("products"))); err != nil {
		return nil, err
	}
	if cat.Orders, err = decodeOrders(v.LookupPath(cue.ParsePath("orders"))); err != nil {
		return nil, err
	}
	if cat.Reviews, err = decodeReviews(v.LookupPath(cue.ParsePath("reviews"))); err != nil {
		return nil, err
	}
	if cat.Tags, err = decodeTags(v.LookupPath(cue.ParsePath("tags"))); err != nil {
		return nil, err
	}

	if err := checkRefs(cat, data); err != nil {
		return nil, err
	}
	return cat, nil
}

func decodeCustomers(v cue.Value) ([]Customer, error) {
	var out []Customer
	err := eachField(v, func(key string, fv cue.Value) error {
		c := Customer{Key: key}
		var err error
		if c.Name, err = fv.LookupPath(cue.ParsePath("name")).String(); err != nil {
			return formatCUEError(err)
		}
		if c.Email, err = fv.LookupPath(cue.ParsePath("email")).String(); err != nil {
			return formatCUEError(err)
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

func decodeProducts(v cue.Value) ([]Product, error) {
	var out []Product
	err := eachField(v, func(key string, fv cue.Value) error {
		p := Product{Key: key}
		var err error
		if p.Name, err = fv.LookupPath(cue.ParsePath("name")).String(); err != nil {
			return formatCUEError(err)
		}

		// The JSON form of a CUE number is its exact decimal text.
		priceVal := fv.LookupPath(cue.ParsePath("price"))
		raw, err := priceVal.MarshalJSON()
		if err != nil {
			return formatCUEError(err)
		}
		if p.Price, err = decimal.NewFromString(string(raw)); err != nil {
			return &Error{Path: "products." + key + ".price", Message: err.Error(), Pos: priceVal.Pos()}
		}

		if p.Stock, err = fv.LookupPath(cue.ParsePath("stock")).Int64(); err != nil {
			return formatCUEError(err)
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func decodeOrders(v cue.Value) ([]Order, error) {
	var out []Order
	err := eachField(v, func(key string, fv cue.Value) error {
		o := Order{Key: key}
		var err error
		if o.Customer, err = fv.LookupPath(cue.ParsePath("customer")).String(); err != nil {
			return formatCUEError(err)
		}

		if dateVal := fv.LookupPath(cue.ParsePath("date")); dateVal.Exists() {
			s, err := dateVal.String()
			if err != nil {
				return formatCUEError(err)
			}
			if o.Date, err = time.Parse(schema.DateLayout, s); err != nil {
				return &Error{Path: "orders." + key + ".date", Message: "not a calendar date", Pos: dateVal.Pos()}
			}
		}

		err = eachField(fv.LookupPath(cue.ParsePath("items")), func(product string, qv cue.Value) error {
			n, err := qv.Int64()
			if err != nil {
				return formatCUEError(err)
			}
			o.Items = append(o.Items, Item{Product: product, Quantity: n})
			return nil
		})
		if err != nil {
			return err
		}
		out = append(out, o)
		return nil
	})
	return out, err
}

func decodeReviews(v cue.Value) ([]Review, error) {
	var out []Review
	err := eachElem(v, func(ev cue.Value) error {
		r := Review{}
		var err error
		if r.Product, err = ev.LookupPath(cue.ParsePath("product")).String(); err != nil {
			return formatCUEError(err)
		}
		if r.Customer, err = ev.LookupPath(cue.ParsePath("customer")).String(); err != nil {
			return formatCUEError(err)
		}
		raw, err := ev.LookupPath(cue.ParsePath("data")).MarshalJSON()
		if err != nil {
			return formatCUEError(err)
		}
		if err := json.Unmarshal(raw, &r.Data); err != nil {
			return fmt.Errorf("review data: %w", err)
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

func decodeTags(v cue.Value) ([]Tag, error) {
	var out []Tag
	err := eachElem(v, func(ev cue.Value) error {
		t := Tag{}
		var err error
		if t.Product, err = ev.LookupPath(cue.ParsePath("product")).String(); err != nil {
			return formatCUEError(err)
		}
		if err := ev.LookupPath(cue.ParsePath("keywords")).Decode(&t.Keywords); err != nil {
			return formatCUEError(err)
		}
		out = append(out, t)
		return nil
	})
	return out, err
}

// checkRefs reports the first key that names no entity of the expected kind.
// Positions are looked up in data so they point into the fixture file.
func checkRefs(cat *Catalog, data cue.Value) error {
	customers := map[string]bool{}
	for _, c := range cat.Customers {
		customers[c.Key] = true
	}
	products := map[string]bool{}
	for _, p := range cat.Products {
		products[p.Key] = true
	}

	missing := func(path, kind, key string) error {
		return &Error{
			Path:    path,
			Message: fmt.Sprintf("unknown %s %q", kind, key),
			Pos:     data.LookupPath(cue.ParsePath(path)).Pos(),
		}
	}

	for _, o := range cat.Orders {
		if !customers[o.Customer] {
			return missing("orders."+o.Key+".customer", "customer", o.Customer)
		}
		for _, it := range o.Items {
			if !products[it.Product] {
				return missing("orders."+o.Key+".items."+it.Product, "product", it.Product)
			}
		}
	}
	for i, r := range cat.Reviews {
		if !products[r.Product] {
			return missing(fmt.Sprintf("reviews[%d].product", i), "product", r.Product)
		}
		if !customers[r.Customer] {
			return missing(fmt.Sprintf("reviews[%d].customer", i), "customer", r.Customer)
		}
	}
	for i, t := range cat.Tags {
		if !products[t.Product] {
			return missing(fmt.Sprintf("tags[%d].product", i), "product", t.Product)
		}
	}
	return nil
}

func eachField(v cue.Value, fn func(key string, fv cue.Value) error) error {
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Label(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func eachElem(v cue.Value, fn func(ev cue.Value) error) error {
	if !v.Exists() {
		return nil
	}
	iter, err := v.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

// formatCUEError reports one CUE error as an *Error. It prefers the first
// error positioned inside filename, then the first error with any position.
// A disjunction failure is itself unpositioned but is followed by the
// errors of its arms, which are.
func formatCUEError(err error, filename ...string) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	chosen := errs[0]
	var pos token.Pos
	for _, e := range errs {
		positions := errors.Positions(e)
		if len(positions) == 0 {
			continue
		}
		if !pos.IsValid() {
			chosen, pos = e, positions[0]
		}
		if len(filename) == 0 {
			break
		}
		if p, ok := positionIn(positions, filename[0]); ok {
			chosen, pos = e, p
			break
		}
	}

	path := cuePath(chosen)
	for _, e := range errs {
		if path != "" {
			break
		}
		path = cuePath(e)
	}
	if path == "" {
		path = "fixture"
	}

	format, args := chosen.Msg()
	return &Error{
		Path:    path,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	}
}

func positionIn(positions []token.Pos, filename string) (token.Pos, bool) {
	for _, p := range positions {
		if p.Filename() == filename {
			return p, true
		}
	}
	return token.NoPos, false
}

// cuePath joins the path of e without the schema definition it was
// validated through.
func cuePath(e errors.Error) string {
	p := e.Path()
	if len(p) > 0 && strings.HasPrefix(p[0], "#") {
		p = p[1:]
	}
	return strings.Join(p, ".")
}

// locate points an error that has no position inside filename at the
// fixture value its path names, when there is one.
func locate(err error, data cue.Value, filename string) error {
	var fe *Error
	if !stderrors.As(err, &fe) || fe.Pos.Filename() == filename {
		return err
	}
	if p := data.LookupPath(cue.ParsePath(fe.Path)).Pos(); p.IsValid() {
		fe.Pos = p
	}
	return err
}
