package model

import (
	"reflect"
	"sort"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/speedview-sync/pkg/db/mytypes"
)

// Columns maps column names to values for one row.
type Columns map[string]any

// Entity is implemented by every table row written by the importer.
type Entity interface {
	Table() string
	// KeyColumns returns the natural key of the row
	KeyColumns() Columns
	// Values returns all insertable columns, including the natural key
	Values() Columns
	// Changes returns the non-key columns which carry a value.
	// Columns without a value never overwrite existing data.
	Changes() Columns
}

// Names returns the column names in sorted order
func (c Columns) Names() []string {
	ret := make([]string, 0, len(c))
	for k := range c {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// Diff returns the columns of c whose values differ from current
func (c Columns) Diff(current Columns) Columns {
	ret := Columns{}
	for k, v := range c {
		if cur, ok := current[k]; !ok || !equalValue(v, cur) {
			ret[k] = v
		}
	}
	return ret
}

// present collects only the columns carrying a value
func present(cols Columns) Columns {
	ret := Columns{}
	for k, v := range cols {
		if hasValue(v) {
			ret[k] = v
		}
	}
	return ret
}

type nullable interface {
	IsNull() bool
}

func hasValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case decimal.NullDecimal:
		return x.Valid
	case mytypes.Segments:
		return !x.IsEmpty()
	case nullable:
		return !x.IsNull()
	}
	return true
}

//nolint:cyclop // type switch
func equalValue(a, b any) bool {
	switch x := a.(type) {
	case decimal.NullDecimal:
		y, ok := b.(decimal.NullDecimal)
		return ok && x.Valid == y.Valid && (!x.Valid || x.Decimal.Equal(y.Decimal))
	case null.Val[time.Time]:
		y, ok := b.(null.Val[time.Time])
		if !ok {
			return false
		}
		xv, xok := x.Get()
		yv, yok := y.Get()
		return xok == yok && (!xok || xv.Equal(yv))
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case mytypes.Segments:
		y, ok := b.(mytypes.Segments)
		return ok && x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}
