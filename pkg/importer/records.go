package importer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/speedview-sync/log"
	"github.com/mpapenbr/speedview-sync/pkg/importer/resolver"
	"github.com/mpapenbr/speedview-sync/pkg/importer/upsert"
	"github.com/mpapenbr/speedview-sync/pkg/openf1"
)

// eachRecord decodes every record into T and hands it to fn.
// Invalid and ineligible records are counted and skipped, other errors abort.
//
//nolint:whitespace // editor/linter issue
func eachRecord[T any](
	ctx context.Context,
	env *Env,
	records []openf1.Record,
	fn func(ctx context.Context, rec *T) (upsert.Result, error),
) (Stats, error) {
	ret := Stats{Rows: len(records)}
	for _, raw := range records {
		rec, err := openf1.Decode[T](raw)
		if err == nil {
			var res upsert.Result
			if res, err = fn(ctx, rec); err == nil {
				ret.Add(Stats{Result: res})
				continue
			}
		}
		if errors.Is(err, openf1.ErrInvalidRecord) || errors.Is(err, resolver.ErrIneligible) {
			ret.Invalid++
			env.l.Warn("skipping record",
				log.String("record", openf1.Describe(raw)),
				log.ErrorField(err))
			continue
		}
		return ret, err
	}
	return ret, nil
}

func nullInt32(p *int) null.Val[int32] {
	if p == nil {
		return null.Val[int32]{}
	}
	return null.From(int32(*p))
}

func nullTime(p *time.Time) null.Val[time.Time] {
	if p == nil || p.IsZero() {
		return null.Val[time.Time]{}
	}
	return null.From(*p)
}

func nullDecimal(p *float64) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*p))
}

// code returns an uppercase value of at most 3 characters
func code(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) > 3 {
		s = s[:3]
	}
	return s
}

func int32s(in []int) []int32 {
	return lo.Map(in, func(v, _ int) int32 { return int32(v) })
}
