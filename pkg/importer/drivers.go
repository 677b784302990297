package importer

import (
	"context"

	"github.com/aarondl/opt/null"

	"github.com/mpapenbr/speedview-sync/pkg/importer/resolver"
	"github.com/mpapenbr/speedview-sync/pkg/importer/upsert"
	"github.com/mpapenbr/speedview-sync/pkg/model"
	"github.com/mpapenbr/speedview-sync/pkg/openf1"
)

// DriversJob imports drivers together with their per session team entries
type DriversJob struct{}

var _ Job = DriversJob{}

func (DriversJob) Name() string { return "drivers" }

func (DriversJob) Units(ctx context.Context, env *Env) ([]Unit, error) {
	u := Unit{Label: "drivers", Endpoint: openf1.EndpointDrivers}
	cfg := env.Cfg
	if len(cfg.DriverNumbers) > 0 {
		u.Params = append(u.Params, openf1.Ints("driver_number", cfg.DriverNumbers...))
	}
	if len(cfg.CountryCodes) > 0 {
		u.Params = append(u.Params, openf1.Strings("country_code", cfg.CountryCodes...))
	}
	if len(cfg.MeetingKeys) > 0 {
		u.Params = append(u.Params, openf1.Ints("meeting_key", cfg.MeetingKeys...))
	}
	if len(cfg.SessionKeys) > 0 {
		u.Params = append(u.Params, openf1.Ints("session_key", cfg.SessionKeys...))
	}
	return []Unit{u}, nil
}

// Process counts drivers only. Parents and entries are written as a side
// effect.
//
//nolint:whitespace // editor/linter issue
func (DriversJob) Process(
	ctx context.Context,
	env *Env,
	unit Unit,
	records []openf1.Record,
) (Stats, error) {
	return eachRecord(ctx, env, records,
		func(ctx context.Context, rec *openf1.DriverRecord) (upsert.Result, error) {
			d := toDriver(rec)
			res, err := upsert.Upsert[*model.Driver](ctx, env.Engine, env.Repos.Driver(), d)
			if err != nil {
				return res, err
			}
			if !env.Engine.CreateOnly() {
				env.Caches.Drivers.Put(ctx, d.DriverNumber, d)
			}
			if rec.MeetingKey == nil {
				return res, nil
			}
			if err := storeEntry(ctx, env, rec, d); err != nil {
				return upsert.Result{}, err
			}
			return res, nil
		})
}

func toDriver(rec *openf1.DriverRecord) *model.Driver {
	return &model.Driver{
		DriverNumber:  int16(*rec.DriverNumber),
		FirstName:     model.Text(rec.FirstName, 64),
		LastName:      model.Text(rec.LastName, 64),
		FullName:      model.Text(rec.FullName, 128),
		BroadcastName: model.Text(rec.BroadcastName, 128),
		NameAcronym:   model.Text(code(rec.NameAcronym), 0),
		CountryCode:   model.Text(code(rec.CountryCode), 0),
		HeadshotURL:   model.Text(rec.HeadshotURL, 0),
	}
}

// storeEntry resolves meeting, session and team of rec and writes the entry
// if the record is bound to a session.
//
//nolint:whitespace // editor/linter issue
func storeEntry(
	ctx context.Context,
	env *Env,
	rec *openf1.DriverRecord,
	d *model.Driver,
) error {
	parents, err := env.Resolver.Resolve(ctx, resolverRef(rec))
	if err != nil {
		return err
	}
	if parents.Session == nil {
		return nil
	}
	entry := &model.DriverEntry{
		DriverNumber: d.DriverNumber,
		SessionKey:   parents.Session.SessionKey,
		MeetingKey:   parents.Meeting.MeetingKey,
	}
	if parents.Team != nil {
		entry.TeamName = null.From(parents.Team.TeamName)
		entry.TeamColour = parents.Team.TeamColour
	}
	_, err = upsert.Upsert[*model.DriverEntry](ctx, env.Engine, env.Repos.DriverEntry(), entry)
	return err
}

func resolverRef(rec *openf1.DriverRecord) resolver.Ref {
	return resolver.Ref{
		MeetingKey: rec.MeetingKey,
		SessionKey: rec.SessionKey,
		TeamName:   rec.TeamName,
		TeamColour: rec.TeamColour,
	}
}
