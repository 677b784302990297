package model

import (
	"slices"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/speedview-sync/pkg/db/mytypes"
)

// CarSample is one telemetry sample of a car. Rows with IsManual are entered
// by hand and never touched by a refresh.
type CarSample struct {
	MeetingKey   int32           `db:"meeting_key"`
	SessionKey   int32           `db:"session_key"`
	DriverNumber int16           `db:"driver_number"`
	Date         time.Time       `db:"date"`
	Speed        null.Val[int32] `db:"speed"`
	Throttle     null.Val[int32] `db:"throttle"`
	Brake        null.Val[int32] `db:"brake"`
	NGear        null.Val[int32] `db:"n_gear"`
	RPM          null.Val[int32] `db:"rpm"`
	DRS          null.Val[int32] `db:"drs"`
	IsManual     bool            `db:"is_manual"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

var _ Entity = (*CarSample)(nil)

func (c *CarSample) Table() string { return "car_sample" }

func (c *CarSample) KeyColumns() Columns {
	return Columns{
		"session_key":   c.SessionKey,
		"driver_number": c.DriverNumber,
		"date":          c.Date,
	}
}

func (c *CarSample) Values() Columns {
	ret := c.attributes()
	ret["session_key"] = c.SessionKey
	ret["driver_number"] = c.DriverNumber
	ret["date"] = c.Date
	ret["is_manual"] = c.IsManual
	return ret
}

func (c *CarSample) attributes() Columns {
	return Columns{
		"meeting_key": c.MeetingKey,
		"speed":       c.Speed,
		"throttle":    c.Throttle,
		"brake":       c.Brake,
		"n_gear":      c.NGear,
		"rpm":         c.RPM,
		"drs":         c.DRS,
	}
}

func (c *CarSample) Changes() Columns {
	return present(c.attributes())
}

// SampleScope selects the imported samples a refresh may replace. Empty
// session or driver lists match all, unset speeds leave the range open.
// A speed bound only matches samples with a speed.
type SampleScope struct {
	MeetingKey    int32
	SessionKeys   []int32
	DriverNumbers []int16
	MinSpeed      null.Val[int32]
	MaxSpeed      null.Val[int32]
}

func (s SampleScope) Matches(c *CarSample) bool {
	if c.IsManual || c.MeetingKey != s.MeetingKey {
		return false
	}
	if len(s.SessionKeys) > 0 && !slices.Contains(s.SessionKeys, c.SessionKey) {
		return false
	}
	if len(s.DriverNumbers) > 0 && !slices.Contains(s.DriverNumbers, c.DriverNumber) {
		return false
	}
	if !s.MinSpeed.IsValue() && !s.MaxSpeed.IsValue() {
		return true
	}
	speed, ok := c.Speed.Get()
	if !ok {
		return false
	}
	if low, ok := s.MinSpeed.Get(); ok && speed < low {
		return false
	}
	if high, ok := s.MaxSpeed.Get(); ok && speed > high {
		return false
	}
	return true
}

type Lap struct {
	MeetingKey      int32               `db:"meeting_key"`
	SessionKey      int32               `db:"session_key"`
	DriverNumber    int16               `db:"driver_number"`
	LapNumber       int32               `db:"lap_number"`
	DateStart       null.Val[time.Time] `db:"date_start"`
	LapDuration     decimal.NullDecimal `db:"lap_duration"`
	DurationSector1 decimal.NullDecimal `db:"duration_sector_1"`
	DurationSector2 decimal.NullDecimal `db:"duration_sector_2"`
	DurationSector3 decimal.NullDecimal `db:"duration_sector_3"`
	I1Speed         null.Val[int32]     `db:"i1_speed"`
	I2Speed         null.Val[int32]     `db:"i2_speed"`
	StSpeed         null.Val[int32]     `db:"st_speed"`
	IsPitOutLap     bool                `db:"is_pit_out_lap"`
	Segments        mytypes.Segments    `db:"segments"`
	CreatedAt       time.Time           `db:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at"`
}

var _ Entity = (*Lap)(nil)

func (l *Lap) Table() string { return "lap" }

func (l *Lap) KeyColumns() Columns {
	return Columns{
		"driver_number": l.DriverNumber,
		"session_key":   l.SessionKey,
		"lap_number":    l.LapNumber,
	}
}

func (l *Lap) attributes() Columns {
	return Columns{
		"meeting_key":       l.MeetingKey,
		"date_start":        l.DateStart,
		"lap_duration":      l.LapDuration,
		"duration_sector_1": l.DurationSector1,
		"duration_sector_2": l.DurationSector2,
		"duration_sector_3": l.DurationSector3,
		"i1_speed":          l.I1Speed,
		"i2_speed":          l.I2Speed,
		"st_speed":          l.StSpeed,
		"segments":          l.Segments,
	}
}

func (l *Lap) Values() Columns {
	ret := l.attributes()
	for k, v := range l.KeyColumns() {
		ret[k] = v
	}
	ret["is_pit_out_lap"] = l.IsPitOutLap
	return ret
}

func (l *Lap) Changes() Columns {
	ret := present(l.attributes())
	ret["is_pit_out_lap"] = l.IsPitOutLap
	return ret
}

type Pit struct {
	MeetingKey   int32               `db:"meeting_key"`
	SessionKey   int32               `db:"session_key"`
	DriverNumber int16               `db:"driver_number"`
	LapNumber    int32               `db:"lap_number"`
	Date         null.Val[time.Time] `db:"date"`
	PitDuration  decimal.NullDecimal `db:"pit_duration"`
	CreatedAt    time.Time           `db:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at"`
}

var _ Entity = (*Pit)(nil)

func (p *Pit) Table() string { return "pit" }

func (p *Pit) KeyColumns() Columns {
	return Columns{
		"driver_number": p.DriverNumber,
		"session_key":   p.SessionKey,
		"lap_number":    p.LapNumber,
	}
}

func (p *Pit) attributes() Columns {
	return Columns{
		"meeting_key":  p.MeetingKey,
		"date":         p.Date,
		"pit_duration": p.PitDuration,
	}
}

func (p *Pit) Values() Columns {
	ret := p.attributes()
	for k, v := range p.KeyColumns() {
		ret[k] = v
	}
	return ret
}

func (p *Pit) Changes() Columns {
	return present(p.attributes())
}

type Weather struct {
	MeetingKey       int32               `db:"meeting_key"`
	SessionKey       null.Val[int32]     `db:"session_key"`
	Date             time.Time           `db:"date"`
	AirTemperature   decimal.NullDecimal `db:"air_temperature"`
	TrackTemperature decimal.NullDecimal `db:"track_temperature"`
	Humidity         decimal.NullDecimal `db:"humidity"`
	Pressure         decimal.NullDecimal `db:"pressure"`
	WindSpeed        decimal.NullDecimal `db:"wind_speed"`
	WindDirection    null.Val[int32]     `db:"wind_direction"`
	Rainfall         null.Val[bool]      `db:"rainfall"`
	CreatedAt        time.Time           `db:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at"`
}

var _ Entity = (*Weather)(nil)

func (w *Weather) Table() string { return "weather" }

func (w *Weather) KeyColumns() Columns {
	return Columns{"meeting_key": w.MeetingKey, "date": w.Date}
}

func (w *Weather) attributes() Columns {
	return Columns{
		"session_key":       w.SessionKey,
		"air_temperature":   w.AirTemperature,
		"track_temperature": w.TrackTemperature,
		"humidity":          w.Humidity,
		"pressure":          w.Pressure,
		"wind_speed":        w.WindSpeed,
		"wind_direction":    w.WindDirection,
		"rainfall":          w.Rainfall,
	}
}

func (w *Weather) Values() Columns {
	ret := w.attributes()
	ret["meeting_key"] = w.MeetingKey
	ret["date"] = w.Date
	return ret
}

func (w *Weather) Changes() Columns {
	return present(w.attributes())
}

// DRSStatus is the raw DRS code reported by the car. The code is stored as
// received, Label is only used for log output.
type DRSStatus int32

func (d DRSStatus) Label() string {
	switch d {
	case 0, 1:
		return "DRS off"
	case 8:
		return "Detected"
	case 10, 12, 14:
		return "DRS on"
	default:
		return "Unknown"
	}
}
