package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aarondl/opt/null"
)

type Team struct {
	TeamName        string           `db:"team_name"`
	TeamColour      null.Val[string] `db:"team_colour"`
	TeamDescription null.Val[string] `db:"team_description"`
	CreatedAt       time.Time        `db:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at"`
}

var _ Entity = (*Team)(nil)

func (t *Team) Table() string { return "team" }

func (t *Team) KeyColumns() Columns {
	return Columns{"team_name": t.TeamName}
}

func (t *Team) Values() Columns {
	return Columns{
		"team_name":        t.TeamName,
		"team_colour":      t.TeamColour,
		"team_description": t.TeamDescription,
	}
}

func (t *Team) Changes() Columns {
	return present(Columns{
		"team_colour":      t.TeamColour,
		"team_description": t.TeamDescription,
	})
}

type Driver struct {
	DriverNumber  int16            `db:"driver_number"`
	FirstName     null.Val[string] `db:"first_name"`
	LastName      null.Val[string] `db:"last_name"`
	FullName      null.Val[string] `db:"full_name"`
	BroadcastName null.Val[string] `db:"broadcast_name"`
	NameAcronym   null.Val[string] `db:"name_acronym"`
	CountryCode   null.Val[string] `db:"country_code"`
	HeadshotURL   null.Val[string] `db:"headshot_url"`
	Biography     null.Val[string] `db:"biography"`
	CreatedAt     time.Time        `db:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at"`
}

var _ Entity = (*Driver)(nil)

func (d *Driver) Table() string { return "driver" }

func (d *Driver) KeyColumns() Columns {
	return Columns{"driver_number": d.DriverNumber}
}

func (d *Driver) attributes() Columns {
	return Columns{
		"first_name":     d.FirstName,
		"last_name":      d.LastName,
		"full_name":      d.FullName,
		"broadcast_name": d.BroadcastName,
		"name_acronym":   d.NameAcronym,
		"country_code":   d.CountryCode,
		"headshot_url":   d.HeadshotURL,
		"biography":      d.Biography,
	}
}

func (d *Driver) Values() Columns {
	ret := d.attributes()
	ret["driver_number"] = d.DriverNumber
	return ret
}

func (d *Driver) Changes() Columns {
	return present(d.attributes())
}

// DriverEntry is the participation of a driver in one session together with
// the team data valid for that session.
type DriverEntry struct {
	DriverNumber int16            `db:"driver_number"`
	SessionKey   int32            `db:"session_key"`
	MeetingKey   int32            `db:"meeting_key"`
	TeamName     null.Val[string] `db:"team_name"`
	TeamColour   null.Val[string] `db:"team_colour"`
	CreatedAt    time.Time        `db:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at"`
}

var _ Entity = (*DriverEntry)(nil)

func (e *DriverEntry) Table() string { return "driver_entry" }

func (e *DriverEntry) KeyColumns() Columns {
	return Columns{"driver_number": e.DriverNumber, "session_key": e.SessionKey}
}

func (e *DriverEntry) Values() Columns {
	return Columns{
		"driver_number": e.DriverNumber,
		"session_key":   e.SessionKey,
		"meeting_key":   e.MeetingKey,
		"team_name":     e.TeamName,
		"team_colour":   e.TeamColour,
	}
}

func (e *DriverEntry) Changes() Columns {
	ret := present(Columns{
		"team_name":   e.TeamName,
		"team_colour": e.TeamColour,
	})
	ret["meeting_key"] = e.MeetingKey
	return ret
}

var (
	ErrInvalidColour = errors.New("invalid team colour")
	colourRegex      = regexp.MustCompile("^[0-9A-F]{6}$")
)

// NormalizeColour converts values like "#00a19a" to "00A19A"
func NormalizeColour(s string) (string, error) {
	c := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if !colourRegex.MatchString(c) {
		return "", ErrInvalidColour
	}
	return c, nil
}

// Truncate shortens s to at most n runes
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Text returns a null value for empty strings, otherwise the trimmed string
// shortened to maxLen runes. maxLen <= 0 disables shortening.
func Text(s string, maxLen int) null.Val[string] {
	s = strings.TrimSpace(s)
	if s == "" {
		return null.Val[string]{}
	}
	if maxLen > 0 {
		s = Truncate(s, maxLen)
	}
	return null.From(s)
}
