package model

import (
	"time"

	"github.com/aarondl/opt/null"
)

// Meeting is one race weekend. A meeting created from a child reference
// carries only its key until the meetings endpoint is imported.
type Meeting struct {
	MeetingKey          int32                `db:"meeting_key"`
	MeetingName         null.Val[string]    `db:"meeting_name"`
	MeetingOfficialName null.Val[string]    `db:"meeting_official_name"`
	CircuitKey          null.Val[int32]     `db:"circuit_key"`
	CircuitShortName    null.Val[string]    `db:"circuit_short_name"`
	Location            null.Val[string]    `db:"location"`
	CountryCode         null.Val[string]    `db:"country_code"`
	CountryName         null.Val[string]    `db:"country_name"`
	Year                null.Val[int32]     `db:"year"`
	DateStart           null.Val[time.Time] `db:"date_start"`
	GmtOffset           null.Val[string]    `db:"gmt_offset"`
	CreatedAt           time.Time           `db:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at"`
}

var _ Entity = (*Meeting)(nil)

func (m *Meeting) Table() string { return "meeting" }

func (m *Meeting) KeyColumns() Columns {
	return Columns{"meeting_key": m.MeetingKey}
}

func (m *Meeting) attributes() Columns {
	return Columns{
		"meeting_name":          m.MeetingName,
		"meeting_official_name": m.MeetingOfficialName,
		"circuit_key":           m.CircuitKey,
		"circuit_short_name":    m.CircuitShortName,
		"location":              m.Location,
		"country_code":          m.CountryCode,
		"country_name":          m.CountryName,
		"year":                  m.Year,
		"date_start":            m.DateStart,
		"gmt_offset":            m.GmtOffset,
	}
}

func (m *Meeting) Values() Columns {
	ret := m.attributes()
	ret["meeting_key"] = m.MeetingKey
	return ret
}

func (m *Meeting) Changes() Columns {
	return present(m.attributes())
}

// IsStub reports whether only the key is known
func (m *Meeting) IsStub() bool {
	return len(m.Changes()) == 0
}

// Session is one activity within a meeting (practice, qualifying, race)
type Session struct {
	SessionKey  int32               `db:"session_key"`
	MeetingKey  int32               `db:"meeting_key"`
	SessionName null.Val[string]    `db:"session_name"`
	SessionType null.Val[string]    `db:"session_type"`
	DateStart   null.Val[time.Time] `db:"date_start"`
	DateEnd     null.Val[time.Time] `db:"date_end"`
	CreatedAt   time.Time           `db:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at"`
}

var _ Entity = (*Session)(nil)

func (s *Session) Table() string { return "session" }

func (s *Session) KeyColumns() Columns {
	return Columns{"session_key": s.SessionKey}
}

func (s *Session) Values() Columns {
	return Columns{
		"session_key":  s.SessionKey,
		"meeting_key":  s.MeetingKey,
		"session_name": s.SessionName,
		"session_type": s.SessionType,
		"date_start":   s.DateStart,
		"date_end":     s.DateEnd,
	}
}

func (s *Session) Changes() Columns {
	ret := present(Columns{
		"session_name": s.SessionName,
		"session_type": s.SessionType,
		"date_start":   s.DateStart,
		"date_end":     s.DateEnd,
	})
	ret["meeting_key"] = s.MeetingKey
	return ret
}
