package openf1

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// endpoint names of the upstream API
const (
	EndpointMeetings = "meetings"
	EndpointSessions = "sessions"
	EndpointDrivers  = "drivers"
	EndpointCarData  = "car_data"
	EndpointLaps     = "laps"
	EndpointPit      = "pit"
	EndpointWeather  = "weather"
)

//nolint:tagliatelle // api field names
type (
	MeetingRecord struct {
		MeetingKey          *int       `json:"meeting_key" validate:"required,gt=0,lte=2147483647"`
		MeetingName         string     `json:"meeting_name"`
		MeetingOfficialName string     `json:"meeting_official_name"`
		CircuitKey          *int       `json:"circuit_key"`
		CircuitShortName    string     `json:"circuit_short_name"`
		Location            string     `json:"location"`
		CountryCode         string     `json:"country_code"`
		CountryName         string     `json:"country_name"`
		Year                *int       `json:"year" validate:"omitempty,gte=1950,lte=2100"`
		DateStart           *time.Time `json:"date_start"`
		GmtOffset           string     `json:"gmt_offset"`
	}

	SessionRecord struct {
		SessionKey  *int       `json:"session_key" validate:"required,gt=0,lte=2147483647"`
		MeetingKey  *int       `json:"meeting_key" validate:"required,gt=0,lte=2147483647"`
		SessionName string     `json:"session_name"`
		SessionType string     `json:"session_type"`
		DateStart   *time.Time `json:"date_start"`
		DateEnd     *time.Time `json:"date_end"`
	}

	DriverRecord struct {
		DriverNumber  *int   `json:"driver_number" validate:"required,gte=1,lte=999"`
		MeetingKey    *int   `json:"meeting_key" validate:"omitempty,gt=0,lte=2147483647"`
		SessionKey    *int   `json:"session_key" validate:"omitempty,gt=0,lte=2147483647"`
		FirstName     string `json:"first_name"`
		LastName      string `json:"last_name"`
		FullName      string `json:"full_name"`
		BroadcastName string `json:"broadcast_name"`
		NameAcronym   string `json:"name_acronym"`
		CountryCode   string `json:"country_code"`
		HeadshotURL   string `json:"headshot_url"`
		TeamName      string `json:"team_name"`
		TeamColour    string `json:"team_colour"`
	}

	CarDataRecord struct {
		MeetingKey   *int      `json:"meeting_key" validate:"omitempty,gt=0,lte=2147483647"`
		SessionKey   *int      `json:"session_key" validate:"omitempty,gt=0,lte=2147483647"`
		DriverNumber *int      `json:"driver_number" validate:"required,gte=1,lte=999"`
		Date         time.Time `json:"date" validate:"required"`
		Speed        *int      `json:"speed" validate:"omitempty,gte=0,lte=450"`
		Throttle     *int      `json:"throttle" validate:"omitempty,gte=0"`
		Brake        *int      `json:"brake" validate:"omitempty,gte=0,lte=100"`
		NGear        *int      `json:"n_gear" validate:"omitempty,gte=0,lte=8"`
		RPM          *int      `json:"rpm" validate:"omitempty,gte=0,lte=20000"`
		DRS          *int      `json:"drs"`
	}

	LapRecord struct {
		MeetingKey      *int       `json:"meeting_key" validate:"omitempty,gt=0,lte=2147483647"`
		SessionKey      *int       `json:"session_key" validate:"omitempty,gt=0,lte=2147483647"`
		DriverNumber    *int       `json:"driver_number" validate:"required,gte=1,lte=999"`
		LapNumber       *int       `json:"lap_number" validate:"required,gte=0"`
		DateStart       *time.Time `json:"date_start"`
		LapDuration     *float64   `json:"lap_duration" validate:"omitempty,gte=0"`
		DurationSector1 *float64   `json:"duration_sector_1" validate:"omitempty,gte=0"`
		DurationSector2 *float64   `json:"duration_sector_2" validate:"omitempty,gte=0"`
		DurationSector3 *float64   `json:"duration_sector_3" validate:"omitempty,gte=0"`
		I1Speed         *int       `json:"i1_speed" validate:"omitempty,gte=0"`
		I2Speed         *int       `json:"i2_speed" validate:"omitempty,gte=0"`
		StSpeed         *int       `json:"st_speed" validate:"omitempty,gte=0"`
		IsPitOutLap     bool       `json:"is_pit_out_lap"`
		SegmentsSector1 []*int     `json:"segments_sector_1"`
		SegmentsSector2 []*int     `json:"segments_sector_2"`
		SegmentsSector3 []*int     `json:"segments_sector_3"`
	}

	PitRecord struct {
		MeetingKey   *int       `json:"meeting_key" validate:"omitempty,gt=0,lte=2147483647"`
		SessionKey   *int       `json:"session_key" validate:"omitempty,gt=0,lte=2147483647"`
		DriverNumber *int       `json:"driver_number" validate:"required,gte=1,lte=999"`
		LapNumber    *int       `json:"lap_number" validate:"required,gte=0"`
		Date         *time.Time `json:"date"`
		PitDuration  *float64   `json:"pit_duration" validate:"omitempty,gte=0"`
	}

	WeatherRecord struct {
		MeetingKey       *int      `json:"meeting_key" validate:"omitempty,gt=0,lte=2147483647"`
		SessionKey       *int      `json:"session_key" validate:"omitempty,gt=0,lte=2147483647"`
		Date             time.Time `json:"date" validate:"required"`
		AirTemperature   *float64  `json:"air_temperature"`
		TrackTemperature *float64  `json:"track_temperature"`
		Humidity         *float64  `json:"humidity" validate:"omitempty,gte=0,lte=100"`
		Pressure         *float64  `json:"pressure" validate:"omitempty,gte=0"`
		Rainfall         *int      `json:"rainfall"`
		WindDirection    *int      `json:"wind_direction" validate:"omitempty,gte=0,lte=360"`
		WindSpeed        *float64  `json:"wind_speed" validate:"omitempty,gte=0"`
	}
)

var ErrInvalidRecord = errors.New("invalid record")

var validate = validator.New()

// Decode converts a generic record into the typed record T and validates it.
// Errors wrap ErrInvalidRecord.
func Decode[T any](rec Record) (*T, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	var ret T
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if err := validate.Struct(&ret); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return &ret, nil
}

// ClampThrottle caps throttle values. Upstream reports values slightly above
// 100 for some samples.
func (r *CarDataRecord) ClampThrottle() {
	if r.Throttle != nil && *r.Throttle > 100 {
		v := 100
		r.Throttle = &v
	}
}

// Segments converts the mini sector lists, null entries become 0
func (r *LapRecord) Segments() (s1, s2, s3 []int) {
	conv := func(in []*int) []int {
		if len(in) == 0 {
			return nil
		}
		ret := make([]int, len(in))
		for i, v := range in {
			if v != nil {
				ret[i] = *v
			}
		}
		return ret
	}
	return conv(r.SegmentsSector1), conv(r.SegmentsSector2), conv(r.SegmentsSector3)
}

// Describe returns a short text for log output
func Describe(rec Record) string {
	parts := make([]string, 0, 4)
	for _, k := range []string{"meeting_key", "session_key", "driver_number", "date"} {
		if v, ok := rec[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, " ")
}
