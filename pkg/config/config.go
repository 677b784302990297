package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                 string // connection string for the database
	WaitForServices    string // duration to wait for other services to be ready
	LogLevel           string // sets the log level (zap log level values)
	SQLLogLevel        string // sets the log level for sql subsystem
	LogFormat          string // text vs json
	LogFilter          string // zapfilter rules
	MigrationSourceURL string // location of migration files
	EnableTelemetry    bool   // enable telemetry
	TelemetryEndpoint  string // endpoint for telemetry
)

// ImportConfig holds the options shared by all import jobs
type ImportConfig struct {
	BaseURL    string  `validate:"required,url"`
	Sleep      float64 `validate:"gte=0"` // seconds to wait after each upstream call
	Timeout    float64 `validate:"gt=0"`  // request timeout in seconds
	Retries    int     `validate:"gte=0,lte=10"`
	Rate       float64 `validate:"gte=0"` // max requests per second, 0 disables
	CreateOnly bool
	DryRun     bool
	Debug      bool
	NatsURL    string `validate:"omitempty,url"`

	MeetingKeys   []int    `validate:"dive,gt=0,lte=2147483647"`
	SessionKeys   []int    `validate:"dive,gt=0,lte=2147483647"`
	DriverNumbers []int    `validate:"dive,gte=1,lte=99"`
	CountryCodes  []string `validate:"dive,len=3,alpha"`
	CountryNames  []string `validate:"dive,required"`
	Year          int      `validate:"omitempty,gte=1950,lte=2100"`
	MinSpeed      int      `validate:"gte=-1,lte=450"` // -1: not set
	MaxSpeed      int      `validate:"gte=-1,lte=450"` // -1: not set
	Refresh       bool
	MissingOnly   bool
}

var (
	ErrInvalidSpeedRange = errors.New("min-speed must not exceed max-speed")
	ErrRefreshCreateOnly = errors.New("refresh replaces samples and cannot be combined with create-only")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize uppercases country codes and removes duplicate filter values.
func (c *ImportConfig) Normalize() {
	c.CountryCodes = lo.Uniq(lo.Map(c.CountryCodes, func(s string, _ int) string {
		return strings.ToUpper(strings.TrimSpace(s))
	}))
	c.MeetingKeys = lo.Uniq(c.MeetingKeys)
	c.SessionKeys = lo.Uniq(c.SessionKeys)
	c.DriverNumbers = lo.Uniq(c.DriverNumbers)
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

// Validate checks the options before any network call is issued.
func (c *ImportConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
				return fmt.Sprintf("%s: failed on '%s' (value %v)",
					fe.Namespace(), fe.Tag(), fe.Value())
			})
			return fmt.Errorf("invalid options: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	if c.MinSpeed >= 0 && c.MaxSpeed >= 0 && c.MinSpeed > c.MaxSpeed {
		return ErrInvalidSpeedRange
	}
	if c.Refresh && c.CreateOnly {
		return ErrRefreshCreateOnly
	}
	return nil
}
