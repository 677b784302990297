package mytypes

import (
	"database/sql/driver"
	"fmt"
	"slices"

	"github.com/goccy/go-json"
)

//nolint:tagliatelle // json is that way
type (
	// Segments holds the mini sector status codes of a lap, stored as jsonb.
	// A code of 0 means no data was available for the segment.
	Segments struct {
		Sector1 []int `json:"sector_1"`
		Sector2 []int `json:"sector_2"`
		Sector3 []int `json:"sector_3"`
	}
)

func (s Segments) IsEmpty() bool {
	return len(s.Sector1) == 0 && len(s.Sector2) == 0 && len(s.Sector3) == 0
}

func (s Segments) Equal(o Segments) bool {
	return slices.Equal(s.Sector1, o.Sector1) &&
		slices.Equal(s.Sector2, o.Sector2) &&
		slices.Equal(s.Sector3, o.Sector3)
}

func (s *Segments) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*s = Segments{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("value is not []byte: %T", value)
	}

	return json.Unmarshal(data, s)
}

// Value stores empty segments as NULL
func (s Segments) Value() (driver.Value, error) {
	if s.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(s)
}
