package model

import (
	"testing"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/speedview-sync/pkg/db/mytypes"
)

func TestNormalizeColour(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "lower", input: "00a19a", want: "00A19A"},
		{name: "hash upper", input: "#00A19A", want: "00A19A"},
		{name: "spaces", input: " #3671c6 ", want: "3671C6"},
		{name: "too short", input: "fff", wantErr: true},
		{name: "not hex", input: "zz0000", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeColour(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("NormalizeColour() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestText(t *testing.T) {
	assert.True(t, Text("  ", 10).IsNull())
	assert.Equal(t, null.From("Max"), Text(" Max ", 10))
	assert.Equal(t, null.From("VER"), Text("VERS", 3))
	assert.Equal(t, null.From("Pérez"), Text("Pérez Mendoza", 5))
	assert.Equal(t, null.From("unbounded"), Text("unbounded", 0))
}

func TestColumnsDiff(t *testing.T) {
	ts := time.Date(2023, 9, 16, 13, 3, 35, 0, time.UTC)
	current := (&Lap{
		MeetingKey:  1219,
		SessionKey:  9161,
		LapNumber:   2,
		DateStart:   null.From(ts),
		LapDuration: decimal.NewNullDecimal(decimal.RequireFromString("91.50")),
		I1Speed:     null.From[int32](301),
		Segments:    mytypes.Segments{Sector1: []int{2048}},
	}).Values()

	tests := []struct {
		name    string
		desired *Lap
		want    []string
	}{
		{
			name: "same values, other representation",
			desired: &Lap{
				MeetingKey:  1219,
				DateStart:   null.From(ts.In(time.FixedZone("CEST", 7200))),
				LapDuration: decimal.NewNullDecimal(decimal.RequireFromString("91.5")),
				I1Speed:     null.From[int32](301),
				Segments:    mytypes.Segments{Sector1: []int{2048}},
			},
			want: []string{},
		},
		{
			name: "changed speed and segments",
			desired: &Lap{
				MeetingKey: 1219,
				I1Speed:    null.From[int32](305),
				Segments:   mytypes.Segments{Sector1: []int{2049}},
			},
			want: []string{"i1_speed", "segments"},
		},
		{
			name:    "missing values do not overwrite",
			desired: &Lap{MeetingKey: 1219},
			want:    []string{},
		},
		{
			name:    "meeting pointer changed",
			desired: &Lap{MeetingKey: 1220},
			want:    []string{"meeting_key"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := tt.desired.Changes().Diff(current)
			if d := cmp.Diff(tt.want, diff.Names()); d != "" {
				t.Errorf("Diff mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestMeetingIsStub(t *testing.T) {
	assert.True(t, (&Meeting{MeetingKey: 1}).IsStub())
	assert.False(t, (&Meeting{MeetingKey: 1, Year: null.From[int32](2023)}).IsStub())
}

func TestDRSLabel(t *testing.T) {
	tests := []struct {
		code DRSStatus
		want string
	}{
		{0, "DRS off"}, {1, "DRS off"}, {2, "Unknown"}, {3, "Unknown"},
		{8, "Detected"}, {9, "Unknown"}, {10, "DRS on"}, {12, "DRS on"},
		{13, "Unknown"}, {14, "DRS on"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.Label(), "code %d", tt.code)
	}
}
