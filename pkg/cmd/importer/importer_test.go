package importer

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/speedview-sync/pkg/config"
)

func TestJobCommands(t *testing.T) {
	cmd := NewImportCmd()
	names := []string{}
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t,
		[]string{"meetings", "sessions", "drivers", "car-data", "laps", "pit", "weather"},
		names)

	carData, _, err := cmd.Find([]string{"car-data"})
	require.NoError(t, err)
	for _, f := range []string{"meeting-key", "session-key", "driver-number", "min-speed", "max-speed", "refresh"} {
		assert.NotNil(t, carData.Flags().Lookup(f), f)
	}
	weather, _, err := cmd.Find([]string{"weather"})
	require.NoError(t, err)
	assert.Nil(t, weather.Flags().Lookup("driver-number"))
	assert.NotNil(t, weather.InheritedFlags().Lookup("dry-run"))
}

func TestInvalidOptionsFailBeforeRun(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{
			name: "speed range",
			args: []string{"car-data", "--min-speed", "300", "--max-speed", "100"},
			want: config.ErrInvalidSpeedRange,
		},
		{
			name: "refresh with create-only",
			args: []string{"car-data", "--refresh", "--create-only"},
			want: config.ErrRefreshCreateOnly,
		},
		{name: "negative sleep", args: []string{"laps", "--sleep", "-1"}},
		{name: "non numeric key", args: []string{"pit", "--meeting-key", "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewImportCmd()
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SetArgs(tt.args)
			err := cmd.Execute()
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
