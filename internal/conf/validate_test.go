package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.WebServer.Port = "8080"
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "eventhub.db"
	s.Security.SessionDuration = 24 * time.Hour
	s.Security.BcryptCost = 12
	s.Dedup = DedupSettings{
		Threshold:      0.8,
		DateWindowDays: 7,
		VenueRadiusKm:  5.0,
		CandidateLimit: 50,
	}
	return s
}

func TestValidateSettings(t *testing.T) {
	t.Run("ValidDefaults", func(t *testing.T) {
		require.NoError(t, ValidateSettings(validSettings()))
	})

	t.Run("BadPort", func(t *testing.T) {
		s := validSettings()
		s.WebServer.Port = "notaport"
		assert.Error(t, ValidateSettings(s))

		s.WebServer.Port = "70000"
		assert.Error(t, ValidateSettings(s))
	})

	t.Run("NoDatabase", func(t *testing.T) {
		s := validSettings()
		s.Output.SQLite.Enabled = false
		assert.Error(t, ValidateSettings(s))
	})

	t.Run("MySQLMissingHost", func(t *testing.T) {
		s := validSettings()
		s.Output.SQLite.Enabled = false
		s.Output.MySQL.Enabled = true
		s.Output.MySQL.Database = "eventhub"
		assert.Error(t, ValidateSettings(s))
	})

	t.Run("DedupBounds", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*DedupSettings)
		}{
			{"ThresholdTooHigh", func(d *DedupSettings) { d.Threshold = 1.5 }},
			{"ThresholdNegative", func(d *DedupSettings) { d.Threshold = -0.1 }},
			{"ZeroWindow", func(d *DedupSettings) { d.DateWindowDays = 0 }},
			{"ZeroRadius", func(d *DedupSettings) { d.VenueRadiusKm = 0 }},
			{"ZeroLimit", func(d *DedupSettings) { d.CandidateLimit = 0 }},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				s := validSettings()
				tc.mutate(&s.Dedup)
				assert.Error(t, ValidateSettings(s))
			})
		}
	})
}
