package conf

import (
	"strconv"

	"github.com/campusworks/eventhub/internal/errors"
)

// ValidateSettings checks the loaded settings for obvious misconfiguration.
func ValidateSettings(settings *Settings) error {
	if err := validateWebServerSettings(settings); err != nil {
		return err
	}
	if err := validateOutputSettings(settings); err != nil {
		return err
	}
	return validateDedupSettings(&settings.Dedup)
}

func validateWebServerSettings(settings *Settings) error {
	port, err := strconv.Atoi(settings.WebServer.Port)
	if err != nil || port < 1 || port > 65535 {
		return errors.Newf("invalid web server port: %s", settings.WebServer.Port).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("port", settings.WebServer.Port).
			Build()
	}
	return nil
}

func validateOutputSettings(settings *Settings) error {
	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		return errors.Newf("no database output enabled, enable either sqlite or mysql").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return errors.Newf("sqlite enabled but no path configured").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Output.MySQL.Enabled {
		if settings.Output.MySQL.Host == "" || settings.Output.MySQL.Database == "" {
			return errors.Newf("mysql enabled but host or database missing").
				Component("conf").
				Category(errors.CategoryConfiguration).
				Build()
		}
	}
	return nil
}

func validateDedupSettings(d *DedupSettings) error {
	if d.Threshold < 0 || d.Threshold > 1 {
		return errors.Newf("dedup threshold must be within [0,1], got %v", d.Threshold).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if d.DateWindowDays < 1 {
		return errors.Newf("dedup date window must be at least one day, got %d", d.DateWindowDays).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if d.VenueRadiusKm <= 0 {
		return errors.Newf("dedup venue radius must be positive, got %v", d.VenueRadiusKm).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if d.CandidateLimit < 1 {
		return errors.Newf("dedup candidate limit must be at least 1, got %d", d.CandidateLimit).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}
