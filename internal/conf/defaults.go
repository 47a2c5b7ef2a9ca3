// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "EventHub")

	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.metrics", true)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "eventhub.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "eventhub")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "eventhub")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("security.sessionduration", 24*time.Hour)
	viper.SetDefault("security.bcryptcost", 12)

	viper.SetDefault("payment.gatewayurl", "")
	viper.SetDefault("payment.apikey", "")
	viper.SetDefault("payment.timeout", 30*time.Second)

	viper.SetDefault("notification.enabled", true)
	viper.SetDefault("notification.pushurls", []string{})

	viper.SetDefault("dedup.threshold", 0.8)
	viper.SetDefault("dedup.datewindowdays", 7)
	viper.SetDefault("dedup.venueradiuskm", 5.0)
	viper.SetDefault("dedup.candidatelimit", 50)
}
