// Package control applies runtime level changes to a running logger.
//
// Service is the single entry point used by the admin API, the MQTT
// control listener and the settings file watcher. Every accepted change is
// reported to OnChange listeners, which the daemon uses for diagnostics and
// for recording changes in InfluxDB.
//
// # MQTT control
//
//	logq/control/level/<module>   {"level":"debug","final":true}
//	logq/control/default          {"level":"warning"}
//
// A bare level name ("debug", "WARNING_FINE", "4") is accepted as payload too.
package control
