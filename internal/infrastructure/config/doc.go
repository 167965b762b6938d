// Package config handles loading and validating logq configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with LOGQ_* environment variables
//   - Validation of levels, backends and cross-section requirements
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token, JWT secret) should be
//     set via environment variables
//   - Without a JWT secret the admin API accepts unauthenticated changes;
//     bind it to localhost in that case
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	level, _ := logq.ParseLevel(cfg.Logger.DefaultLevel)
package config
