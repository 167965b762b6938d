// Package mqtt provides MQTT client connectivity for logq.
//
// This package manages:
//   - Connection to a Mosquitto broker with auto-reconnect
//   - Publishing rendered log lines (see sinks.MQTT)
//   - Subscribing to remote level control topics (see internal/control)
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
//	logq/log/<level>/<module>      published lines
//	logq/control/level/<module>    {"level":"debug","final":true}
//	logq/control/default           {"level":"warning"}
//	logq/system/status             online/offline (retained)
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Anyone able to publish to logq/control/# can change levels; restrict it with broker ACLs
//   - Log lines may carry sensitive text; restrict logq/log/# the same way
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	sink := sinks.NewMQTT(client, mqtt.Topics{}.LogPrefix(), 0)
//	logger.AddSink(sink)
package mqtt
