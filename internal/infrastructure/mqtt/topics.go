package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every logq topic.
const TopicPrefix = "logq"

// Topics provides builders for logq MQTT topics.
//
//	logq/log/<level>/<module>          published lines (sinks.MQTT)
//	logq/control/level/<module>        set one module's level
//	logq/control/default               set the default level
//	logq/system/status                 online/offline status (retained, LWT)
//
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// LogPrefix returns the root that published lines are placed under.
//
// Example: logq/log
func (Topics) LogPrefix() string {
	return fmt.Sprintf("%s/log", TopicPrefix)
}

// AllLogs returns a pattern matching every published line.
//
// Pattern: logq/log/#
func (Topics) AllLogs() string {
	return fmt.Sprintf("%s/log/#", TopicPrefix)
}

// LevelControl returns the control topic for one module.
//
// Example: logq/control/level/net-Conn
func (Topics) LevelControl(module string) string {
	return fmt.Sprintf("%s/control/level/%s", TopicPrefix, module)
}

// AllLevelControl returns a pattern matching every module control topic.
//
// Pattern: logq/control/level/+
func (Topics) AllLevelControl() string {
	return fmt.Sprintf("%s/control/level/+", TopicPrefix)
}

// DefaultControl returns the control topic for the default level.
//
// Example: logq/control/default
func (Topics) DefaultControl() string {
	return fmt.Sprintf("%s/control/default", TopicPrefix)
}

// SystemStatus returns the status topic carrying online/offline payloads.
//
// Example: logq/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", TopicPrefix)
}

// ModuleFromLevelControl extracts the module name from a level control topic.
//
// Returns:
//   - string: The module name
//   - bool: false if topic is not a single-module level control topic
func (t Topics) ModuleFromLevelControl(topic string) (string, bool) {
	prefix := t.LevelControl("")
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	module := topic[len(prefix):]
	if module == "" || strings.Contains(module, "/") {
		return "", false
	}
	return module, true
}
