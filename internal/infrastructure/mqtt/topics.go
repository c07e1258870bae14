package mqtt

import "fmt"

// Topic prefixes for the melodeck status hierarchy.
//
// The controller is a publisher first: status, activity and heartbeat
// topics carry observability data for anything watching the
// installation. The single command topic accepts a remote panic
// request.
const (
	// TopicPrefix is the base for all melodeck topics.
	TopicPrefix = "melodeck"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "melodeck/system"

	// TopicPrefixActivity is the base for performer-activity topics.
	TopicPrefixActivity = "melodeck/activity"
)

// Topics provides builders for melodeck MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.SystemStatus()
//	// Returns: "melodeck/system/status"
type Topics struct{}

// SystemStatus returns the system status topic. Online/offline status
// and the LWT are published here, retained.
//
// Example: melodeck/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemPanic returns the remote panic command topic. Any message
// published here triggers an all-notes-off flush.
//
// Example: melodeck/system/panic
func (Topics) SystemPanic() string {
	return fmt.Sprintf("%s/panic", TopicPrefixSystem)
}

// ActivityState returns the performer activity topic. Idle/active
// transitions are published here, retained, so a late subscriber sees
// the current state immediately.
//
// Example: melodeck/activity/state
func (Topics) ActivityState() string {
	return fmt.Sprintf("%s/state", TopicPrefixActivity)
}

// ActivityHeartbeat returns the periodic heartbeat topic carrying
// uptime and event counters.
//
// Example: melodeck/activity/heartbeat
func (Topics) ActivityHeartbeat() string {
	return fmt.Sprintf("%s/heartbeat", TopicPrefixActivity)
}

// AllTopics returns a pattern matching all melodeck topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: melodeck/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
