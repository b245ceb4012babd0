// Package menu implements the menu screens and the transitions between them.
package menu

// Event is a navigation request from the user.
type Event int

// Navigation events.
const (
	EventUnknown Event = iota
	EventMain
	EventAbout
	EventPremiumFull
	EventPremiumCompatibility
	EventPremiumInfo
	EventPremiumFeatures
	EventSubscribe
)

// Callback keys of the navigation events.
const (
	KeyBackMain             = "back_main"
	KeyBackAbout            = "back_about"
	KeyPremiumFull          = "premium_full"
	KeyPremiumCompatibility = "premium_compatibility"
	KeyPremiumInfo          = "premium_info"
	KeyPremiumFeatures      = "premium_features"
	KeySubscribe            = "subscribe"
)

var eventKeys = map[Event]string{
	EventMain:                 KeyBackMain,
	EventAbout:                KeyBackAbout,
	EventPremiumFull:          KeyPremiumFull,
	EventPremiumCompatibility: KeyPremiumCompatibility,
	EventPremiumInfo:          KeyPremiumInfo,
	EventPremiumFeatures:      KeyPremiumFeatures,
	EventSubscribe:            KeySubscribe,
}

var keyEvents = func() map[string]Event {
	m := make(map[string]Event, len(eventKeys))
	for ev, k := range eventKeys {
		m[k] = ev
	}
	return m
}()

// Events lists every defined event.
func Events() []Event {
	return []Event{
		EventMain,
		EventAbout,
		EventPremiumFull,
		EventPremiumCompatibility,
		EventPremiumInfo,
		EventPremiumFeatures,
		EventSubscribe,
	}
}

// ParseEvent maps a callback key to its event.
func ParseEvent(key string) (Event, bool) {
	ev, ok := keyEvents[key]
	return ev, ok
}

// Key returns the callback key of e, or "" for EventUnknown.
func (e Event) Key() string {
	return eventKeys[e]
}

func (e Event) String() string {
	if k := e.Key(); k != "" {
		return k
	}
	return "unknown"
}
