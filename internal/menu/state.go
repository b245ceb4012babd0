package menu

// State is the screen currently shown to the user.
type State int

// Screens.
const (
	MainMenu State = iota
	AboutScreen
	PremiumFull
	PremiumCompatibility
	PremiumInfo
	PremiumFeatures
	SubscribeInfo
)

var stateNames = [...]string{
	MainMenu:             "main",
	AboutScreen:          "about",
	PremiumFull:          "premium_full",
	PremiumCompatibility: "premium_compatibility",
	PremiumInfo:          "premium_info",
	PremiumFeatures:      "premium_features",
	SubscribeInfo:        "subscribe",
}

// States lists every screen.
func States() []State {
	return []State{MainMenu, AboutScreen, PremiumFull, PremiumCompatibility, PremiumInfo, PremiumFeatures, SubscribeInfo}
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Transition returns the screen reached from from by ev. Every screen is
// reachable from every other, so from only matters for EventUnknown, which
// keeps the user where they are.
func Transition(from State, ev Event) State {
	switch ev {
	case EventMain:
		return MainMenu
	case EventAbout:
		return AboutScreen
	case EventPremiumFull:
		return PremiumFull
	case EventPremiumCompatibility:
		return PremiumCompatibility
	case EventPremiumInfo:
		return PremiumInfo
	case EventPremiumFeatures:
		return PremiumFeatures
	case EventSubscribe:
		return SubscribeInfo
	default:
		return from
	}
}
