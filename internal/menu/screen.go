package menu

import (
	"context"
	"log/slog"

	"github.com/m3rciful/numerobot/core/logger"
	"github.com/m3rciful/numerobot/internal/messages"
)

// KeyFeedback opens the feedback flow from the about screen.
const KeyFeedback = "feedback"

// Messages resolves message ids to display text.
type Messages interface {
	Text(id string) string
}

// SessionClearer drops any multi-step input in progress for a user.
type SessionClearer interface {
	Clear(userID int64)
}

// Button is one keyboard button. Action is the callback key of an inline
// button and empty for reply keyboard buttons.
type Button struct {
	Label  string
	Action string
}

// Keyboard describes the markup sent with a screen.
type Keyboard struct {
	// Reply selects a persistent reply keyboard instead of inline buttons.
	Reply bool
	Rows  [][]Button
}

// Screen is the rendered output of a navigation step.
type Screen struct {
	State State
	// Header replaces the message that carried the pressed button, if any.
	Header   string
	Text     string
	Keyboard Keyboard
}

func inline(label, action string) []Button {
	return []Button{{Label: label, Action: action}}
}

// MainKeyboard is the persistent reply keyboard of the main menu.
func MainKeyboard(msgs Messages) Keyboard {
	rows := make([][]Button, 0, 5)
	for _, id := range []string{
		messages.BtnLifePath,
		messages.BtnCompatibility,
		messages.BtnProfile,
		messages.BtnAbout,
		messages.BtnFeedback,
	} {
		rows = append(rows, []Button{{Label: msgs.Text(id)}})
	}
	return Keyboard{Reply: true, Rows: rows}
}

// BackToMain is the single "back to main" inline keyboard.
func BackToMain(msgs Messages) Keyboard {
	return Keyboard{Rows: [][]Button{inline(msgs.Text(messages.BtnBackMain), KeyBackMain)}}
}

// Render builds the screen for st.
func Render(st State, msgs Messages) Screen {
	switch st {
	case AboutScreen:
		return Screen{State: st, Text: msgs.Text(messages.AboutText), Keyboard: Keyboard{Rows: [][]Button{
			inline(msgs.Text(messages.BtnPremiumInfo), KeyPremiumInfo),
			inline(msgs.Text(messages.BtnFeedback), KeyFeedback),
			inline(msgs.Text(messages.BtnBackMain), KeyBackMain),
		}}}
	case MainMenu:
		return Screen{
			State:    st,
			Header:   msgs.Text(messages.MainMenuHeader),
			Text:     msgs.Text(messages.MainMenuText),
			Keyboard: MainKeyboard(msgs),
		}
	}
	for _, ev := range Events() {
		if Transition(MainMenu, ev) != st {
			continue
		}
		if s, ok := PremiumStub(ev, msgs); ok {
			return s
		}
	}
	return Render(MainMenu, msgs)
}

// PremiumStub renders the static screen of a premium event. It reports false
// for events that are not premium screens.
func PremiumStub(ev Event, msgs Messages) (Screen, bool) {
	st := Transition(MainMenu, ev)
	switch ev {
	case EventPremiumFull:
		return Screen{State: st, Text: msgs.Text(messages.PremiumFullText), Keyboard: BackToMain(msgs)}, true
	case EventPremiumCompatibility:
		return Screen{State: st, Text: msgs.Text(messages.PremiumCompatibilityText), Keyboard: BackToMain(msgs)}, true
	case EventPremiumInfo:
		return Screen{State: st, Text: msgs.Text(messages.PremiumInfoText), Keyboard: Keyboard{Rows: [][]Button{
			inline(msgs.Text(messages.BtnSubscribe), KeySubscribe),
			inline(msgs.Text(messages.BtnPremiumFeatures), KeyPremiumFeatures),
			inline(msgs.Text(messages.BtnBack), KeyBackAbout),
		}}}, true
	case EventPremiumFeatures:
		return Screen{State: st, Text: msgs.Text(messages.PremiumFeaturesText), Keyboard: BackToMain(msgs)}, true
	case EventSubscribe:
		return Screen{State: st, Text: msgs.Text(messages.SubscribeUnavailable), Keyboard: BackToMain(msgs)}, true
	}
	return Screen{}, false
}

// Navigator moves users between screens.
type Navigator struct {
	sessions SessionClearer
	msgs     Messages
}

// NewNavigator returns a navigator that clears sessions on "back to main".
// sessions may be nil.
func NewNavigator(sessions SessionClearer, msgs Messages) *Navigator {
	return &Navigator{sessions: sessions, msgs: msgs}
}

// Navigate applies ev for userID and returns the screen to show. Going to the
// main menu always clears the user's input in progress first.
func (n *Navigator) Navigate(ctx context.Context, userID int64, ev Event) Screen {
	if ev == EventMain && n.sessions != nil {
		n.sessions.Clear(userID)
	}
	st := Transition(MainMenu, ev)
	logger.Debug(ctx, "menu", "menu.navigate",
		slog.String("menu_event", ev.String()),
		slog.String("screen", st.String()),
	)
	return Render(st, n.msgs)
}
