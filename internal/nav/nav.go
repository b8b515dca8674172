// Package nav is the per-chat screen state machine. State is a tagged
// screen plus typed params, and every transition goes through the single
// Reduce function, so the reachable states are enumerable.
package nav

// Screen identifies one screen of the client.
type Screen string

// The full screen set.
const (
	ScreenSplash          Screen = "Splash"
	ScreenLogin           Screen = "Login"
	ScreenSignUp          Screen = "SignUp"
	ScreenHome            Screen = "Home"
	ScreenProfile         Screen = "Profile"
	ScreenKYCStatus       Screen = "KYCStatus"
	ScreenDocumentUpload  Screen = "DocumentUpload"
	ScreenDocumentPicker  Screen = "DocumentPicker"
	ScreenKYCVerification Screen = "KYCVerification"
	ScreenCreditReport    Screen = "CreditReport"
	ScreenCRM             Screen = "CRM"
)

// Params are the typed navigation parameters a screen can receive.
type Params struct {
	// CategorySlug selects the document category on the picker screen.
	CategorySlug string
	// DocumentID targets a single document (delete confirmation).
	DocumentID string
}

// State is the complete navigation state of one chat. Ready (the splash
// gate) and Authenticated are independent of the requested screen; Visible
// applies both gates on top of it.
type State struct {
	Ready         bool
	Authenticated bool
	Screen        Screen
	Params        Params
}

// Initial is the state of a fresh chat: splash, unauthenticated.
func Initial() State {
	return State{Screen: ScreenSplash}
}

// Event is a navigation transition request.
type Event interface {
	isEvent()
}

// AppReady lifts the splash gate.
type AppReady struct{}

// SignedIn marks the chat authenticated and lands on Home.
type SignedIn struct{}

// SignedOut clears authentication and returns to Login.
type SignedOut struct{}

// Navigate requests a screen with params.
type Navigate struct {
	To     Screen
	Params Params
}

// GoBack returns to Login from an auth screen, otherwise to Home.
type GoBack struct{}

func (AppReady) isEvent()  {}
func (SignedIn) isEvent()  {}
func (SignedOut) isEvent() {}
func (Navigate) isEvent()  {}
func (GoBack) isEvent()    {}

// Reduce applies one event and returns the next state. Params never
// survive a transition unless the event carries new ones.
func Reduce(s State, e Event) State {
	switch ev := e.(type) {
	case AppReady:
		s.Ready = true

	case SignedIn:
		s.Authenticated = true
		s.Screen = ScreenHome
		s.Params = Params{}

	case SignedOut:
		s.Authenticated = false
		s.Screen = ScreenLogin
		s.Params = Params{}

	case Navigate:
		s.Screen = ev.To
		s.Params = ev.Params

	case GoBack:
		if isAuthScreen(s.Screen) {
			s.Screen = ScreenLogin
		} else {
			s.Screen = ScreenHome
		}
		s.Params = Params{}
	}

	return s
}

// Visible applies the ready and authentication gates to the requested
// screen: splash until ready, auth screens only until authenticated.
func (s State) Visible() Screen {
	if !s.Ready {
		return ScreenSplash
	}
	if !s.Authenticated {
		if isAuthScreen(s.Screen) {
			return s.Screen
		}
		return ScreenLogin
	}
	if s.Screen == ScreenSplash || isAuthScreen(s.Screen) {
		return ScreenHome
	}
	return s.Screen
}

func isAuthScreen(s Screen) bool {
	return s == ScreenLogin || s == ScreenSignUp
}
