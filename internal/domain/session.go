package domain

// Durable storage keys shared by the session and settings stores.
const (
	StorageKeyUser     = "user"
	StorageKeyToken    = "token"
	StorageKeyRole     = "role"
	StorageKeySettings = "settings"
)

type Role int

const (
	RoleUser  Role = 0
	RoleAdmin Role = 1
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "custom"
	}
}

// Session is a snapshot of the authenticated identity.
type Session struct {
	User  *User
	Token string
	Role  Role
}

func (s Session) IsLoggedIn() bool {
	return s.Token != ""
}

// LoginErrorCode is the server supplied reason a code exchange was refused.
type LoginErrorCode string

const (
	LoginErrorDisabledDemoUser LoginErrorCode = "disabled-demo-user"
	LoginErrorDisabledAccount  LoginErrorCode = "disabled-account"
)

const loginFailedMessage = "Failed to log in! Please try again later."

// LoginFailureMessage maps a refusal code onto the text shown to the user.
// Unknown codes fall back to the generic failure message.
func LoginFailureMessage(code LoginErrorCode) string {
	switch code {
	case LoginErrorDisabledDemoUser:
		return "The demo user has been disabled. Please log in with your own account."
	case LoginErrorDisabledAccount:
		return "Your account has been disabled. Please contact an administrator."
	default:
		return loginFailedMessage
	}
}

// VerifyPolicy selects how non-auth failures of a token check are handled.
type VerifyPolicy string

const (
	// VerifyPolicyAuthOnly only reacts to 401/403; other failures leave the
	// session alone and are reported to the caller.
	VerifyPolicyAuthOnly VerifyPolicy = "auth-only"
	// VerifyPolicyStrict additionally warns the user and navigates home.
	VerifyPolicyStrict VerifyPolicy = "strict"
)

func (p VerifyPolicy) Valid() bool {
	switch p {
	case VerifyPolicyAuthOnly, VerifyPolicyStrict:
		return true
	default:
		return false
	}
}
