package bot

import "github.com/loanmate/loanmate-bot/internal/creditreport"

// pendingKind marks what the next free-text (or photo) message from the
// chat is answering.
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingLoginEmail
	pendingLoginPassword
	pendingGoogleToken
	pendingSignupName
	pendingSignupEmail
	pendingSignupPassword
	pendingSignupConfirm
	pendingCreditField
	pendingProfileName
	pendingProfileAvatar
)

// pendingInput is the in-progress multi-step input of one chat. Only the
// fields for the active flow are set.
type pendingInput struct {
	kind pendingKind

	// login flow
	loginEmail string

	// sign-up flow
	signupName     string
	signupEmail    string
	signupPassword string

	// credit report form
	form        *creditreport.Form
	creditField string
}

// Callback data values for inline keyboard buttons.
const (
	cbNavHome      = "nav_home"
	cbNavProfile   = "nav_profile"
	cbNavKYC       = "nav_kyc"
	cbNavDocuments = "nav_documents"
	cbNavCredit    = "nav_credit"
	cbNavCRM       = "nav_crm"
	cbNavBack      = "nav_back"

	cbAuthLogin       = "auth_login"
	cbAuthGoogle      = "auth_google"
	cbAuthToSignUp    = "auth_to_signup"
	cbAuthSignUpBegin = "auth_signup_begin"
	cbAuthToLogin     = "auth_to_login"

	cbProfileEditName = "profile_edit_name"
	cbProfileAvatar   = "profile_avatar"
	cbProfileLogout   = "profile_logout"

	cbCreditDefaultYes = "credit_default_yes"
	cbCreditDefaultNo  = "credit_default_no"
	cbCreditEmployed   = "credit_employment_employed"
	cbCreditSelfEmp    = "credit_employment_self"
	cbCreditRecalc     = "credit_recalculate"

	cbDocList      = "doc_list"
	cbDocExport    = "doc_export"
	cbKYCVerify    = "kyc_record"
	cbDocCatPrefix = "doc_cat_"
	cbDocDelPrefix = "doc_del_"
)
