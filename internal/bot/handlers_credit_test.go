package bot

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/loanmate/loanmate-bot/internal/bot/mocks"
	"github.com/loanmate/loanmate-bot/internal/creditreport"
	"github.com/stretchr/testify/require"
)

func sampleReport() *creditreport.Response {
	return &creditreport.Response{
		Success: true,
		CreditStrength: creditreport.CreditStrength{
			Score:  72,
			Rating: "Good",
		},
		DebtAnalysis: creditreport.DebtAnalysis{
			DTIRatio:        24.5,
			DTIStatus:       "Healthy",
			TotalCurrentEMI: 12000,
			SafeEMILimit:    34000,
		},
		RiskFactors: creditreport.RiskFactors{
			DefaultHistory:        false,
			CreditCardUtilization: 23.5,
			ExistingLoans:         1,
		},
		LoanEligibility: creditreport.LoanEligibility{
			MinAmount:         100000,
			MaxAmount:         1500000,
			RecommendedTenure: "36 months",
			AvailableEMI:      22000,
		},
	}
}

// fillCreditForm answers the seven prompt fields in order.
func fillCreditForm(b *Bot, mock *mocks.MockBot, chatID int64, answers ...string) {
	for _, a := range answers {
		sendText(b, mock, chatID, a)
	}
}

func TestCreditForm_HappyPath(t *testing.T) {
	t.Parallel()

	b, deps := setupTestBot(t)
	mock := mocks.NewMockBot()
	signIn(t, b, 100)
	deps.credit.Response = sampleReport()

	press(b, mock, 100, "nav_credit")
	require.Contains(t, mock.LastSentMessage().Text, "full name")

	fillCreditForm(b, mock, 100, "Priya Sharma", "29", "Engineer", "85000", "12000", "1", "20000")
	require.Contains(t, mock.LastSentMessage().Text, "missed a loan or card payment")

	press(b, mock, 100, "credit_default_no")
	require.Contains(t, mock.LastSentMessage().Text, "employment type")

	press(b, mock, 100, "credit_employment_employed")

	require.Len(t, deps.credit.Requests, 1)
	req := deps.credit.Requests[0]
	require.Equal(t, "Priya Sharma", req.Name)
	require.Equal(t, 29, req.Age)
	require.Equal(t, "Engineer", req.Occupation)
	require.Equal(t, 85000, req.Salary)
	require.Equal(t, 12000, req.CurrentEMI)
	require.Equal(t, 1, req.ExistingLoans)
	require.Equal(t, 20000, req.CreditCardOutstanding)
	require.False(t, req.DefaultHistory)
	require.Equal(t, creditreport.EmploymentEmployed, req.Employment)

	// The form is done; free text no longer feeds it.
	require.Nil(t, b.pendingFor(100))

	var report string
	for _, m := range mock.SentMessages {
		if strings.Contains(m.Text, "Your Credit Report") {
			report = m.Text
		}
	}
	require.NotEmpty(t, report)
	require.Contains(t, report, "Credit Strength: 72/100 — Good (Good)")
	require.Contains(t, report, "Payment history: 100% — Very good")
	require.Contains(t, report, "Card use: 23.5% — Very good")
	require.Contains(t, report, "Accounts: 1 — Good mix")
	require.Contains(t, report, "DTI ratio: 24.5% — Healthy")
	require.Contains(t, report, "Current EMI: ₹12,000")
	require.Contains(t, report, "Safe EMI limit: ₹34,000")
	require.Contains(t, report, "Amount: ₹1,00,000 – ₹15,00,000")
	require.Contains(t, report, "Recommended tenure: 36 months")
	require.Contains(t, report, "EMI headroom: ₹22,000")

	// The EMI chart follows the text report.
	require.Equal(t, 1, mock.SentDocumentCount())
	require.Contains(t, mock.LastSentDocument().Filename, "credit_report_")
	require.Contains(t, mock.LastSentDocument().Filename, ".png")
}

func TestCreditForm_NamePrefill(t *testing.T) {
	t.Parallel()

	b, deps := setupTestBot(t)
	mock := mocks.NewMockBot()
	signIn(t, b, 100)
	deps.credit.Response = sampleReport()

	press(b, mock, 100, "nav_credit")
	require.Contains(t, mock.LastSentMessage().Text, "(send - to use Test User)")

	fillCreditForm(b, mock, 100, "-", "29", "-", "85000", "0", "0", "0")
	press(b, mock, 100, "credit_default_no")
	press(b, mock, 100, "credit_employment_employed")

	require.Len(t, deps.credit.Requests, 1)
	require.Equal(t, "Test User", deps.credit.Requests[0].Name, "dash keeps the session's display name")
}

func TestCreditForm_ScoreCountUp(t *testing.T) {
	t.Parallel()

	b, deps := setupTestBot(t)
	mock := mocks.NewMockBot()
	signIn(t, b, 100)
	deps.credit.Response = sampleReport()

	press(b, mock, 100, "nav_credit")
	fillCreditForm(b, mock, 100, "Priya", "29", "-", "85000", "0", "0", "0")
	press(b, mock, 100, "credit_default_no")
	press(b, mock, 100, "credit_employment_employed")

	require.NotEmpty(t, mock.EditedMessages)

	// Every edit targets the placeholder message and counts up.
	last := -1
	for _, edit := range mock.EditedMessages {
		require.Equal(t, mock.EditedMessages[0].MessageID, edit.MessageID)
		require.Contains(t, edit.Text, "Credit Score:")

		n := frameScore(t, edit.Text)
		require.Greater(t, n, last, "frames must strictly increase")
		last = n
	}
	require.Equal(t, 72, last, "count-up ends on the final score")
	require.Contains(t, mock.LastEditedMessage().Text, "Good")
}

// frameScore extracts the numeric score from a count-up frame.
func frameScore(t *testing.T, text string) int {
	t.Helper()

	_, rest, found := strings.Cut(text, "Credit Score: ")
	require.True(t, found, "frame %q has no score", text)

	end := strings.IndexByte(rest, ' ')
	require.Positive(t, end, "frame %q has no score digits", text)

	n, err := strconv.Atoi(rest[:end])
	require.NoError(t, err)
	return n
}

func TestCreditForm_ValidationReprompt(t *testing.T) {
	t.Parallel()

	b, deps := setupTestBot(t)
	mock := mocks.NewMockBot()
	signIn(t, b, 100)
	deps.credit.Response = sampleReport()

	press(b, mock, 100, "nav_credit")
	fillCreditForm(b, mock, 100, "Priya", "seventeen", "-", "85000", "0", "0", "0")
	press(b, mock, 100, "credit_default_no")
	press(b, mock, 100, "credit_employment_employed")

	require.Empty(t, deps.credit.Requests, "invalid form never reaches the scoring service")

	texts := make([]string, 0, len(mock.SentMessages))
	for _, m := range mock.SentMessages {
		texts = append(texts, m.Text)
	}
	require.Contains(t, texts, "⚠️ "+creditreport.MsgAge)
	require.Contains(t, mock.LastSentMessage().Text, "How old are you?", "only the failed field is re-asked")

	p := b.pendingFor(100)
	require.NotNil(t, p)
	require.Equal(t, "age", p.creditField)
	require.Equal(t, "Priya", p.form.Name, "other answers are kept")
}

func TestCreditForm_OccupationSkip(t *testing.T) {
	t.Parallel()

	b, deps := setupTestBot(t)
	mock := mocks.NewMockBot()
	signIn(t, b, 100)
	deps.credit.Response = sampleReport()

	press(b, mock, 100, "nav_credit")
	fillCreditForm(b, mock, 100, "Priya", "29", "-", "85000", "0", "0", "0")
	press(b, mock, 100, "credit_default_yes")
	press(b, mock, 100, "credit_employment_self")

	require.Len(t, deps.credit.Requests, 1)
	req := deps.credit.Requests[0]
	require.Equal(t, creditreport.DefaultOccupation, req.Occupation)
	require.True(t, req.DefaultHistory)
	require.Equal(t, creditreport.EmploymentSelfEmployed, req.Employment)
}

func TestCreditForm_APIError(t *testing.T) {
	t.Parallel()

	b, deps := setupTestBot(t)
	mock := mocks.NewMockBot()
	signIn(t, b, 100)
	deps.credit.Err = &creditreport.APIError{Message: "Age must be between 18 and 100"}

	press(b, mock, 100, "nav_credit")
	fillCreditForm(b, mock, 100, "Priya", "29", "-", "85000", "0", "0", "0")
	press(b, mock, 100, "credit_default_no")
	press(b, mock, 100, "credit_employment_employed")

	require.Contains(t, mock.LastSentMessage().Text, "❌ Age must be between 18 and 100")
	require.Empty(t, mock.EditedMessages, "no count-up on failure")
	require.Equal(t, 0, mock.SentDocumentCount())
}

func TestCreditForm_TransportErrorFallback(t *testing.T) {
	t.Parallel()

	b, deps := setupTestBot(t)
	mock := mocks.NewMockBot()
	signIn(t, b, 100)
	deps.credit.Err = errors.New("connection reset")

	press(b, mock, 100, "nav_credit")
	fillCreditForm(b, mock, 100, "Priya", "29", "-", "85000", "0", "0", "0")
	press(b, mock, 100, "credit_default_no")
	press(b, mock, 100, "credit_employment_employed")

	require.Contains(t, mock.LastSentMessage().Text, "❌ "+creditreport.FallbackError)
}

func TestCreditChoice_WithoutForm_RestartsIt(t *testing.T) {
	t.Parallel()

	b, deps := setupTestBot(t)
	mock := mocks.NewMockBot()
	signIn(t, b, 100)

	// A stale keyboard press with no active form starts over instead of
	// panicking.
	press(b, mock, 100, "credit_default_yes")
	require.Contains(t, mock.LastSentMessage().Text, "full name")
	require.Empty(t, deps.credit.Requests)

	p := b.pendingFor(100)
	require.NotNil(t, p)
	require.Equal(t, pendingCreditField, p.kind)
}

func TestCreditRecalculate(t *testing.T) {
	t.Parallel()

	b, _ := setupTestBot(t)
	mock := mocks.NewMockBot()
	signIn(t, b, 100)

	press(b, mock, 100, "credit_recalculate")
	require.Contains(t, mock.LastSentMessage().Text, "full name")
}
