package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/loanmate/loanmate-bot/internal/creditreport"
	"github.com/loanmate/loanmate-bot/internal/logger"
	"github.com/shopspring/decimal"
)

// creditFieldOrder is the prompt sequence of the report form. The two
// choice fields (default history, employment) follow as inline keyboards.
var creditFieldOrder = []string{
	"name", "age", "occupation", "salary", "currentEMI", "existingLoans", "creditCardOutstanding",
}

var creditPrompts = map[string]string{
	"name":                  "👤 What is your full name?",
	"age":                   "🎂 How old are you?",
	"occupation":            "💼 What is your occupation? (send - to skip)",
	"salary":                "💰 What is your monthly salary in ₹?",
	"currentEMI":            "📆 What is your total current EMI in ₹? (0 if none)",
	"existingLoans":         "🏦 How many existing loans do you have? (0 if none)",
	"creditCardOutstanding": "💳 What is your credit card outstanding in ₹? (0 if none)",
}

// startCreditForm begins the credit report form from the first field. The
// name field is pre-filled from the session's display name when there is
// one.
func (b *Bot) startCreditForm(ctx context.Context, api TelegramAPI, chatID int64) {
	form := &creditreport.Form{}
	if sess, err := b.sessions.Current(ctx, chatID); err == nil {
		form.Name = sess.DisplayName
	}

	b.setPending(chatID, &pendingInput{
		kind:        pendingCreditField,
		form:        form,
		creditField: creditFieldOrder[0],
	})

	namePrompt := creditPrompts["name"]
	if form.Name != "" {
		namePrompt = fmt.Sprintf("%s (send - to use %s)", namePrompt, form.Name)
	}

	b.sendScreen(ctx, api, chatID, "📊 Credit Report\n\nAnswer a few questions and I will calculate your credit score.", nil)
	b.sendScreen(ctx, api, chatID, namePrompt, nil)
}

// setCreditField writes one raw answer into the form.
func setCreditField(form *creditreport.Form, field, value string) {
	switch field {
	case "name":
		form.Name = value
	case "age":
		form.Age = value
	case "occupation":
		form.Occupation = value
	case "salary":
		form.Salary = value
	case "currentEMI":
		form.CurrentEMI = value
	case "existingLoans":
		form.ExistingLoans = value
	case "creditCardOutstanding":
		form.CreditCardOutstanding = value
	}
}

// handleCreditFieldInput stores one answer and prompts for the next field.
func (b *Bot) handleCreditFieldInput(ctx context.Context, api TelegramAPI, chatID int64, p *pendingInput, text string) {
	value := strings.TrimSpace(text)
	switch {
	case p.creditField == "occupation" && value == "-":
		value = ""
	case p.creditField == "name" && value == "-" && p.form.Name != "":
		value = p.form.Name
	}
	setCreditField(p.form, p.creditField, value)

	next := ""
	for i, field := range creditFieldOrder {
		if field == p.creditField && i+1 < len(creditFieldOrder) {
			next = creditFieldOrder[i+1]
			break
		}
	}

	if next != "" {
		p.creditField = next
		b.setPending(chatID, p)
		b.sendScreen(ctx, api, chatID, creditPrompts[next], nil)
		return
	}

	b.setPending(chatID, p)
	b.sendScreen(ctx, api, chatID, "⚠️ Have you ever missed a loan or card payment?", keyboard(
		row(btn("Yes", cbCreditDefaultYes), btn("No", cbCreditDefaultNo)),
	))
}

// handleCreditDefaultChoice records the default-history answer.
func (b *Bot) handleCreditDefaultChoice(ctx context.Context, api TelegramAPI, chatID int64, defaulted bool) {
	p := b.pendingFor(chatID)
	if p == nil || p.kind != pendingCreditField || p.form == nil {
		b.startCreditForm(ctx, api, chatID)
		return
	}

	p.form.DefaultHistory = defaulted
	b.setPending(chatID, p)

	b.sendScreen(ctx, api, chatID, "🧑‍💼 What is your employment type?", keyboard(
		row(btn("Employed", cbCreditEmployed), btn("Self-employed", cbCreditSelfEmp)),
	))
}

// handleCreditEmploymentChoice records employment and submits the form.
func (b *Bot) handleCreditEmploymentChoice(ctx context.Context, api TelegramAPI, chatID int64, selfEmployed bool) {
	p := b.pendingFor(chatID)
	if p == nil || p.kind != pendingCreditField || p.form == nil {
		b.startCreditForm(ctx, api, chatID)
		return
	}

	if selfEmployed {
		p.form.Employment = creditreport.EmploymentSelfEmployed
	} else {
		p.form.Employment = creditreport.EmploymentEmployed
	}

	reportReq, verr := p.form.BuildRequest()
	if verr != nil {
		// Re-ask just the field that failed; the rest of the form keeps
		// its answers.
		p.creditField = verr.Field
		b.setPending(chatID, p)
		b.sendScreen(ctx, api, chatID, "⚠️ "+verr.Message, nil)
		b.sendScreen(ctx, api, chatID, creditPrompts[verr.Field], nil)
		return
	}

	b.setPending(chatID, nil)
	b.generateCreditReport(ctx, api, chatID, reportReq)
}

// generateCreditReport calls the scoring service, animates the score
// count-up, and renders the full report.
func (b *Bot) generateCreditReport(ctx context.Context, api TelegramAPI, chatID int64, reportReq creditreport.Request) {
	calcMsg, err := api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "🧮 Calculating your credit score...",
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send message")
		return
	}

	report, err := b.creditClient.Generate(ctx, reportReq)
	if err != nil {
		var apiErr *creditreport.APIError
		msg := creditreport.FallbackError
		if errors.As(err, &apiErr) {
			msg = apiErr.Message
		} else {
			logger.Log.Error().Err(err).Msg("Failed to generate credit report")
		}
		b.sendScreen(ctx, api, chatID, "❌ "+msg, keyboard(
			row(btn("🔁 Try again", cbCreditRecalc)),
			row(btn("← Back to home", cbNavBack)),
		))
		return
	}

	b.revealScore(ctx, api, chatID, calcMsg.ID, report.CreditStrength.Score)

	b.sendScreen(ctx, api, chatID, renderCreditReport(report), keyboard(
		row(btn("🔁 Recalculate", cbCreditRecalc)),
		row(btn("← Back to home", cbNavBack)),
	))

	b.sendScoreChart(ctx, api, chatID, report)
}

// revealScore edits the placeholder message through the count-up frames,
// ending exactly on the final score.
func (b *Bot) revealScore(ctx context.Context, api TelegramAPI, chatID int64, messageID int, score float64) {
	target := int(math.Round(score))
	frames := creditreport.CountUpFrames(target, creditreport.RevealSteps)

	last := -1
	for _, frame := range frames {
		if frame == last {
			continue
		}
		last = frame

		band := creditreport.ScoreBand(float64(frame))
		_, err := api.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: messageID,
			Text:      fmt.Sprintf("📊 Credit Score: %d / 100\n%s", frame, band.Label),
		})
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to edit score message")
			return
		}

		if b.revealDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(b.revealDelay):
			}
		}
	}
}

// inr renders a rupee figure with Indian digit grouping.
func inr(amount float64) string {
	return "₹" + creditreport.FormatINR(decimal.NewFromFloat(amount))
}

// renderCreditReport builds the full report text.
func renderCreditReport(report *creditreport.Response) string {
	band := creditreport.ScoreBand(report.CreditStrength.Score)
	payValue, payNote, _ := creditreport.PaymentHistory(report.RiskFactors.DefaultHistory)
	cardNote, _ := creditreport.CardUse(report.RiskFactors.CreditCardUtilization)
	accountsNote, _ := creditreport.Accounts(report.RiskFactors.ExistingLoans)

	var sb strings.Builder
	sb.WriteString("📊 Your Credit Report\n\n")
	sb.WriteString(fmt.Sprintf("Credit Strength: %.0f/100 — %s (%s)\n\n",
		report.CreditStrength.Score, report.CreditStrength.Rating, band.Label))

	sb.WriteString("Key factors\n")
	sb.WriteString(fmt.Sprintf("• Payment history: %s — %s\n", payValue, payNote))
	sb.WriteString(fmt.Sprintf("• Card use: %.1f%% — %s\n",
		report.RiskFactors.CreditCardUtilization, cardNote))
	sb.WriteString(fmt.Sprintf("• Accounts: %d — %s\n\n",
		report.RiskFactors.ExistingLoans, accountsNote))

	sb.WriteString("Debt analysis\n")
	sb.WriteString(fmt.Sprintf("• DTI ratio: %.1f%% — %s\n",
		report.DebtAnalysis.DTIRatio, report.DebtAnalysis.DTIStatus))
	sb.WriteString(fmt.Sprintf("• Current EMI: %s\n", inr(report.DebtAnalysis.TotalCurrentEMI)))
	sb.WriteString(fmt.Sprintf("• Safe EMI limit: %s\n\n", inr(report.DebtAnalysis.SafeEMILimit)))

	sb.WriteString("Loan eligibility\n")
	sb.WriteString(fmt.Sprintf("• Amount: %s – %s\n",
		inr(report.LoanEligibility.MinAmount), inr(report.LoanEligibility.MaxAmount)))
	sb.WriteString(fmt.Sprintf("• Recommended tenure: %s\n", report.LoanEligibility.RecommendedTenure))
	sb.WriteString(fmt.Sprintf("• EMI headroom: %s", inr(report.LoanEligibility.AvailableEMI)))

	return sb.String()
}
