// Package kyc owns the document upload rules: the category registry with
// required counts, the pre-upload size gate, the public id scheme, and the
// per-category status and progress derivation.
package kyc

import (
	"github.com/loanmate/loanmate-bot/internal/models"
)

// Per-category completion states.
const (
	StatusNotStarted = "not_started"
	StatusPending    = "pending"
	StatusCompleted  = "completed"
)

// Categories is the closed set of KYC document categories, in display order.
var Categories = []models.DocumentCategory{
	{
		Slug:        "salary_slip",
		DisplayName: "Salary Slip",
		Description: "Last 3 months salary slips",
		Required:    3,
		Icon:        "💰",
		Color:       "#10b981",
	},
	{
		Slug:        "id_proof",
		DisplayName: "ID Proof",
		Description: "Aadhaar, PAN card or passport",
		Required:    2,
		Icon:        "🪪",
		Color:       "#3b82f6",
	},
	{
		Slug:        "address_proof",
		DisplayName: "Address Proof",
		Description: "Utility bill or rental agreement",
		Required:    1,
		Icon:        "🏠",
		Color:       "#f59e0b",
	},
	{
		Slug:        "bank_statement",
		DisplayName: "Bank Statement",
		Description: "Last 3 months bank statements",
		Required:    3,
		Icon:        "🏦",
		Color:       "#8b5cf6",
	},
}

// VerificationCategory is the selfie-video identity check. It is uploaded
// like a document but does not count toward document progress.
var VerificationCategory = models.DocumentCategory{
	Slug:        "kyc_verification",
	DisplayName: "KYC Verification",
	Description: "Short selfie video for identity verification",
	Required:    1,
	Icon:        "🎥",
	Color:       "#ec4899",
}

// CategoryBySlug finds a category (including the verification category).
func CategoryBySlug(slug string) (models.DocumentCategory, bool) {
	if slug == VerificationCategory.Slug {
		return VerificationCategory, true
	}
	for _, c := range Categories {
		if c.Slug == slug {
			return c, true
		}
	}
	return models.DocumentCategory{}, false
}

// CategoryByDisplayName finds a category by its display name.
func CategoryByDisplayName(name string) (models.DocumentCategory, bool) {
	if name == VerificationCategory.DisplayName {
		return VerificationCategory, true
	}
	for _, c := range Categories {
		if c.DisplayName == name {
			return c, true
		}
	}
	return models.DocumentCategory{}, false
}

// CategoryProgress is a category with its upload count and derived status.
type CategoryProgress struct {
	Category models.DocumentCategory
	Uploaded int
	Status   string
}

// StatusFor derives the completion state from an upload count.
func StatusFor(uploaded, required int) string {
	switch {
	case uploaded <= 0:
		return StatusNotStarted
	case uploaded < required:
		return StatusPending
	default:
		return StatusCompleted
	}
}

// Progress computes per-category completion for a user's documents, in
// registry order. Verification videos are excluded.
func Progress(docs []models.UploadedDocument) []CategoryProgress {
	counts := make(map[string]int)
	for _, doc := range docs {
		counts[doc.DocumentType]++
	}

	progress := make([]CategoryProgress, len(Categories))
	for i, cat := range Categories {
		uploaded := counts[cat.DisplayName]
		progress[i] = CategoryProgress{
			Category: cat,
			Uploaded: uploaded,
			Status:   StatusFor(uploaded, cat.Required),
		}
	}
	return progress
}

// OverallPercent is total uploads over total required, as a percentage.
// Uploads beyond a category's requirement do not push it past 100.
func OverallPercent(progress []CategoryProgress) float64 {
	var uploaded, required int
	for _, p := range progress {
		required += p.Category.Required
		uploaded += min(p.Uploaded, p.Category.Required)
	}
	if required == 0 {
		return 0
	}
	return float64(uploaded) / float64(required) * 100
}

// VerificationStatus derives the review state shown on the status screen
// for one category: rejected wins over pending, and a category is verified
// only when it is complete and every document passed review.
func VerificationStatus(progress CategoryProgress, docs []models.UploadedDocument) string {
	verified := 0
	for _, doc := range docs {
		if doc.DocumentType != progress.Category.DisplayName {
			continue
		}
		switch doc.Status {
		case models.DocumentStatusRejected:
			return models.DocumentStatusRejected
		case models.DocumentStatusVerified:
			verified++
		}
	}
	if progress.Status == StatusCompleted && verified >= progress.Category.Required {
		return models.DocumentStatusVerified
	}
	return models.DocumentStatusPending
}
