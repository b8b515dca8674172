// Package media uploads KYC binaries to the media host's unsigned upload
// endpoint. The local database is the system of record; the media host only
// stores the bytes and serves them back over a secure URL.
package media

import "fmt"

// DefaultCloudName identifies the media host account.
const DefaultCloudName = "drvvefqs9"

// BaseFolder is the root folder for all document uploads.
const BaseFolder = "loanmate_docs"

// Config describes the media host account and per-category upload presets.
type Config struct {
	CloudName string
	// UploadURL overrides the derived endpoint, used by tests.
	UploadURL string
}

// Endpoint returns the unsigned upload URL for the account.
func (c Config) Endpoint() string {
	if c.UploadURL != "" {
		return c.UploadURL
	}
	cloud := c.CloudName
	if cloud == "" {
		cloud = DefaultCloudName
	}
	return fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/auto/upload", cloud)
}

// presets maps a document category slug to its unsigned upload preset.
var presets = map[string]string{
	"salary_slip":      "salary_preset",
	"id_proof":         "id_preset",
	"address_proof":    "address_preset",
	"bank_statement":   "bank_preset",
	"kyc_verification": "id_preset",
	"avatar":           "id_preset",
}

// PresetFor returns the upload preset for a category slug.
func PresetFor(slug string) string {
	if p, ok := presets[slug]; ok {
		return p
	}
	return "id_preset"
}

// FolderFor returns the media-host folder for a category slug.
func FolderFor(slug string) string {
	return BaseFolder + "/" + slug
}
