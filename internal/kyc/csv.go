package kyc

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/loanmate/loanmate-bot/internal/models"
)

// GenerateInventoryCSV renders a user's document records as a CSV export.
func GenerateInventoryCSV(docs []models.UploadedDocument) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"ID", "Type", "File Name", "Size (bytes)", "MIME Type", "Status", "Uploaded At", "URL"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range docs {
		row := []string{
			docs[i].ID,
			docs[i].DocumentType,
			docs[i].FileName,
			strconv.FormatInt(docs[i].FileSize, 10),
			docs[i].FileType,
			docs[i].Status,
			docs[i].UploadedAt.Format("2006-01-02 15:04:05"),
			docs[i].CloudinaryURL,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// InventoryFilename creates a dated filename for the CSV export.
func InventoryFilename(now time.Time) string {
	return fmt.Sprintf("documents_%s.csv", now.Format("2006-01-02"))
}
