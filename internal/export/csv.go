// Package export serializes aggregated activity rows into the tabular
// artifact format the dashboard reads.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/gallerydash/activity-bot/internal/models"
)

// Header is the fixed artifact column order the dashboard depends on.
var Header = []string{"수집시간", "닉네임", "ID(IP)", "유저타입", "작성글수", "작성댓글수", "총활동수"}

// accountTypeLabels are the dashboard-facing names for the account types.
var accountTypeLabels = map[models.AccountType]string{
	models.AccountFixed:     "고닉",
	models.AccountSemi:      "반고닉",
	models.AccountAnonymous: "유동",
}

// ArtifactName returns the storage name for a window's artifact.
func ArtifactName(window models.TimeWindow) string {
	return window.Label() + ".csv"
}

// MarshalCSV renders the rows as a UTF-8 CSV artifact. The leading BOM keeps
// spreadsheet applications from garbling the Korean headers.
func MarshalCSV(rows []models.ActivityRow) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\ufeff")

	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			collectionTime(row.WindowLabel),
			row.Nickname,
			row.Identity,
			accountTypeLabel(row.AccountType),
			strconv.Itoa(row.PostCount),
			strconv.Itoa(row.CommentCount),
			strconv.Itoa(row.TotalActivity),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write row for %s: %w", row.Identity, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush artifact: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteLocal keeps a local copy of the artifact, used when the remote upload
// fails so the window's data survives for manual recovery.
func WriteLocal(name string, data []byte) error {
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("failed to write local artifact %s: %w", name, err)
	}
	return nil
}

// collectionTime converts a window label back into the timestamp string the
// dashboard's date parsing expects.
func collectionTime(label string) string {
	window, err := models.ParseWindowLabel(label)
	if err != nil {
		return label
	}
	return window.Start.Format("2006-01-02 15:04:05")
}

func accountTypeLabel(t models.AccountType) string {
	if label, ok := accountTypeLabels[t]; ok {
		return label
	}
	return string(t)
}
