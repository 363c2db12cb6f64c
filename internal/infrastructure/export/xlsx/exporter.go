package xlsx

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/builder-search/internal/core/domain"
)

const (
	summarySheet  = "Summary"
	accountsSheet = "Accounts"
	castsSheet    = "Casts"
	relevantSheet = "Relevant"
)

// Exporter renders a snapshot as a workbook: the Summary sheet, the raw
// Accounts and Casts, and the Relevant sheet with the agent's kept results.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Write(view *domain.SnapshotView, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	report := decodeReport(view.AgentReport)
	if err := writeSummary(f, view, report); err != nil {
		return err
	}

	var accounts []domain.AccountMatch
	var casts []domain.CastMatch
	if view.Results.Set != nil {
		accounts = view.Results.Set.Accounts
		casts = view.Results.Set.Casts
	}
	if err := writeAccounts(f, accounts); err != nil {
		return err
	}
	if err := writeCasts(f, casts); err != nil {
		return err
	}
	if err := writeRelevant(f, report.Processed); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, view *domain.SnapshotView, report reportSummary) error {
	rows := [][]any{
		{"Snapshot", view.ID},
		{"Query", view.Query},
		{"Created", view.Timestamp.UTC().Format(time.RFC3339)},
		{"Summary", report.Summary},
		{"Key takeaways", strings.Join(report.KeyTakeaways, "\n")},
	}
	if view.Results.ParseError != "" {
		rows = append(rows, []any{"Results", view.Results.ParseError})
	}
	return setRows(f, summarySheet, rows)
}

func writeAccounts(f *excelize.File, accounts []domain.AccountMatch) error {
	if _, err := f.NewSheet(accountsSheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", accountsSheet, err)
	}
	rows := [][]any{{"Username", "Bio", "Followers", "Cred score", "City", "State", "Country", "Match score"}}
	for _, a := range accounts {
		rows = append(rows, []any{a.Username, a.Bio, a.FollowerCount, a.CredScore, a.Location.City, a.Location.State, a.Location.Country, a.MatchScore})
	}
	return setRows(f, accountsSheet, rows)
}

func writeCasts(f *excelize.File, casts []domain.CastMatch) error {
	if _, err := f.NewSheet(castsSheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", castsSheet, err)
	}
	rows := [][]any{{"Username", "Text", "URL", "Timestamp", "Likes", "Channels", "Mentions", "Match score"}}
	for _, c := range casts {
		rows = append(rows, []any{
			c.Username, c.CastText, c.CastURL, c.Timestamp, c.LikesCount,
			strings.Join(c.MentionedChannels, ", "), strings.Join(c.MentionedUsers, ", "), c.MatchScore,
		})
	}
	return setRows(f, castsSheet, rows)
}

func writeRelevant(f *excelize.File, processed []domain.ProcessedResult) error {
	if _, err := f.NewSheet(relevantSheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", relevantSheet, err)
	}
	rows := [][]any{{"Username", "Match type", "Relevance context", "Detail", "Match score"}}
	for _, p := range processed {
		rows = append(rows, []any{
			p.Candidate.Username(), string(p.Candidate.Type), p.RelevanceContext, candidateDetail(p.Candidate), p.Candidate.Score(),
		})
	}
	return setRows(f, relevantSheet, rows)
}

// candidateDetail is the bio for accounts and the cast text for casts.
func candidateDetail(c domain.CandidateRecord) string {
	switch {
	case c.Account != nil:
		return c.Account.Bio
	case c.Cast != nil:
		return c.Cast.CastText
	default:
		return ""
	}
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

type reportSummary struct {
	Summary          string            `json:"summary"`
	KeyTakeaways     []string          `json:"keyTakeaways"`
	ProcessedResults []json.RawMessage `json:"processedResults"`

	Processed []domain.ProcessedResult `json:"-"`
}

// decodeReport is lenient: snapshots store the agent report as opaque JSON,
// so unreadable processed results are skipped one by one.
func decodeReport(raw json.RawMessage) reportSummary {
	var report reportSummary
	if err := json.Unmarshal(raw, &report); err == nil {
		for _, item := range report.ProcessedResults {
			var p domain.ProcessedResult
			if err := json.Unmarshal(item, &p); err == nil {
				report.Processed = append(report.Processed, p)
			}
		}
		return report
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return reportSummary{Summary: text}
	}
	return reportSummary{}
}
