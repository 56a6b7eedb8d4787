package domain

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReportHeader is the header line of users_report.csv.
var ReportHeader = []string{"UserID", "Name", "Account", "Balance", "LastMessage", "MessageCount"}

// ReportRow is one line of users_report.csv.
type ReportRow struct {
	UserID       int64
	Name         string
	Account      string
	Balance      decimal.Decimal
	LastMessage  string
	MessageCount int
}

func NewReportRow(u *User) ReportRow {
	return ReportRow{
		UserID:       u.ID,
		Name:         u.Name,
		Account:      u.Account.Number,
		Balance:      u.Account.Balance,
		LastMessage:  u.LastMessage(),
		MessageCount: len(u.News),
	}
}

// Record renders the row in ReportHeader order.
func (r ReportRow) Record() []string {
	return []string{
		fmt.Sprint(r.UserID),
		r.Name,
		r.Account,
		r.Balance.String(),
		r.LastMessage,
		fmt.Sprint(r.MessageCount),
	}
}

// Failure is a non-fatal problem met during a run.
type Failure struct {
	Step   string `json:"step"`
	UserID int64  `json:"user_id,omitempty"`
	Error  string `json:"error"`
}

// Summary is the outcome of one pipeline run.
type Summary struct {
	RunID          string          `json:"run_id"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
	APIAvailable   bool            `json:"api_available"`
	Users          int             `json:"users"`
	Messages       int             `json:"messages"`
	TotalBalance   decimal.Decimal `json:"total_balance"`
	AverageBalance decimal.Decimal `json:"average_balance"`
	LastMessages   []string        `json:"last_messages"`
	Artifacts      []string        `json:"artifacts"`
	Uploaded       []string        `json:"uploaded,omitempty"`
	Pushed         int             `json:"pushed"`
	PushAttempted  int             `json:"push_attempted"`
	Failures       []Failure       `json:"failures,omitempty"`
}

// Summarize fills the user derived figures of s.
// LastMessages holds "name: message" for the last three users that have one.
func (s *Summary) Summarize(users []*User) {
	s.Users = len(users)
	s.Messages = 0
	s.TotalBalance = decimal.Zero
	for _, u := range users {
		s.Messages += len(u.News)
		s.TotalBalance = s.TotalBalance.Add(u.Account.Balance)
	}
	s.AverageBalance = decimal.Zero
	if len(users) > 0 {
		s.AverageBalance = s.TotalBalance.Div(decimal.NewFromInt(int64(len(users)))).Round(2)
	}

	s.LastMessages = s.LastMessages[:0]
	start := len(users) - 3
	if start < 0 {
		start = 0
	}
	for _, u := range users[start:] {
		if msg := u.LastMessage(); msg != "" {
			s.LastMessages = append(s.LastMessages, u.Name+": "+msg)
		}
	}
}

// WriteText prints the human readable final report.
func (s *Summary) WriteText(w io.Writer) error {
	line := strings.Repeat("=", 80)
	var b strings.Builder
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "REPORT %s\n", s.RunID)
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Users:           %d\n", s.Users)
	fmt.Fprintf(&b, "Messages:        %d\n", s.Messages)
	fmt.Fprintf(&b, "Total balance:   %s\n", s.TotalBalance.StringFixed(2))
	fmt.Fprintf(&b, "Average balance: %s\n", s.AverageBalance.StringFixed(2))
	fmt.Fprintf(&b, "Pushed to API:   %d/%d\n", s.Pushed, s.PushAttempted)
	if len(s.LastMessages) > 0 {
		fmt.Fprintln(&b, "\nLatest messages:")
		for _, m := range s.LastMessages {
			fmt.Fprintf(&b, "  %s\n", truncate(m, 100))
		}
	}
	fmt.Fprintln(&b, "\nArtifacts:")
	for _, a := range s.Artifacts {
		fmt.Fprintf(&b, "  - %s\n", a)
	}
	for _, u := range s.Uploaded {
		fmt.Fprintf(&b, "  - %s\n", u)
	}
	if len(s.Failures) > 0 {
		fmt.Fprintf(&b, "\nFailures (%d):\n", len(s.Failures))
		for _, f := range s.Failures {
			if f.UserID != 0 {
				fmt.Fprintf(&b, "  [%s] user %d: %s\n", f.Step, f.UserID, f.Error)
			} else {
				fmt.Fprintf(&b, "  [%s] %s\n", f.Step, f.Error)
			}
		}
	}
	fmt.Fprintln(&b, line)

	_, err := io.WriteString(w, b.String())
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
