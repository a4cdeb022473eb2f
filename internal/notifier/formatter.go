package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"ContractTrader/internal/model"
)

var statusIcon = map[model.AccountStatus]string{
	model.AccountDone:     "✅",
	model.AccountFailed:   "❌",
	model.AccountSkipped:  "⏭",
	model.AccountCanceled: "⏹",
}

// FormatCycleReport renders a cycle summary for Telegram.
func FormatCycleReport(rep *model.CycleReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Trade cycle</b> | %s\n", rep.StartedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("id: <code>%s</code> (%s)\n", rep.ID, rep.Duration().Round(10*time.Millisecond)))
	b.WriteString(fmt.Sprintf("done %d | failed %d | skipped %d | canceled %d\n\n",
		rep.Count(model.AccountDone), rep.Count(model.AccountFailed),
		rep.Count(model.AccountSkipped), rep.Count(model.AccountCanceled)))
	for _, a := range rep.Accounts {
		b.WriteString(FormatAccountResult(a))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatAccountResult renders one account's outcome on a few lines.
func FormatAccountResult(a model.AccountResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b> %s", statusIcon[a.Status], html.EscapeString(a.Account), a.Status))
	if a.Status != model.AccountDone && a.Step != "" {
		b.WriteString(fmt.Sprintf(" at %s", a.Step))
		if a.Category != "" {
			b.WriteString(fmt.Sprintf(" [%s]", a.Category))
		}
	}
	b.WriteString("\n")
	if a.Error != "" {
		b.WriteString(fmt.Sprintf("  error: %s\n", html.EscapeString(a.Error)))
	}
	if a.Status == model.AccountSkipped {
		return b.String()
	}
	b.WriteString(fmt.Sprintf("  credits %d | listed %d/%d | club value %d\n",
		a.Credits, a.ListedCount, a.ListingCapacity, a.ClubValue))
	b.WriteString(fmt.Sprintf("  bought %d | outbid %d | sold %d | relisted %d | reclaimed %d | listed %d\n",
		a.Purchased, a.Outbid, a.Sold, a.Relisted, a.Reclaimed, a.Listed))
	b.WriteString(fmt.Sprintf("  bids %d placed, %d skipped\n", a.BidsPlaced, a.BidsSkipped))
	return b.String()
}
