package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mcoot/cardtally/internal/model"
	"github.com/mcoot/cardtally/internal/services/report"
)

const displayTimeFormat = "2006-01-02 15:04"

var (
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f85149")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3fb950"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e"))
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
	loc    *time.Location
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w, errW io.Writer, loc *time.Location) *Output {
	if loc == nil {
		loc = time.Local
	}
	return &Output{format: format, w: w, errW: errW, loc: loc}
}

// IsJSON reports whether output is machine-readable
func (o *Output) IsJSON() bool {
	return o.format == "json"
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.IsJSON() {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.IsJSON() {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(o.errW, string(data))
	} else {
		fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.IsJSON() {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case PlayerList:
		o.printPlayers(v)
	case AddPlayersResult:
		o.printAddPlayers(v)
	case SubmitView:
		o.printSubmit(v)
	case UndoResult:
		o.printUndo(v)
	case *report.Summary:
		o.printSummary(v)
	case HistoryView:
		o.printHistory(v)
	case RoundList:
		o.printRounds(v)
	case DealerView:
		o.printDealer(v)
	case ExportResult:
		fmt.Fprintf(o.w, "Wrote %s to %s\n", v.Kind, v.Path)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// PlayerList is the result of listing players
type PlayerList struct {
	Players []*model.Player `json:"players"`
}

// AddPlayersResult reports which names were registered
type AddPlayersResult struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
}

// SubmitView is the result of submitting a round
type SubmitView struct {
	Round    *model.Round   `json:"round"`
	Sum      int            `json:"sum"`
	Balanced bool           `json:"balanced"`
	Totals   map[string]int `json:"totals"`
	// LedgerBalanced is the zero-sum check over the whole ledger
	LedgerBalanced bool   `json:"ledger_balanced"`
	NextDealer     string `json:"next_dealer,omitempty"`
}

// UndoResult reports whether the last action was reversed
type UndoResult struct {
	Undone   bool `json:"undone"`
	Balanced bool `json:"balanced"`
}

// HistoryView is the grouped, filtered ledger
type HistoryView struct {
	Filter report.Filter       `json:"filter"`
	Rounds []report.RoundGroup `json:"rounds"`
}

// RoundList is the stored round history
type RoundList struct {
	Rounds []*model.Round `json:"rounds"`
}

// DealerView names the current dealer
type DealerView struct {
	Dealer string `json:"dealer"`
}

// ExportResult describes a written export file
type ExportResult struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

func (o *Output) warn(msg string) {
	fmt.Fprintln(o.w, warnStyle.Render(msg))
}

func (o *Output) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...)
}

func (o *Output) printPlayers(p PlayerList) {
	if len(p.Players) == 0 {
		fmt.Fprintln(o.w, "No players registered")
		return
	}
	t := o.newTable("Player", "Joined")
	for _, player := range p.Players {
		t.Row(player.Name, player.CreatedAt.In(o.loc).Format(displayTimeFormat))
	}
	fmt.Fprintln(o.w, t.Render())
}

func (o *Output) printAddPlayers(r AddPlayersResult) {
	for _, name := range r.Added {
		fmt.Fprintf(o.w, "Added %s\n", name)
	}
	for _, name := range r.Skipped {
		fmt.Fprintln(o.w, dimStyle.Render(fmt.Sprintf("Skipped %q (blank or already registered)", name)))
	}
}

func (o *Output) printSubmit(v SubmitView) {
	if v.Round == nil {
		fmt.Fprintln(o.w, "Nothing recorded: no valid scores")
		return
	}

	fmt.Fprintln(o.w, titleStyle.Render("Round recorded"))
	for _, e := range v.Round.Entries {
		fmt.Fprintf(o.w, "  %s: %+d\n", e.Player, e.Score)
	}
	if !v.Balanced {
		o.warn(fmt.Sprintf("Warning: this round sums to %+d, not zero", v.Sum))
	}

	o.printTotals(v.Totals)
	o.printBalance(v.LedgerBalanced)

	if v.NextDealer != "" {
		fmt.Fprintf(o.w, "Next dealer: %s\n", v.NextDealer)
	}
}

func (o *Output) printUndo(r UndoResult) {
	if !r.Undone {
		fmt.Fprintln(o.w, "Nothing to undo")
		return
	}
	fmt.Fprintln(o.w, "Last round undone")
	o.printBalance(r.Balanced)
}

func (o *Output) printSummary(s *report.Summary) {
	if !s.Filter.IsZero() {
		fmt.Fprintln(o.w, titleStyle.Render("Filtered totals"))
		o.printTotals(s.Filtered.ByPlayer)
		fmt.Fprintf(o.w, "Filtered sum: %d\n\n", s.Filtered.Total)
	}
	fmt.Fprintln(o.w, titleStyle.Render("Totals"))
	o.printTotals(s.Overall.ByPlayer)
	o.printBalance(s.Balanced)
}

func (o *Output) printTotals(totals map[string]int) {
	if len(totals) == 0 {
		fmt.Fprintln(o.w, "No scores recorded")
		return
	}
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	t := o.newTable("Player", "Total")
	for _, name := range names {
		t.Row(name, strconv.Itoa(totals[name]))
	}
	fmt.Fprintln(o.w, t.Render())
}

func (o *Output) printBalance(balanced bool) {
	if balanced {
		fmt.Fprintln(o.w, okStyle.Render("Ledger balanced"))
		return
	}
	o.warn("Warning: scores do not sum to zero, check for an entry mistake")
}

func (o *Output) printHistory(h HistoryView) {
	if len(h.Rounds) == 0 {
		fmt.Fprintln(o.w, "No history")
		return
	}
	t := o.newTable("#", "Date", "Scores", "Sum")
	for i, g := range h.Rounds {
		scores := ""
		for j, e := range g.Entries {
			if j > 0 {
				scores += ", "
			}
			scores += fmt.Sprintf("%s %+d", e.Player, e.Score)
		}
		sum := strconv.Itoa(g.Sum)
		if !g.Balanced && h.Filter.Player == "" {
			sum = warnStyle.Render(sum)
		}
		t.Row(strconv.Itoa(i+1), g.Timestamp.In(o.loc).Format(displayTimeFormat), scores, sum)
	}
	fmt.Fprintln(o.w, t.Render())
}

func (o *Output) printRounds(r RoundList) {
	if len(r.Rounds) == 0 {
		fmt.Fprintln(o.w, "No rounds recorded")
		return
	}
	t := o.newTable("#", "Date", "Players", "Sum")
	for _, round := range r.Rounds {
		t.Row(
			strconv.FormatInt(round.Seq, 10),
			round.Date.In(o.loc).Format(displayTimeFormat),
			strconv.Itoa(len(round.Entries)),
			strconv.Itoa(round.Sum()),
		)
	}
	fmt.Fprintln(o.w, t.Render())
}

func (o *Output) printDealer(d DealerView) {
	fmt.Fprintf(o.w, "Dealer: %s\n", d.Dealer)
}
