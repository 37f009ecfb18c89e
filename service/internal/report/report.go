// internal/report/report.go
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"

	engine "github.com/ecterceocgan/deck-divide-dollar/engine"
	"github.com/ecterceocgan/deck-divide-dollar/service/internal/training"
)

// PolicyTable lists every visited state of snap with its raw observation,
// greedy action, action values and visit counts. The first row is the header.
func PolicyTable(snap training.Snapshot) (pterm.TableData, error) {
	header := []string{"state", "showing", "min", "median", "max", "greedy"}
	for _, a := range engine.AllActions() {
		header = append(header, "Q["+a.String()+"]")
	}
	header = append(header, "visits")
	data := pterm.TableData{header}

	tab := snap.Tables
	states, actions := tab.Q.Dims()
	for s := 0; s < states; s++ {
		visits := 0.0
		for a := 0; a < actions; a++ {
			visits += tab.Count.At(s, a)
		}
		if visits == 0 {
			continue
		}
		raw, err := snap.Indexer.Raw(s)
		if err != nil {
			return nil, err
		}
		row := []string{
			strconv.Itoa(s),
			cardLabel(snap.Alphabet, raw.Showing),
			cardLabel(snap.Alphabet, raw.Min),
			cardLabel(snap.Alphabet, raw.Median),
			cardLabel(snap.Alphabet, raw.Max),
			tab.Policy[s].String(),
		}
		for a := 0; a < actions; a++ {
			row = append(row, fmt.Sprintf("%+.4f", tab.Q.At(s, a)))
		}
		row = append(row, fmt.Sprintf("%.0f", visits))
		data = append(data, row)
	}
	return data, nil
}

func cardLabel(alpha engine.Alphabet, c engine.Card) string {
	if c == alpha.NoCard() {
		return "-"
	}
	return strconv.FormatFloat(alpha.Value(c), 'f', 2, 64)
}

// Summary is a one-line description of the run's outcome so far.
func Summary(snap training.Snapshot) string {
	st := snap.Stats
	return fmt.Sprintf("run %s: %d/%d episodes, agent won %d (%.3f), %d ties",
		snap.RunID, snap.Episode, snap.Total, st.AgentWins, st.WinFraction(), st.Ties)
}

// Render writes the summary and policy table to w.
func Render(w io.Writer, snap training.Snapshot) error {
	data, err := PolicyTable(snap)
	if err != nil {
		return err
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n%s\n", Summary(snap), table)
	return err
}
