package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/study-time-tracker/internal/chart"
)

var (
	chartSemester string
	chartModule   string
)

var chartCmd = &cobra.Command{
	Use:       "chart <pie|burndown>",
	Short:     "Show a chart of the study, a semester or a module",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(chart.KindPie), string(chart.KindBurndown)},
	RunE:      runChart,
}

func init() {
	chartCmd.Flags().StringVar(&chartSemester, "semester", "", "Semester name")
	chartCmd.Flags().StringVar(&chartModule, "module", "", "Module name (needs --semester)")
}

func runChart(cmd *cobra.Command, args []string) error {
	kind, err := chart.ParseKind(args[0])
	if err != nil {
		return err
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	scope, title, _, err := resolveScope(a.tracker.Study(), chartSemester, chartModule)
	if err != nil {
		return err
	}
	c, err := a.tracker.GenerateChart(scope, kind)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	printTitle(w, c.Title()+" – "+title)
	switch c := c.(type) {
	case *chart.Pie:
		printPie(w, c)
	case *chart.Burndown:
		printBurndown(w, c)
	}
	return nil
}

const barWidth = 40

func bar(fraction float64) string {
	n := int(fraction*barWidth + 0.5)
	n = max(0, min(barWidth, n))
	return strings.Repeat("█", n)
}

func printPie(w io.Writer, p *chart.Pie) {
	tbl := newTable("", "")
	for i, legend := range p.Legend() {
		tbl.AddRow(legend, bar(p.Percent[i]/100))
	}
	fmt.Fprintln(w, tbl)
}

func printBurndown(w io.Writer, b *chart.Burndown) {
	total := b.PlanWork[0]
	tbl := newTable("DATE", "REMAINING", "PLANNED", "")
	for i, d := range b.Dates {
		fraction := 0.0
		if total > 0 {
			fraction = b.Remaining[i] / total
		}
		tbl.AddRow(d.Format("2006-01-02"), fmt.Sprintf("%.0f", b.Remaining[i]),
			fmt.Sprintf("%.1f", b.PlanAt(d)), bar(fraction))
	}
	tbl.AddRow(b.PlanDates[1].Format("2006-01-02"), "", fmt.Sprintf("%.0f", b.PlanWork[1]), "")
	fmt.Fprintln(w, tbl)
}
