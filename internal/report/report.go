// Package report renders analysis results for the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/example/go-transdiv/internal/analysis"
	"github.com/example/go-transdiv/internal/stats"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorBorder = lipgloss.Color("#16858E")
	colorMuted  = lipgloss.Color("#2C4A54")
	colorWarn   = lipgloss.Color("#F4D03F")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle  = lipgloss.NewStyle().Foreground(colorMuted).Width(22)
	valueStyle  = lipgloss.NewStyle().Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(colorWarn)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// MaxWordRows caps the per-word table of RenderPair.
const MaxWordRows = 15

// RenderPair writes a single-sentence report: both translations, the
// information measures, token agreement and the per-word table.
func RenderPair(w io.Writer, source string, res analysis.PairResult) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Translation divergence") + "\n")
	if source != "" {
		b.WriteString(row("source", source))
	}
	b.WriteString(row("reference", res.Reference))
	b.WriteString(row("subject", res.Subject))
	b.WriteString("\n")
	b.WriteString(information(res.Information))
	b.WriteString(row("token match", fmt.Sprintf("%d/%d = %s  CI %s",
		res.TokenMatch.Matches, res.TokenMatch.Compared, percent(res.TokenMatch.Accuracy), interval(res.TokenMatch.CI))))

	words := res.PerWord
	more := 0
	if len(words) > MaxWordRows {
		more = len(words) - MaxWordRows
		words = words[:MaxWordRows]
	}
	rows := make([][]string, 0, len(words))
	for _, wp := range words {
		rows = append(rows, []string{wp.Word, prob(wp.PReference), prob(wp.PSubject)})
	}
	b.WriteString("\n" + newTable([]string{"word", "p(reference)", "p(subject)"}, rows) + "\n")
	if more > 0 {
		b.WriteString(labelStyle.Render(fmt.Sprintf("… %d more words", more)) + "\n")
	}

	_, err := io.WriteString(w, boxStyle.Render(strings.TrimRight(b.String(), "\n"))+"\n")
	return err
}

// RenderCorpus writes a corpus report: divergence, pooled accuracy with
// both intervals, a per-sentence KL summary and the top confusions.
func RenderCorpus(w io.Writer, res analysis.CorpusResult, usingRealAPIs bool) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Corpus divergence") + "\n")
	if !usingRealAPIs {
		b.WriteString(noticeStyle.Render("mock translators: results are synthetic") + "\n")
	}
	b.WriteString(row("sentences", strconv.Itoa(res.Sentences)))
	b.WriteString(row("vocabulary", strconv.Itoa(res.VocabularySize)))
	b.WriteString("\n")
	b.WriteString(information(res.Information))
	b.WriteString(row("token match", percent(res.AccuracyPointEstimate)))
	b.WriteString(row("  wald 95% CI", interval(res.WaldCI)))
	b.WriteString(row("  bootstrap 95% CI", fmt.Sprintf("%s (%d rounds)", interval(res.BootstrapCI), res.BootstrapRounds)))

	if len(res.PerSentenceKL) > 0 {
		lo, hi, mean := summarize(res.PerSentenceKL)
		b.WriteString(row("per-sentence KL", fmt.Sprintf("min %.4f  mean %.4f  max %.4f", lo, mean, hi)))
	}

	if len(res.TopConfusions) > 0 {
		rows := make([][]string, 0, len(res.TopConfusions))
		for _, c := range res.TopConfusions {
			rows = append(rows, []string{c.Reference, c.Subject, strconv.Itoa(c.Count)})
		}
		b.WriteString("\n" + newTable([]string{"reference", "subject", "count"}, rows) + "\n")
	}

	_, err := io.WriteString(w, boxStyle.Render(strings.TrimRight(b.String(), "\n"))+"\n")
	return err
}

func information(info analysis.Information) string {
	return row("entropy H(P)", bits(info.Entropy)) +
		row("entropy H(Q)", bits(info.SubjectEntropy)) +
		row("cross-entropy H(P,Q)", bits(info.CrossEntropy)) +
		row("KL D(P‖Q)", bits(info.KLDivergenceBits))
}

func newTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(r, _ int) lipgloss.Style {
			if r == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return t.Render()
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func bits(v float64) string { return fmt.Sprintf("%.4f bits", v) }

func prob(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func percent(v float64) string { return fmt.Sprintf("%.1f%%", 100*v) }

func interval(iv stats.Interval) string {
	return fmt.Sprintf("[%s, %s]", percent(iv.Lower()), percent(iv.Upper()))
}

func summarize(xs []float64) (lo, hi, mean float64) {
	lo, hi = xs[0], xs[0]
	var sum float64
	for _, x := range xs {
		lo = min(lo, x)
		hi = max(hi, x)
		sum += x
	}

	return lo, hi, sum / float64(len(xs))
}
