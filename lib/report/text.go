package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"influence-backend/lib/influence"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const recentPostsShown = 3

var statusLabels = map[influence.Status]string{
	influence.StatusSuccess:   "ok",
	influence.StatusEstimated: "est",
	influence.StatusError:     "err",
}

// NewTable returns a table with the style used by every report and cli table.
func NewTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

// FormatCount groups the digits of n by thousands.
func FormatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}

// FormatScore rounds a score for presentation.
func FormatScore(score float64) string {
	return FormatCount(influence.CreatorScore{Total: score}.Rounded())
}

func rightAligned(columns ...int) []table.ColumnConfig {
	out := make([]table.ColumnConfig, len(columns))
	for i, n := range columns {
		out[i] = table.ColumnConfig{Number: n, Align: text.AlignRight}
	}
	return out
}

func (r Report) rankingTable() string {
	t := NewTable()
	t.AppendHeader(table.Row{"#", "Name", "Category", "Score", "Fetched", "Estimated", "Platforms"})
	for _, e := range r.Entries {
		c := e.Result.Creator
		provenance := e.Result.Score.Provenance()
		t.AppendRow(table.Row{
			e.Rank,
			c.Name,
			c.Category,
			FormatScore(e.Result.Score.Total),
			FormatScore(provenance.Success),
			FormatScore(provenance.Estimated),
			len(e.Result.Score.Breakdown),
		})
	}
	t.SetColumnConfigs(rightAligned(1, 4, 5, 6, 7))
	return t.Render()
}

func (r Report) detailTable(e Entry) string {
	t := NewTable()
	t.AppendHeader(table.Row{"Platform", "Status", "Followers", "Views", "Engagement", "Contribution", "Note"})
	for _, platform := range r.visibleSamples(e.Result) {
		sample := e.Result.Samples[platform]
		contribution := e.Result.Score.Breakdown[platform].Contribution
		note := sample.Note
		if sample.Status == influence.StatusError {
			note = sample.Error
		}
		t.AppendRow(table.Row{
			platform,
			statusLabels[sample.Status],
			FormatCount(sample.Followers),
			FormatCount(sample.Views),
			fmt.Sprintf("%.2f%%", sample.EngagementRate),
			FormatScore(contribution),
			note,
		})
	}
	t.SetColumnConfigs(append(rightAligned(3, 4, 5, 6), table.ColumnConfig{Number: 7, WidthMax: 48}))
	return t.Render()
}

func (r Report) weightTable() string {
	t := NewTable()
	t.AppendHeader(table.Row{"Platform", "Weight", "Engagement", "Region"})
	for _, platform := range r.Weights.Platforms() {
		w, _ := r.Weights.Lookup(platform)
		t.AppendRow(table.Row{platform, fmt.Sprintf("%.2f", w.Weight), fmt.Sprintf("%.2f", w.Engagement), w.Region})
	}
	t.SetColumnConfigs(rightAligned(2, 3))
	return t.Render()
}

// WriteText writes the human readable report.
func (r Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintln(&b, "INFLUENCE REPORT")
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	if r.Region != "" {
		fmt.Fprintf(&b, "Region: %s\n", r.Region)
	}
	fmt.Fprintf(&b, "Creators: %d\n\n", len(r.Entries))

	fmt.Fprintln(&b, "RANKING")
	fmt.Fprintln(&b, r.rankingTable())
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "DETAILS")
	for _, e := range r.Entries {
		c := e.Result.Creator
		fmt.Fprintf(&b, "\n%d. %s", e.Rank, c.Name)
		if c.RealName != "" && c.RealName != c.Name {
			fmt.Fprintf(&b, " (%s)", c.RealName)
		}
		fmt.Fprintf(&b, "  score %s\n", FormatScore(e.Result.Score.Total))
		if c.Category != "" || c.Direction != "" {
			fmt.Fprintf(&b, "   %s\n", strings.TrimSpace(strings.Join([]string{c.Category, c.Direction}, "  ")))
		}
		fmt.Fprintln(&b, r.detailTable(e))

		for _, platform := range r.visibleSamples(e.Result) {
			posts := e.Result.Samples[platform].RecentPosts
			if len(posts) == 0 {
				continue
			}
			fmt.Fprintf(&b, "   recent on %s:\n", platform)
			for i, post := range posts {
				if i >= recentPostsShown {
					break
				}
				fmt.Fprintf(&b, "   - %s", post.Title)
				if post.Views > 0 {
					fmt.Fprintf(&b, " (%s views)", FormatCount(post.Views))
				}
				fmt.Fprintln(&b)
			}
		}
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "PLATFORM WEIGHTS")
	fmt.Fprintln(&b, r.weightTable())
	fmt.Fprintln(&b)

	q := r.Quality()
	fmt.Fprintln(&b, "DATA QUALITY")
	fmt.Fprintf(&b, "  ok   fetched from the platform this run (%d)\n", q.Success)
	fmt.Fprintf(&b, "  est  estimated from public information (%d)\n", q.Estimated)
	fmt.Fprintf(&b, "  err  fetch failed, not scored (%d)\n", q.Error)
	if r.Options.EstimatedFactor != 1 {
		fmt.Fprintf(&b, "  estimated samples count for %.0f%% of their score\n", r.Options.EstimatedFactor*100)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
