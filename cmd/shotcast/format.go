package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"go.klb.dev/shotcast/internal/item"
)

func fmtAge(t time.Time) string {
	age := time.Since(t).Round(time.Second)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	}
	return t.Local().Format("2006-01-02 15:04")
}

func fmtSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// truncate shortens s to at most n runes on a single line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printSummaries(out io.Writer, items []item.Summary) error {
	tw := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tCATEGORY\tTITLE\tSOURCE\tSIZE\tCAPTURED\tFLAGS\n")
	for _, s := range items {
		src := s.SourceApp
		if src == "" {
			src = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Category, truncate(s.Title, 48), src, fmtSize(s.FileSize),
			fmtAge(s.Timestamp), flags(s),
		)
	}
	return tw.Flush()
}

func flags(s item.Summary) string {
	var f []string
	if s.Favorite {
		f = append(f, "★")
	}
	if s.HasThumbnail {
		f = append(f, "thumb")
	}
	for _, t := range s.Tags {
		f = append(f, "#"+t)
	}
	if len(f) == 0 {
		return "-"
	}
	return strings.Join(f, " ")
}
