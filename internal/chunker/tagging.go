package chunker

import (
	"regexp"
	"strings"

	"github.com/dgallion1/reportgest/internal/report"
)

// Patterns for content tagging. Tabular content is either a
// pipe-delimited row or a fixed-width rule line; metric-like content is
// a numeric value next to a unit token, or a recognized metric label.
var (
	ruleLineRe = regexp.MustCompile(`^\s*[-=+_]{4,}\s*$`)
	metricRe   = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s?(?:ms|s|%|gb|mb|kb|tb|mhz|ghz|req/s|iops)\b`)
)

var metricLabels = []string{
	"response time",
	"throughput",
	"utilization",
	"cpu usage",
	"memory usage",
	"latency",
	"dialog steps",
	"db growth",
}

func tagContent(c *report.Chunk, lines []string) {
	for _, line := range lines {
		if !c.HasTables && isTableRow(line) {
			c.HasTables = true
		}
		if !c.HasMetrics && isMetricLine(line) {
			c.HasMetrics = true
		}
		if c.HasTables && c.HasMetrics {
			return
		}
	}
}

func isTableRow(line string) bool {
	if strings.Count(line, "|") >= 2 {
		return true
	}
	return ruleLineRe.MatchString(line)
}

func isMetricLine(line string) bool {
	if metricRe.MatchString(line) {
		return true
	}
	lower := strings.ToLower(line)
	for _, label := range metricLabels {
		if strings.Contains(lower, label) {
			return true
		}
	}
	return false
}
