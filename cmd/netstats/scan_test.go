package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gyeh/testnetstats/internal/model"
)

func TestPrintHostSummary(t *testing.T) {
	hosts := []model.HostMetrics{
		{Host: "host-a", Whitelist: 2, Badlist: 3, Repair: model.RepairCounts{Success: 1, Failed: 2, Paid: 1}},
		{Host: "host-b", Badlist: 1, Repair: model.RepairCounts{Success: 1, Failed: 1}},
	}
	var buf bytes.Buffer
	printHostSummary(&buf, hosts)

	want := strings.Join([]string{
		"host-a:",
		"  white list: 2; bad list: 3; repair success: 1; repair failed: 2; repair paid: 1",
		"host-b:",
		"  white list: 0; bad list: 1; repair success: 1; repair failed: 1; repair paid: 0",
		strings.Repeat("=", 50),
		"TOTALS:",
		"  white list: 2",
		"  bad list: 4",
		"  repair success: 2",
		"  repair failed: 3",
		"  repair paid: 1",
		"  total repair entries: 5",
	}, "\n") + "\n"
	if got := buf.String(); got != want {
		t.Errorf("summary output:\n%s\nwant:\n%s", got, want)
	}
}
