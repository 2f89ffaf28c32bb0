package model

// RepairFileKind describes one family of repair CSVs produced by the network
// scan/repair process. The two families place their columns at different offsets.
type RepairFileKind struct {
	Name        string // e.g. "initial_repair"
	Glob        string // per-host filename pattern
	StatusIndex int    // upload_status column
	CostIndex   int    // cost_paid column
	ErrorIndex  int    // error text column
}

var (
	NetworkScanRepair = RepairFileKind{Name: "network_scan_repair", Glob: "network_scan_repair_*.csv", StatusIndex: 3, CostIndex: 4, ErrorIndex: 5}
	InitialRepair     = RepairFileKind{Name: "initial_repair", Glob: "initial_repair_*.csv", StatusIndex: 2, CostIndex: 3, ErrorIndex: 4}
)

// AllRepairFileKinds lists repair file families in the order they are reported.
var AllRepairFileKinds = []RepairFileKind{NetworkScanRepair, InitialRepair}

// RepairCounts tallies repair rows by upload status.
type RepairCounts struct {
	Success int64
	Failed  int64
	Paid    int64 // successful rows with a non-zero cost
}

// Add accumulates other into c.
func (c *RepairCounts) Add(other RepairCounts) {
	c.Success += other.Success
	c.Failed += other.Failed
	c.Paid += other.Paid
}

// Total is the number of rows with a recognized status.
func (c RepairCounts) Total() int64 {
	return c.Success + c.Failed
}

// HostMetrics aggregates the scan artifacts found in one host directory.
type HostMetrics struct {
	Host      string
	Whitelist int64
	Badlist   int64
	Repair    RepairCounts
}
