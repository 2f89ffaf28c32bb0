package exitcode

const (
	Success     = 0
	UsageError  = 1
	ReadError   = 2
	DBConnError = 3
	ExportError = 4
	StoreError  = 5
	WriteError  = 6
)
