package sql

import (
	"embed"
)

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/lookup_run.sql
var LookupRun string

//go:embed queries/register_run.sql
var RegisterRun string

//go:embed queries/update_run_status.sql
var UpdateRunStatus string

//go:embed queries/finalize_run.sql
var FinalizeRun string

//go:embed queries/delete_run_attempts.sql
var DeleteRunAttempts string

//go:embed queries/count_run_attempts.sql
var CountRunAttempts string
