package parquetio

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// requiredColumns are the attempt fields every exported row carries.
var requiredColumns = []string{"file_name", "size_kb", "duration_seconds", "start_time"}

// ValidateSchema checks that the Parquet schema holds an attempt export.
func ValidateSchema(schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}

	var missing []string
	for _, col := range requiredColumns {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("not an attempt export; missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
