package utils

import (
	"fmt"
	"strconv"
)

// ToString converts scanned database values to string. MySQL drivers hand
// key columns back as strings, byte slices or integers depending on the
// column type, and all of them must key identically.
func ToString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
