package billing

import (
	"regexp"
	"strconv"
	"time"
)

var odataDatePattern = regexp.MustCompile(`^/Date\((-?\d+)(?:[+-]\d{4})?\)/$`)

// NormalizeODataDate converts the OData V2 "/Date(<ms>)/" form to a UTC "YYYY-MM-DD"
// date. Any other value is returned unchanged.
func NormalizeODataDate(value string) string {
	m := odataDatePattern.FindStringSubmatch(value)
	if m == nil {
		return value
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return value
	}
	return time.UnixMilli(ms).UTC().Format(time.DateOnly)
}
