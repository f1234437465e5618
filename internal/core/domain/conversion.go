package domain

// ConversionRequest asks for one timestamp conversion.
type ConversionRequest struct {
	Timestamp *int64 `json:"timestamp,omitempty"`
	Date      string `json:"date,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
}

// ConversionResult holds a timestamp rendered in every supported format.
type ConversionResult struct {
	Unix      int64  `json:"unix"`
	UnixMilli int64  `json:"unix_milli"`
	ISO8601   string `json:"iso8601"`
	UTC       string `json:"utc"`
	Local     string `json:"local,omitempty"`
	Timezone  string `json:"timezone"`
	Relative  string `json:"relative"`
}

// TimezoneInfo describes a single IANA timezone at a point in time.
type TimezoneInfo struct {
	Name          string `json:"name"`
	Abbreviation  string `json:"abbreviation"`
	OffsetSeconds int    `json:"offset_seconds"`
	OffsetLabel   string `json:"offset_label"`
	IsDST         bool   `json:"is_dst"`
}
