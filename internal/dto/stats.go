package dto

// DistrictCount is one district bucket, emitted sorted by count descending.
type DistrictCount struct {
	District string `json:"district"`
	Count    int    `json:"count"`
}

// SplitCount is a fixed two-way grouping (gender, quota, transport).
type SplitCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CutoffSummary reports the average cutoff over valid positive entries.
type CutoffSummary struct {
	Average string `json:"average"`
	Used    int    `json:"used"`
}

// EnquiryStatsResponse is the aggregation payload behind the staff dashboard.
type EnquiryStatsResponse struct {
	Total     int             `json:"total"`
	Approved  int             `json:"approved"`
	Pending   int             `json:"pending"`
	Districts []DistrictCount `json:"districts"`
	Gender    []SplitCount    `json:"gender"`
	Quota     []SplitCount    `json:"quota"`
	Bus       []SplitCount    `json:"bus"`
	Hostel    []SplitCount    `json:"hostel"`
	Cutoff    CutoffSummary   `json:"cutoff"`
}
