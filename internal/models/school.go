package models

import "strconv"

// SchoolBlock is one row of the school reference directory used for
// autocomplete suggestions. Loaded in bulk, never mutated by the portal.
type SchoolBlock struct {
	ID         int64  `db:"id" json:"-"`
	District   string `db:"district" json:"district"`
	BlockName  string `db:"block_name" json:"blockName"`
	SchoolName string `db:"school_name" json:"schoolName"`
	Address    string `db:"address" json:"address"`
	Pincode    string `db:"pincode" json:"pincode"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
