package models

import "time"

// Rotation is the summary header for an ordered chain of flight departures
// flown by one aircraft variant over a validity window. The pair
// (rotation_number, variant) identifies a chain.
type Rotation struct {
	RotationNumber int       `db:"rotation_number" json:"rotationNumber"`
	Variant        string    `db:"variant" json:"variant"`
	RotationTag    string    `db:"rotation_tag" json:"rotationTag"`
	EffFromDt      string    `db:"eff_from_dt" json:"effFromDt"`
	EffToDt        string    `db:"eff_to_dt" json:"effToDt"`
	Dow            string    `db:"dow" json:"dow"`
	Locked         bool      `db:"locked" json:"locked"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// RotationLeg is one departure within a rotation chain. DepNumber is the
// 1-based position; it is dense and only the tail may be removed.
type RotationLeg struct {
	ID             string    `db:"id" json:"id"`
	RotationNumber int       `db:"rotation_number" json:"rotationNumber"`
	Variant        string    `db:"variant" json:"variant"`
	DepNumber      int       `db:"dep_number" json:"depNumber"`
	FlightNumber   string    `db:"flight_number" json:"flightNumber"`
	DepStn         string    `db:"dep_stn" json:"depStn"`
	ArrStn         string    `db:"arr_stn" json:"arrStn"`
	Std            string    `db:"std" json:"std"`
	Sta            string    `db:"sta" json:"sta"`
	Bt             string    `db:"bt" json:"bt"`
	Gt             string    `db:"gt" json:"gt"`
	DomIntl        string    `db:"dom_intl" json:"domIntl"`
	DayOffset      int       `db:"day_offset" json:"dayOffset"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// RotationFilter captures listing criteria for the console rotation table.
type RotationFilter struct {
	Variant   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// RotationTotals aggregates durations over a whole chain. Cumulative values
// never wrap at 24h; hours above 23 are rendered as-is.
type RotationTotals struct {
	TotalBt       string `json:"totalBt"`
	TotalGt       string `json:"totalGt"`
	TotalTurnTime string `json:"totalTurnTime"`
}
