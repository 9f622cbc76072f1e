package models

import "time"

// UnassignedFlight is a scheduled flight that is not yet part of any
// rotation. Rows come from the network schedule load; this service only
// reads them and flips their assignment marker.
type UnassignedFlight struct {
	ID             string    `db:"id" json:"id"`
	FlightNumber   string    `db:"flight_number" json:"flightNumber"`
	DepStn         string    `db:"dep_stn" json:"depStn"`
	ArrStn         string    `db:"arr_stn" json:"arrStn"`
	Std            string    `db:"std" json:"std"`
	Sta            string    `db:"sta" json:"sta"`
	Bt             string    `db:"bt" json:"bt"`
	Variant        string    `db:"variant" json:"variant"`
	Dow            string    `db:"dow" json:"dow"`
	EffFromDt      string    `db:"eff_from_dt" json:"effFromDt"`
	EffToDt        string    `db:"eff_to_dt" json:"effToDt"`
	DomIntl        string    `db:"dom_intl" json:"domIntl"`
	RotationNumber *int      `db:"rotation_number" json:"rotationNumber,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// UnassignedFlightFilter narrows the unassigned candidate list to flights
// that can continue a chain: departing from the trailing station at or
// after the derived next departure time, within the rotation's validity
// window and days of week.
type UnassignedFlightFilter struct {
	AllowedDeptStn string
	AllowedStdLt   string
	Variant        string
	EffFromDate    string
	EffToDate      string
	Dow            string
}
