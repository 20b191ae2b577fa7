package domain

import (
	"time"
)

// CurrentVehicle accumulates the vehicle being described across several
// conversation turns. It is reset to the zero value once the vehicle record
// is finalized and persisted.
type CurrentVehicle struct {
	VIN              string `json:"vin,omitempty"`
	Year             int    `json:"year,omitempty"`
	Make             string `json:"make,omitempty"`
	BodyType         string `json:"body_type,omitempty"`
	VehicleUse       string `json:"vehicle_use,omitempty"`
	BlindSpotWarning *bool  `json:"blind_spot_warning,omitempty"`
	DaysPerWeek      int    `json:"days_per_week,omitempty"`
	OneWayMiles      int    `json:"one_way_miles,omitempty"`
	AnnualMileage    int    `json:"annual_mileage,omitempty"`
}

// SessionData is the per-conversation scratch record threaded through state
// transitions. It is owned by the caller and serialized as JSON alongside
// the session row.
type SessionData struct {
	CurrentVehicle CurrentVehicle `json:"current_vehicle"`
}

// Session tracks where a user is in the onboarding dialogue.
type Session struct {
	UserID       string      `json:"user_id"`
	CurrentState string      `json:"current_state"`
	Data         SessionData `json:"data"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
