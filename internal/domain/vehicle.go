package domain

import (
	"time"
)

// VehicleUse categorizes how a vehicle is primarily used.
type VehicleUse string

const (
	VehicleUseCommuting  VehicleUse = "commuting"
	VehicleUseBusiness   VehicleUse = "business"
	VehicleUseCommercial VehicleUse = "commercial"
	VehicleUseFarming    VehicleUse = "farming"
)

// LicenseType categorizes a driver's license.
type LicenseType string

const (
	LicenseTypeForeign    LicenseType = "foreign"
	LicenseTypePersonal   LicenseType = "personal"
	LicenseTypeCommercial LicenseType = "commercial"
)

// LicenseStatus is the standing of a driver's license.
type LicenseStatus string

const (
	LicenseStatusValid     LicenseStatus = "valid"
	LicenseStatusSuspended LicenseStatus = "suspended"
)

// ParseVehicleUse returns the VehicleUse for a lower-case code.
func ParseVehicleUse(s string) (VehicleUse, bool) {
	switch VehicleUse(s) {
	case VehicleUseCommuting, VehicleUseBusiness, VehicleUseCommercial, VehicleUseFarming:
		return VehicleUse(s), true
	}
	return "", false
}

// ParseLicenseType returns the LicenseType for a lower-case code.
func ParseLicenseType(s string) (LicenseType, bool) {
	switch LicenseType(s) {
	case LicenseTypeForeign, LicenseTypePersonal, LicenseTypeCommercial:
		return LicenseType(s), true
	}
	return "", false
}

// ParseLicenseStatus returns the LicenseStatus for a lower-case code.
func ParseLicenseStatus(s string) (LicenseStatus, bool) {
	switch LicenseStatus(s) {
	case LicenseStatusValid, LicenseStatusSuspended:
		return LicenseStatus(s), true
	}
	return "", false
}

// Vehicle is a finalized vehicle record attached to a user.
type Vehicle struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"user_id"`
	VIN              string    `json:"vin,omitempty"`
	Year             int       `json:"year,omitempty"`
	Make             string    `json:"make,omitempty"`
	BodyType         string    `json:"body_type,omitempty"`
	VehicleUse       string    `json:"vehicle_use,omitempty"`
	BlindSpotWarning *bool     `json:"blind_spot_warning,omitempty"`
	DaysPerWeek      int       `json:"days_per_week,omitempty"`
	OneWayMiles      int       `json:"one_way_miles,omitempty"`
	AnnualMileage    int       `json:"annual_mileage,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
