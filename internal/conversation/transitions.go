package conversation

import (
	"github.com/bindiq/onboarding-server/internal/domain"
)

// transition is one row of the state-transition table: either a fixed
// successor or a computed branch.
type transition struct {
	next    State
	compute func(value any, data *domain.SessionData) State
}

var transitions = map[State]transition{
	StateStart:                   {next: StateCollectingZip},
	StateCollectingZip:           {next: StateCollectingName},
	StateCollectingName:          {next: StateCollectingEmail},
	StateCollectingEmail:         {next: StateVehicleIntro},
	StateVehicleIntro:            {next: StateCollectingVehicleInfo},
	StateCollectingVehicleInfo:   {next: StateCollectingVehicleUse},
	StateCollectingVehicleUse:    {next: StateCollectingBlindSpot},
	StateCollectingBlindSpot:     {compute: nextAfterBlindSpot},
	StateCollectingCommuteDays:   {next: StateCollectingCommuteMiles},
	StateCollectingCommuteMiles:  {next: StateAskMoreVehicles},
	StateCollectingAnnualMileage: {next: StateAskMoreVehicles},
	StateAskMoreVehicles:         {compute: nextAfterMoreVehicles},
	StateCollectingLicenseType:   {compute: nextAfterLicenseType},
	StateCollectingLicenseStatus: {next: StateCompleted},
	StateCompleted:               {next: StateCompleted},
}

// NextState computes the successor of current after a successful validation.
// It is total over the state enumeration and never fails; callers must not
// invoke it with input that failed Validate.
func NextState(current State, value any, data *domain.SessionData) State {
	t := transitions[current]
	if t.compute != nil {
		return t.compute(value, data)
	}
	return t.next
}

// The post-blind-spot branch keys off how the vehicle is used, not off the
// blind-spot answer itself: only commuters get the days/miles questions,
// everyone else reports annual mileage directly.
func nextAfterBlindSpot(_ any, data *domain.SessionData) State {
	if data != nil && data.CurrentVehicle.VehicleUse == string(domain.VehicleUseCommuting) {
		return StateCollectingCommuteDays
	}
	return StateCollectingAnnualMileage
}

func nextAfterMoreVehicles(value any, _ *domain.SessionData) State {
	if addMore, ok := value.(bool); ok && addMore {
		return StateVehicleIntro
	}
	return StateCollectingLicenseType
}

// Foreign-license holders skip status collection entirely.
func nextAfterLicenseType(value any, _ *domain.SessionData) State {
	if lic, ok := value.(string); ok && lic == string(domain.LicenseTypeForeign) {
		return StateCompleted
	}
	return StateCollectingLicenseStatus
}
