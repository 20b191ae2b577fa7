// Package conversation implements the onboarding dialogue state machine:
// the ordered collection states, the per-state input validators, the
// transition rules, and the completion progress metric. Everything here is
// pure and synchronous; persistence and transport belong to the caller.
package conversation

// State is one step of the onboarding dialogue.
type State string

const (
	StateStart                   State = "start"
	StateCollectingZip           State = "collecting_zip"
	StateCollectingName          State = "collecting_name"
	StateCollectingEmail         State = "collecting_email"
	StateVehicleIntro            State = "vehicle_intro"
	StateCollectingVehicleInfo   State = "collecting_vehicle_info"
	StateCollectingVehicleUse    State = "collecting_vehicle_use"
	StateCollectingBlindSpot     State = "collecting_blind_spot"
	StateCollectingCommuteDays   State = "collecting_commute_days"
	StateCollectingCommuteMiles  State = "collecting_commute_miles"
	StateCollectingAnnualMileage State = "collecting_annual_mileage"
	StateAskMoreVehicles         State = "ask_more_vehicles"
	StateCollectingLicenseType   State = "collecting_license_type"
	StateCollectingLicenseStatus State = "collecting_license_status"
	StateCompleted               State = "completed"
)

// States lists every dialogue state in canonical forward order.
var States = []State{
	StateStart,
	StateCollectingZip,
	StateCollectingName,
	StateCollectingEmail,
	StateVehicleIntro,
	StateCollectingVehicleInfo,
	StateCollectingVehicleUse,
	StateCollectingBlindSpot,
	StateCollectingCommuteDays,
	StateCollectingCommuteMiles,
	StateCollectingAnnualMileage,
	StateAskMoreVehicles,
	StateCollectingLicenseType,
	StateCollectingLicenseStatus,
	StateCompleted,
}

var progressByState = map[State]int{
	StateStart:                   0,
	StateCollectingZip:           10,
	StateCollectingName:          20,
	StateCollectingEmail:         30,
	StateVehicleIntro:            35,
	StateCollectingVehicleInfo:   40,
	StateCollectingVehicleUse:    50,
	StateCollectingBlindSpot:     60,
	StateCollectingCommuteDays:   65,
	StateCollectingCommuteMiles:  70,
	StateCollectingAnnualMileage: 70,
	StateAskMoreVehicles:         75,
	StateCollectingLicenseType:   85,
	StateCollectingLicenseStatus: 95,
	StateCompleted:               100,
}

// Progress returns how far through onboarding the given state is, 0-100.
// Looping back for a second vehicle regresses the value on purpose: progress
// tracks position within the sequence, not elapsed turns.
func Progress(s State) int {
	return progressByState[s]
}
