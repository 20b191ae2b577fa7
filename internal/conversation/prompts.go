package conversation

// Canned question per state. These are the fallback texts sent verbatim
// whenever the rewriting sidecar is unavailable.
var promptsByState = map[State]string{
	StateStart:                   "Hello! I'll help you with your insurance onboarding. Let's start by getting your zip code.",
	StateCollectingZip:           "What's your 5-digit zip code?",
	StateCollectingName:          "Great! What's your full name?",
	StateCollectingEmail:         "Thanks! What's your email address?",
	StateVehicleIntro:            "Now let's add a vehicle to your policy.",
	StateCollectingVehicleInfo:   "Perfect! Please provide either your VIN or Year Make Body-Type (e.g. '2022 Honda Civic').",
	StateCollectingVehicleUse:    "How do you primarily use this vehicle? (commuting, commercial, farming, or business)",
	StateCollectingBlindSpot:     "Does this vehicle have blind spot warning? (Yes or No)",
	StateCollectingCommuteDays:   "How many days per week do you commute with this vehicle?",
	StateCollectingCommuteMiles:  "What's your one-way distance to work/school in miles?",
	StateCollectingAnnualMileage: "What's the estimated annual mileage for this vehicle?",
	StateAskMoreVehicles:         "Would you like to add another vehicle? (Yes or No)",
	StateCollectingLicenseType:   "What type of license do you have? (Foreign, Personal, or Commercial)",
	StateCollectingLicenseStatus: "What's your license status? (Valid or Suspended)",
	StateCompleted:               "Thank you! Your onboarding is complete.",
}

// Prompt returns the canned question for a state, or the empty string if the
// state has none.
func Prompt(s State) string {
	return promptsByState[s]
}
