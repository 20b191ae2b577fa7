package conversation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bindiq/onboarding-server/internal/domain"
)

// ValidationError is returned when input fails a state's validator.
// Guidance is the fixed re-prompt message shown to the user.
type ValidationError struct {
	Guidance string
}

func (e *ValidationError) Error() string {
	return e.Guidance
}

// VehicleIdentity is the parsed result of the vehicle-info step: either a
// bare VIN or a year/make/body-type triple.
type VehicleIdentity struct {
	VIN      string
	Year     int
	Make     string
	BodyType string
}

const minVehicleYear = 1900

var (
	zipPattern = regexp.MustCompile(`^\d{5}$`)
	// VINs never contain I, O, or Q.
	vinPattern   = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
	emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
)

var yesWords = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true,
	"sure": true, "ok": true, "okay": true,
}

var noWords = map[string]bool{
	"no": true, "n": true, "nope": true, "nah": true,
}

var validators = map[State]func(string) (any, error){
	StateCollectingZip:           validateZip,
	StateCollectingName:          validateName,
	StateCollectingEmail:         validateEmail,
	StateCollectingVehicleInfo:   validateVehicleInfo,
	StateCollectingVehicleUse:    validateVehicleUse,
	StateCollectingBlindSpot:     validateYesNo,
	StateCollectingCommuteDays:   validateCommuteDays,
	StateCollectingCommuteMiles:  validateCommuteMiles,
	StateCollectingAnnualMileage: validateAnnualMileage,
	StateAskMoreVehicles:         validateYesNo,
	StateCollectingLicenseType:   validateLicenseType,
	StateCollectingLicenseStatus: validateLicenseStatus,
}

// Validate runs the validator registered for a state against raw user input.
// States without a validator accept the trimmed input verbatim. On failure
// the returned error is a *ValidationError whose guidance is relayed to the
// user; the caller must not advance state on failure.
func Validate(state State, raw string) (any, error) {
	if validator, ok := validators[state]; ok {
		return validator(raw)
	}
	return strings.TrimSpace(raw), nil
}

func validateZip(text string) (any, error) {
	txt := strings.TrimSpace(text)
	if zipPattern.MatchString(txt) {
		return txt, nil
	}
	return nil, &ValidationError{Guidance: "Please provide a valid 5-digit zip code."}
}

func validateName(text string) (any, error) {
	txt := strings.TrimSpace(text)
	if len(strings.Fields(txt)) >= 2 {
		return txt, nil
	}
	return nil, &ValidationError{Guidance: "Please provide your full name (first and last)."}
}

func validateEmail(text string) (any, error) {
	txt := strings.ToLower(strings.TrimSpace(text))
	if emailPattern.MatchString(txt) {
		return txt, nil
	}
	return nil, &ValidationError{Guidance: "Please provide a valid email address."}
}

// validateVehicleInfo accepts a 17-character VIN or a "YEAR MAKE BODY-TYPE"
// triple. The VIN check wins whenever the input matches the restricted
// alphabet exactly; words past the make fold into the body type.
func validateVehicleInfo(text string) (any, error) {
	vin := strings.ToUpper(strings.TrimSpace(text))
	if vinPattern.MatchString(vin) {
		return VehicleIdentity{VIN: vin}, nil
	}

	fields := strings.Fields(text)
	if len(fields) >= 3 {
		year, err := strconv.Atoi(fields[0])
		if err == nil && year >= minVehicleYear && year <= time.Now().UTC().Year()+1 {
			return VehicleIdentity{
				Year:     year,
				Make:     titleCase(fields[1]),
				BodyType: titleCase(strings.Join(fields[2:], " ")),
			}, nil
		}
	}
	return nil, &ValidationError{Guidance: "Please provide either a 17-character VIN or 'Year Make Body-Type'."}
}

func validateVehicleUse(text string) (any, error) {
	txt := strings.ToLower(strings.TrimSpace(text))
	if _, ok := domain.ParseVehicleUse(txt); ok {
		return txt, nil
	}
	return nil, &ValidationError{Guidance: "Please choose: commuting, commercial, farming, or business."}
}

func validateYesNo(text string) (any, error) {
	txt := strings.ToLower(strings.TrimSpace(text))
	if yesWords[txt] {
		return true, nil
	}
	if noWords[txt] {
		return false, nil
	}
	return nil, &ValidationError{Guidance: "Please answer Yes or No."}
}

func validateCommuteDays(text string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err == nil && n >= 1 && n <= 7 {
		return n, nil
	}
	return nil, &ValidationError{Guidance: "Please enter a number between 1 and 7."}
}

func validateCommuteMiles(text string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err == nil && n >= 1 && n <= 999 {
		return n, nil
	}
	return nil, &ValidationError{Guidance: "Please enter the number of miles (1-999)."}
}

func validateAnnualMileage(text string) (any, error) {
	// Tolerate thousands separators: "12,000" reads as 12000.
	txt := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	n, err := strconv.Atoi(txt)
	if err == nil && n >= 1 && n <= 499999 {
		return n, nil
	}
	return nil, &ValidationError{Guidance: "Please enter annual mileage (e.g., 12000)."}
}

func validateLicenseType(text string) (any, error) {
	txt := strings.ToLower(strings.TrimSpace(text))
	if _, ok := domain.ParseLicenseType(txt); ok {
		return txt, nil
	}
	return nil, &ValidationError{Guidance: "Please choose: Foreign, Personal, or Commercial."}
}

func validateLicenseStatus(text string) (any, error) {
	txt := strings.ToLower(strings.TrimSpace(text))
	if _, ok := domain.ParseLicenseStatus(txt); ok {
		return txt, nil
	}
	return nil, &ValidationError{Guidance: "Please choose: Valid or Suspended."}
}

// titleCase upper-cases the first letter of each word and lower-cases the
// rest, so "honda CIVIC" becomes "Honda Civic".
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
