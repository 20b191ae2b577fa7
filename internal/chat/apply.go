package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/bindiq/onboarding-server/internal/conversation"
	"github.com/bindiq/onboarding-server/internal/domain"
	"github.com/bindiq/onboarding-server/internal/store"
)

// applyValidInput applies the side effects of a validated answer: profile
// fields are written through immediately, vehicle fields accumulate in the
// session scratch data, and the vehicle is finalized after its last question.
// The data argument is mutated in place; the caller persists it with the
// state transition.
func applyValidInput(ctx context.Context, repo store.Repository, userID string, state conversation.State, value any, data *domain.SessionData) error {
	switch state {
	case conversation.StateCollectingZip:
		zip, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected value type %T for state %s", value, state)
		}
		return repo.UpdateProfile(ctx, userID, domain.ProfileUpdate{ZipCode: &zip})

	case conversation.StateCollectingName:
		name, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected value type %T for state %s", value, state)
		}
		return repo.UpdateProfile(ctx, userID, domain.ProfileUpdate{FullName: &name})

	case conversation.StateCollectingEmail:
		email, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected value type %T for state %s", value, state)
		}
		return repo.UpdateProfile(ctx, userID, domain.ProfileUpdate{Email: &email})

	case conversation.StateCollectingVehicleInfo:
		id, ok := value.(conversation.VehicleIdentity)
		if !ok {
			return fmt.Errorf("unexpected value type %T for state %s", value, state)
		}
		data.CurrentVehicle = domain.CurrentVehicle{
			VIN:      id.VIN,
			Year:     id.Year,
			Make:     id.Make,
			BodyType: id.BodyType,
		}
		return nil

	case conversation.StateCollectingVehicleUse:
		use, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected value type %T for state %s", value, state)
		}
		data.CurrentVehicle.VehicleUse = use
		return nil

	case conversation.StateCollectingBlindSpot:
		has, ok := value.(bool)
		if !ok {
			return fmt.Errorf("unexpected value type %T for state %s", value, state)
		}
		data.CurrentVehicle.BlindSpotWarning = &has
		return nil

	case conversation.StateCollectingCommuteDays:
		days, ok := value.(int)
		if !ok {
			return fmt.Errorf("unexpected value type %T for state %s", value, state)
		}
		data.CurrentVehicle.DaysPerWeek = days
		return nil

	case conversation.StateCollectingCommuteMiles:
		miles, ok := value.(int)
		if !ok {
			return fmt.Errorf("unexpected value type %T for state %s", value, state)
		}
		data.CurrentVehicle.OneWayMiles = miles
		return finalizeVehicle(ctx, repo, userID, data)

	case conversation.StateCollectingAnnualMileage:
		mileage, ok := value.(int)
		if !ok {
			return fmt.Errorf("unexpected value type %T for state %s", value, state)
		}
		data.CurrentVehicle.AnnualMileage = mileage
		return finalizeVehicle(ctx, repo, userID, data)

	case conversation.StateCollectingLicenseType:
		lic, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected value type %T for state %s", value, state)
		}
		return repo.UpdateProfile(ctx, userID, domain.ProfileUpdate{LicenseType: &lic})

	case conversation.StateCollectingLicenseStatus:
		status, ok := value.(string)
		if !ok {
			return fmt.Errorf("unexpected value type %T for state %s", value, state)
		}
		return repo.UpdateProfile(ctx, userID, domain.ProfileUpdate{LicenseStatus: &status})
	}

	// Remaining states carry no side effects.
	return nil
}

// finalizeVehicle persists the accumulated vehicle and clears the scratch
// record so the next vehicle loop starts clean.
func finalizeVehicle(ctx context.Context, repo store.Repository, userID string, data *domain.SessionData) error {
	cv := data.CurrentVehicle
	vehicle := &domain.Vehicle{
		UserID:           userID,
		VIN:              cv.VIN,
		Year:             cv.Year,
		Make:             cv.Make,
		BodyType:         cv.BodyType,
		VehicleUse:       cv.VehicleUse,
		BlindSpotWarning: cv.BlindSpotWarning,
		DaysPerWeek:      cv.DaysPerWeek,
		OneWayMiles:      cv.OneWayMiles,
		AnnualMileage:    cv.AnnualMileage,
		CreatedAt:        time.Now(),
	}
	if err := repo.SaveVehicle(ctx, vehicle); err != nil {
		return fmt.Errorf("finalize vehicle: %w", err)
	}
	data.CurrentVehicle = domain.CurrentVehicle{}
	return nil
}
