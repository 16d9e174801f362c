package models

// EligibilityReason is the machine-readable cause of a failed eligibility check.
type EligibilityReason string

const (
	ReasonDrivePast         EligibilityReason = "drivePast"
	ReasonGradeMismatch     EligibilityReason = "gradeMismatch"
	ReasonAlreadyVaccinated EligibilityReason = "alreadyVaccinated"
	ReasonNoDoses           EligibilityReason = "noDoses"
	// ReasonDriveInUse blocks deleting a drive that already administered doses.
	ReasonDriveInUse EligibilityReason = "driveInUse"
)

// Eligibility is the outcome of checking a student against a drive.
type Eligibility struct {
	Eligible bool              `json:"eligible"`
	Reason   EligibilityReason `json:"reason,omitempty"`
}
