package dto

import (
	"time"

	marathonModel "marathon_backend/internals/features/events/marathons/model"
	model "marathon_backend/internals/features/events/participants/model"
	helper "marathon_backend/internals/helpers"
)

type ParticipantDetailsInput struct {
	FullName      string  `json:"fullName" validate:"required,max=255"`
	Email         *string `json:"email" validate:"omitempty,email,max=255"`
	ContactNumber string  `json:"contactNumber" validate:"required,len=10,numeric"`
	Gender        string  `json:"gender" validate:"required,oneof=Male Female Other"`
	DateOfBirth   string  `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Address       *string `json:"address" validate:"omitempty,max=500"`
	City          *string `json:"city" validate:"omitempty,max=100"`
	Pincode       *string `json:"pincode" validate:"omitempty,max=10"`
	State         *string `json:"state" validate:"omitempty,max=100"`
	TshirtSize    string  `json:"tshirtSize" validate:"required,oneof=XS S M L XL XXL"`
	BloodGroup    *string `json:"bloodGroup" validate:"omitempty,max=10"`
	RunningGroup  *string `json:"runningGroup" validate:"omitempty,max=255"`
	TermsAccepted bool    `json:"isTermsConditionAccepted" validate:"eq=true"`
}

type RegistrationItem struct {
	MarathonID   uint                    `json:"marathonId" validate:"required,gt=0"`
	MarathonType string                  `json:"marathonType" validate:"required,oneof=Open Defence"`
	Details      ParticipantDetailsInput `json:"details" validate:"required"`
}

type BulkRegisterRequest struct {
	Registrations []RegistrationItem `json:"registrations" validate:"required,min=1,max=20,dive"`
}

// ToModel builds the details row; age is derived from the date of birth at asOf.
func (in ParticipantDetailsInput) ToModel(asOf time.Time) (*model.ParticipantDetailsModel, error) {
	dob, err := time.Parse("2006-01-02", in.DateOfBirth)
	if err != nil {
		return nil, helper.Validation("dateOfBirth must be YYYY-MM-DD")
	}
	if dob.After(asOf) {
		return nil, helper.Validation("dateOfBirth is in the future")
	}
	age := AgeAt(dob, asOf)
	return &model.ParticipantDetailsModel{
		ParticipantDetailsFullName:      in.FullName,
		ParticipantDetailsEmail:         in.Email,
		ParticipantDetailsContactNumber: in.ContactNumber,
		ParticipantDetailsGender:        model.Gender(in.Gender),
		ParticipantDetailsAge:           &age,
		ParticipantDetailsAddress:       in.Address,
		ParticipantDetailsCity:          in.City,
		ParticipantDetailsPincode:       in.Pincode,
		ParticipantDetailsState:         in.State,
		ParticipantDetailsTshirtSize:    model.TshirtSize(in.TshirtSize),
		ParticipantDetailsDateOfBirth:   &dob,
		ParticipantDetailsBloodGroup:    in.BloodGroup,
		ParticipantDetailsRunningGroup:  in.RunningGroup,
		ParticipantDetailsTermsAccepted: in.TermsAccepted,
	}, nil
}

// AgeAt is completed years between dob and t.
func AgeAt(dob, t time.Time) int {
	age := t.Year() - dob.Year()
	if t.Month() < dob.Month() || (t.Month() == dob.Month() && t.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

type ParticipantResponse struct {
	ParticipantID      uint                           `json:"participant_id"`
	BibNumber          *string                        `json:"bib_number"`
	MarathonID         uint                           `json:"marathon_id"`
	MarathonType       model.MarathonType             `json:"marathon_type"`
	IsPaymentCompleted bool                           `json:"is_payment_completed"`
	IsNotified         bool                           `json:"is_notified"`
	FeesAmount         string                         `json:"fees_amount,omitempty"`
	CreatedAt          time.Time                      `json:"created_at"`
	Details            *model.ParticipantDetailsModel `json:"details,omitempty"`
	Marathon           *marathonModel.MarathonModel   `json:"marathon,omitempty"`
}

func FromModel(p *model.ParticipantModel) ParticipantResponse {
	out := ParticipantResponse{
		ParticipantID:      p.ParticipantID,
		BibNumber:          p.ParticipantBibNumber,
		MarathonID:         p.ParticipantMarathonID,
		MarathonType:       p.ParticipantMarathonType,
		IsPaymentCompleted: p.ParticipantIsPaymentCompleted,
		IsNotified:         p.ParticipantIsNotified,
		CreatedAt:          p.ParticipantCreatedAt,
		Details:            p.Details,
		Marathon:           p.Marathon,
	}
	if p.Marathon != nil {
		out.FeesAmount = helper.FormatMinor(p.Marathon.MarathonFeesAmountMinor)
	}
	return out
}

func FromModels(rows []model.ParticipantModel) []ParticipantResponse {
	out := make([]ParticipantResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
