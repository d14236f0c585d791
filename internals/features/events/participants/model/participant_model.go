package model

import (
	"time"

	marathonModel "marathon_backend/internals/features/events/marathons/model"
)

/*
  participants = one person's entry in one marathon.

  participant_bib_number and participant_is_payment_completed are read-only here (`->`):
  regular saves never write them. Only the payments package updates them, through
  explicit UPDATE statements inside the reconciliation transaction.
*/

type ParticipantModel struct {
	ParticipantID uint `gorm:"column:participant_id;primaryKey;autoIncrement" json:"participant_id"`

	ParticipantBibNumber *string `gorm:"->;column:participant_bib_number;size:50;uniqueIndex:uq_participants_bib_number" json:"participant_bib_number"`

	ParticipantDetailsID    uint         `gorm:"column:participant_details_id;not null;index" json:"participant_details_id"`
	ParticipantMarathonID   uint         `gorm:"column:participant_marathon_id;not null;index" json:"participant_marathon_id"`
	ParticipantMarathonType MarathonType `gorm:"column:participant_marathon_type;size:16;not null;default:Open" json:"participant_marathon_type"`
	ParticipantUserID       uint         `gorm:"column:participant_user_id;not null;index" json:"participant_user_id"`

	ParticipantIsPaymentCompleted bool `gorm:"->;column:participant_is_payment_completed;not null;default:false;index" json:"participant_is_payment_completed"`
	ParticipantIsNotified         bool `gorm:"column:participant_is_notified;not null;default:false" json:"participant_is_notified"`

	ParticipantCreatedAt time.Time `gorm:"column:participant_created_at;autoCreateTime" json:"participant_created_at"`
	ParticipantUpdatedAt time.Time `gorm:"column:participant_updated_at;autoUpdateTime" json:"participant_updated_at"`

	Details  *ParticipantDetailsModel     `gorm:"foreignKey:ParticipantDetailsID;references:ParticipantDetailsID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
	Marathon *marathonModel.MarathonModel `gorm:"foreignKey:ParticipantMarathonID;references:MarathonID;constraint:OnDelete:RESTRICT" json:"marathon,omitempty"`
}

func (ParticipantModel) TableName() string { return "participants" }

func (p ParticipantModel) HasBib() bool {
	return p.ParticipantBibNumber != nil && *p.ParticipantBibNumber != ""
}

type ParticipantDetailsModel struct {
	ParticipantDetailsID uint `gorm:"column:participant_details_id;primaryKey;autoIncrement" json:"participant_details_id"`

	ParticipantDetailsFullName      string     `gorm:"column:participant_details_full_name;size:255;not null" json:"full_name"`
	ParticipantDetailsEmail         *string    `gorm:"column:participant_details_email;size:255" json:"email"`
	ParticipantDetailsContactNumber string     `gorm:"column:participant_details_contact_number;size:15;not null" json:"contact_number"`
	ParticipantDetailsGender        Gender     `gorm:"column:participant_details_gender;size:10;not null" json:"gender"`
	ParticipantDetailsAge           *int       `gorm:"column:participant_details_age" json:"age"`
	ParticipantDetailsAddress       *string    `gorm:"column:participant_details_address;type:text" json:"address"`
	ParticipantDetailsCity          *string    `gorm:"column:participant_details_city;size:100;index" json:"city"`
	ParticipantDetailsPincode       *string    `gorm:"column:participant_details_pincode;size:10" json:"pincode"`
	ParticipantDetailsState         *string    `gorm:"column:participant_details_state;size:100;index" json:"state"`
	ParticipantDetailsTshirtSize    TshirtSize `gorm:"column:participant_details_tshirt_size;size:8;not null" json:"tshirt_size"`
	ParticipantDetailsDateOfBirth   *time.Time `gorm:"column:participant_details_date_of_birth;type:date" json:"date_of_birth"`
	ParticipantDetailsBloodGroup    *string    `gorm:"column:participant_details_blood_group;size:10" json:"blood_group"`
	ParticipantDetailsRunningGroup  *string    `gorm:"column:participant_details_running_group;size:255" json:"running_group"`

	ParticipantDetailsTermsAccepted bool `gorm:"column:participant_details_is_terms_accepted;not null;default:false" json:"is_terms_condition_accepted"`

	ParticipantDetailsCreatedAt time.Time `gorm:"column:participant_details_created_at;autoCreateTime" json:"created_at"`
	ParticipantDetailsUpdatedAt time.Time `gorm:"column:participant_details_updated_at;autoUpdateTime" json:"updated_at"`
}

func (ParticipantDetailsModel) TableName() string { return "participant_details" }
