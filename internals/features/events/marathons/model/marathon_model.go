package model

import (
	"time"

	"gorm.io/datatypes"
)

type MarathonModel struct {
	MarathonID uint `gorm:"column:marathon_id;primaryKey;autoIncrement" json:"marathon_id"`

	MarathonName        string     `gorm:"column:marathon_name;size:255;not null" json:"marathon_name"`
	MarathonTrackLength *string    `gorm:"column:marathon_track_length;size:50" json:"marathon_track_length"`
	MarathonDate        *time.Time `gorm:"column:marathon_date;type:date;index" json:"marathon_date"`
	MarathonReportingAt *string    `gorm:"column:marathon_reporting_time;size:8" json:"marathon_reporting_time"`
	MarathonRunStartAt  *string    `gorm:"column:marathon_run_start_time;size:8" json:"marathon_run_start_time"`
	MarathonLocation    *string    `gorm:"column:marathon_location;size:255;index" json:"marathon_location"`

	MarathonTermsConditions     *string `gorm:"column:marathon_terms_conditions;type:text" json:"marathon_terms_conditions"`
	MarathonHowToApply          *string `gorm:"column:marathon_how_to_apply;type:text" json:"marathon_how_to_apply"`
	MarathonEligibilityCriteria *string `gorm:"column:marathon_eligibility_criteria;type:text" json:"marathon_eligibility_criteria"`
	MarathonRulesRegulations    *string `gorm:"column:marathon_rules_regulations;type:text" json:"marathon_rules_regulations"`
	MarathonRunnerAmenities     *string `gorm:"column:marathon_runner_amenities;type:text" json:"marathon_runner_amenities"`
	MarathonRouteMap            *string `gorm:"column:marathon_route_map;size:255" json:"marathon_route_map"`

	// e.g. [{"category":"Open","amount":"500.00"}]
	MarathonPriceList datatypes.JSON `gorm:"column:marathon_price_list;type:jsonb" json:"marathon_price_list"`

	// minor units
	MarathonFeesAmountMinor int64 `gorm:"column:marathon_fees_amount_minor;not null;default:0" json:"marathon_fees_amount_minor"`

	MarathonCreatedAt time.Time `gorm:"column:marathon_created_at;autoCreateTime" json:"marathon_created_at"`
	MarathonUpdatedAt time.Time `gorm:"column:marathon_updated_at;autoUpdateTime" json:"marathon_updated_at"`
}

func (MarathonModel) TableName() string { return "marathons" }
