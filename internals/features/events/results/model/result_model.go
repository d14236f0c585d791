package model

import (
	"time"

	marathonModel "marathon_backend/internals/features/events/marathons/model"
)

type ResultPosition string

const (
	PositionFirst  ResultPosition = "First"
	PositionSecond ResultPosition = "Second"
	PositionThird  ResultPosition = "Third"
)

// results = podium finishers per marathon, category and gender.
type ResultModel struct {
	ResultID uint `gorm:"column:result_id;primaryKey;autoIncrement" json:"result_id"`

	ResultMarathonID uint            `gorm:"column:result_marathon_id;not null;index" json:"result_marathon_id"`
	ResultBibNumber  *string         `gorm:"column:result_bib_number;size:50" json:"result_bib_number"`
	ResultName       *string         `gorm:"column:result_name;size:255" json:"result_name"`
	ResultGender     *string         `gorm:"column:result_gender;size:10" json:"result_gender"`
	ResultRaceTime   *string         `gorm:"column:result_race_time;size:50" json:"result_race_time"`
	ResultCategory   *string         `gorm:"column:result_category;size:16" json:"result_category"`
	ResultPosition   *ResultPosition `gorm:"column:result_position;size:10" json:"result_position"`
	ResultImage      *string         `gorm:"column:result_image;size:255" json:"result_image"`

	ResultCreatedAt time.Time `gorm:"column:result_created_at;autoCreateTime" json:"result_created_at"`
	ResultUpdatedAt time.Time `gorm:"column:result_updated_at;autoUpdateTime" json:"result_updated_at"`

	Marathon *marathonModel.MarathonModel `gorm:"foreignKey:ResultMarathonID;references:MarathonID;constraint:OnDelete:CASCADE" json:"marathon,omitempty"`
}

func (ResultModel) TableName() string { return "results" }
