package dto

import (
	model "marathon_backend/internals/features/events/results/model"
)

type ResultRequest struct {
	MarathonID uint    `json:"marathonId" validate:"required,gt=0"`
	BibNumber  *string `json:"bibNumber" validate:"omitempty,max=50"`
	Name       *string `json:"name" validate:"omitempty,max=255"`
	Gender     *string `json:"gender" validate:"omitempty,oneof=Male Female"`
	RaceTime   *string `json:"raceTime" validate:"omitempty,max=50"`
	Category   *string `json:"category" validate:"omitempty,oneof=Open Defence"`
	Position   *string `json:"position" validate:"omitempty,oneof=First Second Third"`
}

func (r ResultRequest) ToModel() *model.ResultModel {
	m := &model.ResultModel{
		ResultMarathonID: r.MarathonID,
		ResultBibNumber:  r.BibNumber,
		ResultName:       r.Name,
		ResultGender:     r.Gender,
		ResultRaceTime:   r.RaceTime,
		ResultCategory:   r.Category,
	}
	if r.Position != nil {
		p := model.ResultPosition(*r.Position)
		m.ResultPosition = &p
	}
	return m
}

type BulkResultRequest struct {
	Results []ResultRequest `json:"results" validate:"required,min=1,max=500,dive"`
}

type UpdateResultRequest struct {
	BibNumber *string `json:"bibNumber" validate:"omitempty,max=50"`
	Name      *string `json:"name" validate:"omitempty,max=255"`
	Gender    *string `json:"gender" validate:"omitempty,oneof=Male Female"`
	RaceTime  *string `json:"raceTime" validate:"omitempty,max=50"`
	Category  *string `json:"category" validate:"omitempty,oneof=Open Defence"`
	Position  *string `json:"position" validate:"omitempty,oneof=First Second Third"`
}

func (r UpdateResultRequest) Updates() map[string]any {
	u := map[string]any{}
	for col, v := range map[string]*string{
		"result_bib_number": r.BibNumber,
		"result_name":       r.Name,
		"result_gender":     r.Gender,
		"result_race_time":  r.RaceTime,
		"result_category":   r.Category,
		"result_position":   r.Position,
	} {
		if v != nil {
			u[col] = *v
		}
	}
	return u
}
