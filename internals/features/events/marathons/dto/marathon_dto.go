package dto

import (
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/datatypes"

	model "marathon_backend/internals/features/events/marathons/model"
	helper "marathon_backend/internals/helpers"
)

type PriceItem struct {
	Category string `json:"category" validate:"required"`
	Amount   string `json:"amount" validate:"required"`
}

type CreateMarathonRequest struct {
	Name                string      `json:"name" validate:"required,max=255"`
	TrackLength         *string     `json:"track_length" validate:"omitempty,max=50"`
	Date                *string     `json:"date" validate:"omitempty,datetime=2006-01-02"`
	ReportingTime       *string     `json:"reporting_time" validate:"omitempty,max=8"`
	RunStartTime        *string     `json:"run_start_time" validate:"omitempty,max=8"`
	Location            *string     `json:"location" validate:"omitempty,max=255"`
	TermsConditions     *string     `json:"terms_conditions"`
	HowToApply          *string     `json:"how_to_apply"`
	EligibilityCriteria *string     `json:"eligibility_criteria"`
	RulesRegulations    *string     `json:"rules_regulations"`
	RunnerAmenities     *string     `json:"runner_amenities"`
	RouteMap            *string     `json:"route_map" validate:"omitempty,max=255"`
	PriceList           []PriceItem `json:"price_list" validate:"omitempty,dive"`
	FeesAmount          float64     `json:"fees_amount" validate:"gte=0"`
}

func (r *CreateMarathonRequest) ToModel() (*model.MarathonModel, error) {
	m := &model.MarathonModel{
		MarathonName:                r.Name,
		MarathonTrackLength:         r.TrackLength,
		MarathonReportingAt:         r.ReportingTime,
		MarathonRunStartAt:          r.RunStartTime,
		MarathonLocation:            r.Location,
		MarathonTermsConditions:     r.TermsConditions,
		MarathonHowToApply:          r.HowToApply,
		MarathonEligibilityCriteria: r.EligibilityCriteria,
		MarathonRulesRegulations:    r.RulesRegulations,
		MarathonRunnerAmenities:     r.RunnerAmenities,
		MarathonRouteMap:            r.RouteMap,
		MarathonFeesAmountMinor:     helper.ToMinor(r.FeesAmount),
	}
	if r.Date != nil && *r.Date != "" {
		d, err := time.Parse("2006-01-02", *r.Date)
		if err != nil {
			return nil, helper.Validation("date must be YYYY-MM-DD")
		}
		m.MarathonDate = &d
	}
	if len(r.PriceList) > 0 {
		raw, err := sonic.Marshal(r.PriceList)
		if err != nil {
			return nil, err
		}
		m.MarathonPriceList = datatypes.JSON(raw)
	}
	return m, nil
}

// UpdateMarathonRequest: nil fields are left unchanged.
type UpdateMarathonRequest struct {
	Name                *string     `json:"name" validate:"omitempty,max=255"`
	TrackLength         *string     `json:"track_length" validate:"omitempty,max=50"`
	Date                *string     `json:"date" validate:"omitempty,datetime=2006-01-02"`
	ReportingTime       *string     `json:"reporting_time" validate:"omitempty,max=8"`
	RunStartTime        *string     `json:"run_start_time" validate:"omitempty,max=8"`
	Location            *string     `json:"location" validate:"omitempty,max=255"`
	TermsConditions     *string     `json:"terms_conditions"`
	HowToApply          *string     `json:"how_to_apply"`
	EligibilityCriteria *string     `json:"eligibility_criteria"`
	RulesRegulations    *string     `json:"rules_regulations"`
	RunnerAmenities     *string     `json:"runner_amenities"`
	RouteMap            *string     `json:"route_map" validate:"omitempty,max=255"`
	PriceList           []PriceItem `json:"price_list" validate:"omitempty,dive"`
	FeesAmount          *float64    `json:"fees_amount" validate:"omitempty,gte=0"`
}

func (r *UpdateMarathonRequest) Updates() (map[string]any, error) {
	u := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			u[col] = *v
		}
	}
	set("marathon_name", r.Name)
	set("marathon_track_length", r.TrackLength)
	set("marathon_reporting_time", r.ReportingTime)
	set("marathon_run_start_time", r.RunStartTime)
	set("marathon_location", r.Location)
	set("marathon_terms_conditions", r.TermsConditions)
	set("marathon_how_to_apply", r.HowToApply)
	set("marathon_eligibility_criteria", r.EligibilityCriteria)
	set("marathon_rules_regulations", r.RulesRegulations)
	set("marathon_runner_amenities", r.RunnerAmenities)
	set("marathon_route_map", r.RouteMap)
	if r.Date != nil {
		d, err := time.Parse("2006-01-02", *r.Date)
		if err != nil {
			return nil, helper.Validation("date must be YYYY-MM-DD")
		}
		u["marathon_date"] = d
	}
	if r.PriceList != nil {
		raw, err := sonic.Marshal(r.PriceList)
		if err != nil {
			return nil, err
		}
		u["marathon_price_list"] = datatypes.JSON(raw)
	}
	if r.FeesAmount != nil {
		u["marathon_fees_amount_minor"] = helper.ToMinor(*r.FeesAmount)
	}
	return u, nil
}

type MarathonResponse struct {
	*model.MarathonModel
	FeesAmount string `json:"fees_amount"`
}

func FromModel(m *model.MarathonModel) MarathonResponse {
	return MarathonResponse{MarathonModel: m, FeesAmount: helper.FormatMinor(m.MarathonFeesAmountMinor)}
}
