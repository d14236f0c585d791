package model

type MarathonType string

const (
	MarathonTypeOpen    MarathonType = "Open"
	MarathonTypeDefence MarathonType = "Defence"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

type TshirtSize string

const (
	TshirtXS  TshirtSize = "XS"
	TshirtS   TshirtSize = "S"
	TshirtM   TshirtSize = "M"
	TshirtL   TshirtSize = "L"
	TshirtXL  TshirtSize = "XL"
	TshirtXXL TshirtSize = "XXL"
)

var TshirtSizes = []TshirtSize{TshirtXS, TshirtS, TshirtM, TshirtL, TshirtXL, TshirtXXL}
