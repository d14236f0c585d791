package dto

type SendOTPRequest struct {
	MobileNumber string `json:"mobileNumber" validate:"required,len=10,numeric"`
}

type VerifyOTPRequest struct {
	MobileNumber string `json:"mobileNumber" validate:"required,len=10,numeric"`
	OTP          string `json:"otp" validate:"required,len=6,numeric"`
}

type AdminLoginRequest struct {
	MobileNumber string `json:"mobileNumber" validate:"required"`
	Password     string `json:"password" validate:"required"`
}
