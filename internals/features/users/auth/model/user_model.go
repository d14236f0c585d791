package model

import "time"

// users = accounts identified by mobile number; login is by one-time code.
type UserModel struct {
	UserID uint `gorm:"column:user_id;primaryKey;autoIncrement" json:"user_id"`

	UserMobileNumber string  `gorm:"column:user_mobile_number;size:15;not null;uniqueIndex:uq_users_mobile" json:"mobile_number"`
	UserName         *string `gorm:"column:user_name;size:255" json:"name"`
	UserRole         string  `gorm:"column:user_role;size:16;not null;default:user" json:"role"`

	UserOTPHash     *string    `gorm:"column:user_otp_hash;size:100" json:"-"`
	UserOTPSentAt   *time.Time `gorm:"column:user_otp_sent_at" json:"-"`
	UserOTPAttempts int        `gorm:"column:user_otp_attempts;not null;default:0" json:"-"`
	UserIsVerified  bool       `gorm:"column:user_is_verified;not null;default:false" json:"is_verified"`
	UserLastLoginAt *time.Time `gorm:"column:user_last_login_at" json:"last_login_at"`

	UserCreatedAt time.Time `gorm:"column:user_created_at;autoCreateTime" json:"created_at"`
	UserUpdatedAt time.Time `gorm:"column:user_updated_at;autoUpdateTime" json:"updated_at"`
}

func (UserModel) TableName() string { return "users" }
