package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	authModel "marathon_backend/internals/features/users/auth/model"
)

/* ====================== USER ====================== */

func FindUserByMobile(ctx context.Context, db *gorm.DB, mobile string) (*authModel.UserModel, error) {
	var user authModel.UserModel
	if err := db.WithContext(ctx).Where("user_mobile_number = ?", mobile).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByID(ctx context.Context, db *gorm.DB, id uint) (*authModel.UserModel, error) {
	var user authModel.UserModel
	if err := db.WithContext(ctx).First(&user, "user_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FirstOrCreateByMobile inserts the user if missing; concurrent callers converge on one row.
func FirstOrCreateByMobile(ctx context.Context, db *gorm.DB, mobile string) (*authModel.UserModel, error) {
	u := authModel.UserModel{UserMobileNumber: mobile, UserRole: "user"}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_mobile_number"}}, DoNothing: true}).
		Create(&u).Error; err != nil {
		return nil, err
	}
	return FindUserByMobile(ctx, db, mobile)
}

func SaveOTP(ctx context.Context, db *gorm.DB, userID uint, hash string, sentAt time.Time) error {
	return db.WithContext(ctx).Model(&authModel.UserModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"user_otp_hash":     hash,
			"user_otp_sent_at":  sentAt,
			"user_otp_attempts": 0,
		}).Error
}

func IncrementOTPAttempts(ctx context.Context, db *gorm.DB, userID uint) error {
	return db.WithContext(ctx).Model(&authModel.UserModel{}).
		Where("user_id = ?", userID).
		UpdateColumn("user_otp_attempts", gorm.Expr("user_otp_attempts + 1")).Error
}

func MarkVerified(ctx context.Context, db *gorm.DB, userID uint, at time.Time) error {
	return db.WithContext(ctx).Model(&authModel.UserModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"user_otp_hash":      nil,
			"user_otp_sent_at":   nil,
			"user_otp_attempts":  0,
			"user_is_verified":   true,
			"user_last_login_at": at,
		}).Error
}

/* ====================== TOKEN BLACKLIST ====================== */

func BlacklistToken(ctx context.Context, db *gorm.DB, token string, expiredAt time.Time) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&authModel.TokenBlacklist{Token: token, ExpiredAt: expiredAt}).Error
}

func IsTokenBlacklisted(ctx context.Context, db *gorm.DB, token string) (bool, error) {
	var existing authModel.TokenBlacklist
	err := db.WithContext(ctx).Select("id").Where("token = ?", token).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PurgeBlacklist hard-deletes up to limit entries that expired before cutoff.
func PurgeBlacklist(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) (int64, error) {
	res := db.WithContext(ctx).Unscoped().
		Where("id IN (?)", db.Model(&authModel.TokenBlacklist{}).Unscoped().
			Select("id").Where("expired_at < ?", cutoff).Limit(limit)).
		Delete(&authModel.TokenBlacklist{})
	return res.RowsAffected, res.Error
}
