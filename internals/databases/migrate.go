package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	marathonModel "marathon_backend/internals/features/events/marathons/model"
	participantModel "marathon_backend/internals/features/events/participants/model"
	resultModel "marathon_backend/internals/features/events/results/model"
	paymentModel "marathon_backend/internals/features/finance/payments/model"
	authModel "marathon_backend/internals/features/users/auth/model"
)

// order matters: referenced tables first
func models() []any {
	return []any{
		&authModel.UserModel{},
		&authModel.TokenBlacklist{},
		&marathonModel.MarathonModel{},
		&participantModel.ParticipantDetailsModel{},
		&participantModel.ParticipantModel{},
		&paymentModel.Payment{},
		&paymentModel.PaymentGatewayEvent{},
		&resultModel.ResultModel{},
	}
}

var extraIndexes = []string{
	// recycle scan: unpaid holders of a numeric bib that fits bigint
	`DROP INDEX IF EXISTS idx_participants_unpaid_bib`,
	`CREATE INDEX IF NOT EXISTS idx_participants_unpaid_numeric_bib
	   ON participants ((participant_bib_number::bigint))
	   WHERE participant_is_payment_completed = false
	     AND participant_bib_number ~ '^[0-9]+$'
	     AND length(participant_bib_number) <= 18`,
	`CREATE INDEX IF NOT EXISTS idx_payments_order_status
	   ON payments (payment_order_id, payment_status)`,
	`CREATE INDEX IF NOT EXISTS idx_results_listing
	   ON results (result_marathon_id, result_category, result_gender, result_position)`,
}

func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	for _, stmt := range extraIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	log.Info("✅ migrations applied", zap.Int("tables", len(models())))
	return nil
}
