package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/gymdesk/domain"
)

// DBOTP is the persisted passcode record.
type DBOTP struct {
	ID         uint      `gorm:"primaryKey"`
	Identifier string    `gorm:"index:idx_otps_identifier_verified;size:255;not null"`
	CodeHash   string    `gorm:"size:100;not null"`
	IsVerified bool      `gorm:"index:idx_otps_identifier_verified;not null;default:false"`
	Attempts   int       `gorm:"not null;default:0"`
	ExpiresAt  time.Time `gorm:"not null"`
	CreatedAt  time.Time
}

func (DBOTP) TableName() string { return "otps" }

// OTPRepositoryImpl implements domain.OTPRepository using GORM
type OTPRepositoryImpl struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) domain.OTPRepository {
	return &OTPRepositoryImpl{db: db}
}

func (r *OTPRepositoryImpl) Create(ctx context.Context, otp *domain.OTP) error {
	row := &DBOTP{
		Identifier: otp.Identifier,
		CodeHash:   otp.CodeHash,
		IsVerified: otp.IsVerified,
		Attempts:   otp.Attempts,
		ExpiresAt:  otp.ExpiresAt,
		CreatedAt:  otp.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	otp.ID = row.ID
	otp.CreatedAt = row.CreatedAt
	return nil
}

func (r *OTPRepositoryImpl) FindLatestUnverified(ctx context.Context, identifier string) (*domain.OTP, error) {
	var row DBOTP
	err := r.db.WithContext(ctx).
		Where("identifier = ? AND is_verified = ?", identifier, false).
		Order("created_at DESC").Order("id DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOTPNotFound
		}
		return nil, err
	}
	return &domain.OTP{
		ID:         row.ID,
		Identifier: row.Identifier,
		CodeHash:   row.CodeHash,
		IsVerified: row.IsVerified,
		Attempts:   row.Attempts,
		ExpiresAt:  row.ExpiresAt,
		CreatedAt:  row.CreatedAt,
	}, nil
}

func (r *OTPRepositoryImpl) DeleteUnverified(ctx context.Context, identifier string) error {
	return r.db.WithContext(ctx).
		Where("identifier = ? AND is_verified = ?", identifier, false).
		Delete(&DBOTP{}).Error
}

// Update persists the mutable fields: verified flag and attempt counter.
func (r *OTPRepositoryImpl) Update(ctx context.Context, otp *domain.OTP) error {
	res := r.db.WithContext(ctx).Model(&DBOTP{}).Where("id = ?", otp.ID).
		Updates(map[string]interface{}{"is_verified": otp.IsVerified, "attempts": otp.Attempts})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrOTPNotFound
	}
	return nil
}
