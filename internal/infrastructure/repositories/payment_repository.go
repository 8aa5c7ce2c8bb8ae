package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/gymdesk/domain"
)

// DBPayment is the persisted payment record. Dates are stored in UTC.
type DBPayment struct {
	ID                   uint      `gorm:"primaryKey"`
	PaymentID            string    `gorm:"uniqueIndex;size:64;not null"`
	UserID               uint      `gorm:"index;not null"`
	SuperUserID          *uint     `gorm:"index"`
	Amount               float64   `gorm:"not null"`
	Date                 time.Time `gorm:"index;not null"`
	PackageType          string    `gorm:"index;size:16;not null"`
	SessionCount         int       `gorm:"not null"`
	PaymentMethod        string    `gorm:"size:16;not null;default:cash"`
	PaymentStatus        string    `gorm:"index;size:16;not null;default:pending"`
	TransactionReference string    `gorm:"size:255"`
	Currency             string    `gorm:"size:3;not null;default:INR"`
	GST                  float64   `gorm:"not null;default:0"`
	Discount             float64   `gorm:"not null;default:0"`
	FinalAmount          float64   `gorm:"not null"`
	Notes                string    `gorm:"type:text"`
	InvoiceNumber        *string   `gorm:"uniqueIndex;size:32"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (DBPayment) TableName() string { return "payments" }

// PaymentRepositoryImpl implements domain.PaymentRepository using GORM
type PaymentRepositoryImpl struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domain.PaymentRepository {
	return &PaymentRepositoryImpl{db: db}
}

// Create implements domain.PaymentRepository
func (r *PaymentRepositoryImpl) Create(ctx context.Context, payment *domain.Payment) error {
	row := paymentToDB(payment)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	payment.ID = row.ID
	payment.CreatedAt = row.CreatedAt
	payment.UpdatedAt = row.UpdatedAt
	return nil
}

// FindByID implements domain.PaymentRepository
func (r *PaymentRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Payment, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByPaymentID implements domain.PaymentRepository
func (r *PaymentRepositoryImpl) FindByPaymentID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return r.findOne(ctx, "payment_id = ?", paymentID)
}

func (r *PaymentRepositoryImpl) findOne(ctx context.Context, query string, arg interface{}) (*domain.Payment, error) {
	var row DBPayment
	if err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return paymentToDomain(&row), nil
}

// List implements domain.PaymentRepository. Newest payments come first.
func (r *PaymentRepositoryImpl) List(ctx context.Context, f domain.PaymentFilter) ([]*domain.Payment, error) {
	q := r.db.WithContext(ctx).Model(&DBPayment{})
	if f.Status != "" {
		q = q.Where("payment_status = ?", string(f.Status))
	}
	if f.PackageType != "" {
		q = q.Where("package_type = ?", string(f.PackageType))
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.SuperUserID != nil {
		q = q.Where("super_user_id = ?", *f.SuperUserID)
	}
	q = dateRange(q, f.From, f.To)

	var rows []DBPayment
	if err := q.Order("date DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Payment, 0, len(rows))
	for i := range rows {
		out = append(out, paymentToDomain(&rows[i]))
	}
	return out, nil
}

// Update implements domain.PaymentRepository
func (r *PaymentRepositoryImpl) Update(ctx context.Context, payment *domain.Payment) error {
	row := paymentToDB(payment)
	res := r.db.WithContext(ctx).Model(&DBPayment{}).Where("id = ?", row.ID).
		Select("*").Omit("id", "created_at").Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrPaymentNotFound
	}
	payment.UpdatedAt = row.UpdatedAt
	return nil
}

// Delete implements domain.PaymentRepository
func (r *PaymentRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&DBPayment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

type statusRow struct {
	PaymentStatus string
	Count         int64
	Amount        float64
}

type packageRow struct {
	PackageType   string
	Count         int64
	Amount        float64
	TotalSessions int64
}

// Statistics implements domain.PaymentRepository. Revenue and package totals
// only count completed payments.
func (r *PaymentRepositoryImpl) Statistics(ctx context.Context, from, to *time.Time) (*domain.PaymentStatistics, error) {
	base := func() *gorm.DB {
		return dateRange(r.db.WithContext(ctx).Model(&DBPayment{}), from, to)
	}

	stats := &domain.PaymentStatistics{ByStatus: []domain.StatusTotal{}, ByPackage: []domain.PackageTotal{}}

	var revenue struct{ Total float64 }
	if err := base().Select("COALESCE(SUM(final_amount), 0) AS total").
		Where("payment_status = ?", string(domain.PaymentCompleted)).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	stats.TotalRevenue = revenue.Total

	var byStatus []statusRow
	if err := base().Select("payment_status, COUNT(*) AS count, COALESCE(SUM(final_amount), 0) AS amount").
		Group("payment_status").Order("payment_status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, s := range byStatus {
		stats.ByStatus = append(stats.ByStatus, domain.StatusTotal{
			Status: domain.PaymentStatus(s.PaymentStatus), Count: s.Count, Amount: s.Amount,
		})
	}

	var byPackage []packageRow
	if err := base().Select("package_type, COUNT(*) AS count, COALESCE(SUM(final_amount), 0) AS amount, COALESCE(SUM(session_count), 0) AS total_sessions").
		Where("payment_status = ?", string(domain.PaymentCompleted)).
		Group("package_type").Order("package_type").
		Scan(&byPackage).Error; err != nil {
		return nil, err
	}
	for _, p := range byPackage {
		stats.ByPackage = append(stats.ByPackage, domain.PackageTotal{
			PackageType: domain.PackageType(p.PackageType), Count: p.Count,
			Amount: p.Amount, TotalSessions: p.TotalSessions,
		})
	}
	return stats, nil
}

func dateRange(q *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where("date >= ?", from.UTC())
	}
	if to != nil {
		q = q.Where("date <= ?", to.UTC())
	}
	return q
}

func paymentToDB(p *domain.Payment) *DBPayment {
	return &DBPayment{
		ID:                   p.ID,
		PaymentID:            p.PaymentID,
		UserID:               p.UserID,
		SuperUserID:          p.SuperUserID,
		Amount:               p.Amount,
		Date:                 p.Date.UTC(),
		PackageType:          string(p.PackageType),
		SessionCount:         p.SessionCount,
		PaymentMethod:        string(p.PaymentMethod),
		PaymentStatus:        string(p.PaymentStatus),
		TransactionReference: p.TransactionReference,
		Currency:             p.Currency,
		GST:                  p.GST,
		Discount:             p.Discount,
		FinalAmount:          p.FinalAmount,
		Notes:                p.Notes,
		InvoiceNumber:        nullable(p.InvoiceNumber),
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func paymentToDomain(row *DBPayment) *domain.Payment {
	return &domain.Payment{
		ID:                   row.ID,
		PaymentID:            row.PaymentID,
		UserID:               row.UserID,
		SuperUserID:          row.SuperUserID,
		Amount:               row.Amount,
		Date:                 row.Date.UTC(),
		PackageType:          domain.PackageType(row.PackageType),
		SessionCount:         row.SessionCount,
		PaymentMethod:        domain.PaymentMethod(row.PaymentMethod),
		PaymentStatus:        domain.PaymentStatus(row.PaymentStatus),
		TransactionReference: row.TransactionReference,
		Currency:             row.Currency,
		GST:                  row.GST,
		Discount:             row.Discount,
		FinalAmount:          row.FinalAmount,
		Notes:                row.Notes,
		InvoiceNumber:        deref(row.InvoiceNumber),
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}
