package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/gymdesk/domain"
)

// DBSession is the persisted training session.
type DBSession struct {
	ID           uint   `gorm:"primaryKey"`
	SessionID    string `gorm:"uniqueIndex;size:64;not null"`
	PersonCount  int    `gorm:"not null"`
	StartingTime string `gorm:"size:8;not null"`
	EndTime      string `gorm:"size:8"`
	Date         string `gorm:"index;size:10;not null"`
	Status       string `gorm:"index;size:16;not null;default:scheduled"`
	TrainerID    *uint  `gorm:"index"`
	Notes        string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (DBSession) TableName() string { return "sessions" }

// DBSessionParticipant keeps participant order for a session.
type DBSessionParticipant struct {
	ID           uint `gorm:"primaryKey"`
	SessionRefID uint `gorm:"uniqueIndex:idx_participant_session_user;not null"`
	UserID       uint `gorm:"uniqueIndex:idx_participant_session_user;index;not null"`
	Position     int  `gorm:"not null"`
}

func (DBSessionParticipant) TableName() string { return "session_participants" }

// SessionRepositoryImpl implements domain.SessionRepository using GORM
type SessionRepositoryImpl struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) domain.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

// Create implements domain.SessionRepository
func (r *SessionRepositoryImpl) Create(ctx context.Context, session *domain.Session) error {
	row := sessionToDB(session)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		if err := writeParticipants(tx, row.ID, session.Users); err != nil {
			return err
		}
		session.ID = row.ID
		session.CreatedAt = row.CreatedAt
		session.UpdatedAt = row.UpdatedAt
		return nil
	})
}

// FindByID implements domain.SessionRepository
func (r *SessionRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Session, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindBySessionID implements domain.SessionRepository
func (r *SessionRepositoryImpl) FindBySessionID(ctx context.Context, sessionID string) (*domain.Session, error) {
	return r.findOne(ctx, "session_id = ?", sessionID)
}

func (r *SessionRepositoryImpl) findOne(ctx context.Context, query string, arg interface{}) (*domain.Session, error) {
	var row DBSession
	if err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	sessions, err := r.attachParticipants(ctx, []DBSession{row})
	if err != nil {
		return nil, err
	}
	return sessions[0], nil
}

// List implements domain.SessionRepository. Results are ordered by date
// then starting time.
func (r *SessionRepositoryImpl) List(ctx context.Context, f domain.SessionFilter) ([]*domain.Session, error) {
	q := r.db.WithContext(ctx).Model(&DBSession{})
	if f.Date != "" {
		q = q.Where("date = ?", f.Date)
	}
	if f.FromDate != "" {
		q = q.Where("date >= ?", f.FromDate)
	}
	if f.ToDate != "" {
		q = q.Where("date <= ?", f.ToDate)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}
	if f.TrainerID != nil {
		q = q.Where("trainer_id = ?", *f.TrainerID)
	}
	if f.UserID != nil {
		sub := r.db.Model(&DBSessionParticipant{}).Select("session_ref_id").Where("user_id = ?", *f.UserID)
		q = q.Where("id IN (?)", sub)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []DBSession
	if err := q.Order("date ASC").Order("starting_time ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.attachParticipants(ctx, rows)
}

// Update implements domain.SessionRepository. Participants are rewritten
// together with the session row.
func (r *SessionRepositoryImpl) Update(ctx context.Context, session *domain.Session) error {
	row := sessionToDB(session)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&DBSession{}).Where("id = ?", row.ID).Select("*").Omit("id", "created_at").Updates(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrSessionNotFound
		}
		if err := tx.Where("session_ref_id = ?", row.ID).Delete(&DBSessionParticipant{}).Error; err != nil {
			return err
		}
		if err := writeParticipants(tx, row.ID, session.Users); err != nil {
			return err
		}
		session.UpdatedAt = row.UpdatedAt
		return nil
	})
}

// Delete implements domain.SessionRepository
func (r *SessionRepositoryImpl) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&DBSession{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrSessionNotFound
		}
		return tx.Where("session_ref_id = ?", id).Delete(&DBSessionParticipant{}).Error
	})
}

func writeParticipants(tx *gorm.DB, sessionRef uint, users []uint) error {
	if len(users) == 0 {
		return nil
	}
	rows := make([]DBSessionParticipant, len(users))
	for i, uid := range users {
		rows[i] = DBSessionParticipant{SessionRefID: sessionRef, UserID: uid, Position: i}
	}
	return tx.Create(&rows).Error
}

func (r *SessionRepositoryImpl) attachParticipants(ctx context.Context, rows []DBSession) ([]*domain.Session, error) {
	out := make([]*domain.Session, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uint, len(rows))
	byID := make(map[uint]*domain.Session, len(rows))
	for i := range rows {
		s := sessionToDomain(&rows[i])
		out[i] = s
		ids[i] = s.ID
		byID[s.ID] = s
	}

	var parts []DBSessionParticipant
	if err := r.db.WithContext(ctx).Where("session_ref_id IN ?", ids).
		Order("session_ref_id").Order("position").Find(&parts).Error; err != nil {
		return nil, err
	}
	for _, p := range parts {
		s := byID[p.SessionRefID]
		s.Users = append(s.Users, p.UserID)
	}
	return out, nil
}

func sessionToDB(s *domain.Session) *DBSession {
	return &DBSession{
		ID:           s.ID,
		SessionID:    s.SessionID,
		PersonCount:  s.PersonCount,
		StartingTime: s.StartingTime,
		EndTime:      s.EndTime,
		Date:         s.Date,
		Status:       string(s.Status),
		TrainerID:    s.TrainerID,
		Notes:        s.Notes,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func sessionToDomain(row *DBSession) *domain.Session {
	return &domain.Session{
		ID:           row.ID,
		SessionID:    row.SessionID,
		PersonCount:  row.PersonCount,
		StartingTime: row.StartingTime,
		EndTime:      row.EndTime,
		Date:         row.Date,
		Users:        []uint{},
		Status:       domain.SessionStatus(row.Status),
		TrainerID:    row.TrainerID,
		Notes:        row.Notes,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
