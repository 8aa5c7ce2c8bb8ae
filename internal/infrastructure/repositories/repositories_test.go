package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/gymdesk/domain"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// every pooled connection would otherwise get its own empty database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

// setupTestRedis creates an in-memory Redis instance for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func createUser(t *testing.T, repo domain.UserRepository, u *domain.User) *domain.User {
	t.Helper()
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(setupTestDB(t))

	chest := 96.5
	email := createUser(t, repo, &domain.User{Email: "ana@example.com", Name: "ana", Role: domain.RoleMember,
		Measurements: domain.Measurements{Chest: &chest}})
	phone := createUser(t, repo, &domain.User{Phone: "9876543210", Name: "User_3210"})

	t.Run("find by email", func(t *testing.T) {
		got, err := repo.FindByEmail(ctx, "ana@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != email.ID || got.Measurements.Chest == nil || *got.Measurements.Chest != 96.5 {
			t.Errorf("unexpected user: %+v", got)
		}
	})

	t.Run("find by phone defaults role", func(t *testing.T) {
		got, err := repo.FindByPhone(ctx, "9876543210")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Role != domain.RoleMember || got.Email != "" {
			t.Errorf("unexpected user: %+v", got)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := repo.FindByID(ctx, 999); !errors.Is(err, domain.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("two users without email", func(t *testing.T) {
		createUser(t, repo, &domain.User{Phone: "9123456789"})
	})

	t.Run("find missing", func(t *testing.T) {
		missing, err := repo.FindMissing(ctx, []uint{email.ID, 404, phone.ID, 405})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(missing) != 2 || missing[0] != 404 || missing[1] != 405 {
			t.Errorf("expected [404 405], got %v", missing)
		}
	})

	t.Run("update role and bca", func(t *testing.T) {
		age := 31
		phone.Role = domain.RoleTrainer
		phone.BCA.BodyAge = &age
		if err := repo.Update(ctx, phone); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, _ := repo.FindByID(ctx, phone.ID)
		if got.Role != domain.RoleTrainer || got.BCA.BodyAge == nil || *got.BCA.BodyAge != 31 {
			t.Errorf("update not persisted: %+v", got)
		}
	})

	t.Run("list", func(t *testing.T) {
		users, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(users) != 3 {
			t.Errorf("expected 3 users, got %d", len(users))
		}
	})
}

func TestOTPRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOTPRepository(setupTestDB(t))
	now := time.Now().UTC()

	if _, err := repo.FindLatestUnverified(ctx, "a@b.co"); !errors.Is(err, domain.ErrOTPNotFound) {
		t.Fatalf("expected ErrOTPNotFound, got %v", err)
	}

	older := &domain.OTP{Identifier: "a@b.co", CodeHash: "h1", ExpiresAt: now.Add(time.Minute), CreatedAt: now.Add(-time.Minute)}
	newer := &domain.OTP{Identifier: "a@b.co", CodeHash: "h2", ExpiresAt: now.Add(10 * time.Minute), CreatedAt: now}
	for _, o := range []*domain.OTP{older, newer} {
		if err := repo.Create(ctx, o); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := repo.FindLatestUnverified(ctx, "a@b.co")
	if err != nil || got.CodeHash != "h2" {
		t.Fatalf("expected newest record, got %+v, %v", got, err)
	}

	got.Attempts = 2
	got.IsVerified = true
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = repo.FindLatestUnverified(ctx, "a@b.co")
	if err != nil || got.CodeHash != "h1" {
		t.Fatalf("verified record should be skipped, got %+v, %v", got, err)
	}

	if err := repo.DeleteUnverified(ctx, "a@b.co"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindLatestUnverified(ctx, "a@b.co"); !errors.Is(err, domain.ErrOTPNotFound) {
		t.Errorf("expected ErrOTPNotFound after delete, got %v", err)
	}
	if err := repo.Update(ctx, &domain.OTP{ID: 999}); !errors.Is(err, domain.ErrOTPNotFound) {
		t.Errorf("expected ErrOTPNotFound for unknown id, got %v", err)
	}
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(setupTestDB(t))
	trainer := uint(7)

	mk := func(id, date, start string, status domain.SessionStatus, users ...uint) *domain.Session {
		s := &domain.Session{SessionID: id, PersonCount: 2, StartingTime: start, EndTime: "23:00",
			Date: date, Status: status, Users: users, TrainerID: &trainer}
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
		return s
	}
	late := mk("S_late", "2026-03-02", "18:00", domain.SessionScheduled, 3, 1)
	mk("S_early", "2026-03-02", "07:00", domain.SessionInProgress, 2)
	mk("S_old", "2026-02-01", "09:00", domain.SessionCompleted)

	t.Run("participants keep order", func(t *testing.T) {
		got, err := repo.FindBySessionID(ctx, "S_late")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.Users) != 2 || got.Users[0] != 3 || got.Users[1] != 1 {
			t.Errorf("expected [3 1], got %v", got.Users)
		}
	})

	t.Run("list ordered by date and time", func(t *testing.T) {
		all, err := repo.List(ctx, domain.SessionFilter{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"S_old", "S_early", "S_late"}
		if len(all) != len(want) {
			t.Fatalf("expected %d sessions, got %d", len(want), len(all))
		}
		for i, s := range all {
			if s.SessionID != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], s.SessionID)
			}
		}
	})

	tests := []struct {
		name   string
		filter domain.SessionFilter
		want   int
	}{
		{"by date", domain.SessionFilter{Date: "2026-03-02"}, 2},
		{"from date", domain.SessionFilter{FromDate: "2026-03-01"}, 2},
		{"to date", domain.SessionFilter{ToDate: "2026-02-28"}, 1},
		{"by status", domain.SessionFilter{Statuses: []domain.SessionStatus{domain.SessionScheduled, domain.SessionInProgress}}, 2},
		{"by participant", domain.SessionFilter{UserID: ptrUint(1)}, 1},
		{"by trainer", domain.SessionFilter{TrainerID: &trainer}, 3},
		{"limit", domain.SessionFilter{Limit: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d sessions, got %d", tt.want, len(got))
			}
		})
	}

	t.Run("update rewrites participants", func(t *testing.T) {
		late.Users = []uint{5}
		late.Status = domain.SessionCancelled
		if err := repo.Update(ctx, late); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, _ := repo.FindByID(ctx, late.ID)
		if got.Status != domain.SessionCancelled || len(got.Users) != 1 || got.Users[0] != 5 {
			t.Errorf("update not persisted: %+v", got)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete(ctx, late.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := repo.FindByID(ctx, late.ID); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
		if err := repo.Delete(ctx, late.ID); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound on second delete, got %v", err)
		}
	})
}

func TestPaymentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository(setupTestDB(t))
	jan := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	ref := uint(9)

	mk := func(id string, user uint, date time.Time, pkg domain.PackageType, sessions int, amount float64, status domain.PaymentStatus) *domain.Payment {
		p := &domain.Payment{PaymentID: id, UserID: user, Amount: amount, Date: date, PackageType: pkg,
			SessionCount: sessions, PaymentMethod: domain.MethodCash, PaymentStatus: status, Currency: "INR"}
		if user == 1 {
			p.SuperUserID = &ref
		}
		p.ComputeFinalAmount()
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
		return p
	}
	p1 := mk("PAY_1", 1, jan, domain.PackageBasic, 10, 1000, domain.PaymentCompleted)
	mk("PAY_2", 1, feb, domain.PackagePremium, 20, 3000, domain.PaymentCompleted)
	mk("PAY_3", 2, feb, domain.PackageBasic, 10, 500, domain.PaymentPending)

	t.Run("invoice numbers are unique but optional", func(t *testing.T) {
		p1.AssignInvoice()
		if err := repo.Update(ctx, p1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := repo.FindByPaymentID(ctx, "PAY_1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.InvoiceNumber != "INV202601000001" {
			t.Errorf("unexpected invoice %q", got.InvoiceNumber)
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		all, err := repo.List(ctx, domain.PaymentFilter{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(all) != 3 || all[0].PaymentID != "PAY_3" || all[2].PaymentID != "PAY_1" {
			t.Errorf("unexpected order: %v %v %v", all[0].PaymentID, all[1].PaymentID, all[2].PaymentID)
		}
	})

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	filters := []struct {
		name   string
		filter domain.PaymentFilter
		want   int
	}{
		{"by status", domain.PaymentFilter{Status: domain.PaymentPending}, 1},
		{"by package", domain.PaymentFilter{PackageType: domain.PackageBasic}, 2},
		{"by payer", domain.PaymentFilter{UserID: ptrUint(1)}, 2},
		{"by referrer", domain.PaymentFilter{SuperUserID: &ref}, 2},
		{"from date", domain.PaymentFilter{From: &from}, 2},
	}
	for _, tt := range filters {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d payments, got %d", tt.want, len(got))
			}
		})
	}

	t.Run("statistics", func(t *testing.T) {
		stats, err := repo.Statistics(ctx, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.TotalRevenue != 4000 {
			t.Errorf("expected revenue 4000, got %v", stats.TotalRevenue)
		}
		if len(stats.ByStatus) != 2 {
			t.Errorf("expected 2 status groups, got %+v", stats.ByStatus)
		}
		if len(stats.ByPackage) != 2 {
			t.Fatalf("expected 2 package groups, got %+v", stats.ByPackage)
		}
		basic := stats.ByPackage[0]
		if basic.PackageType != domain.PackageBasic || basic.Count != 1 || basic.TotalSessions != 10 {
			t.Errorf("unexpected basic totals: %+v", basic)
		}

		ranged, err := repo.Statistics(ctx, &from, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ranged.TotalRevenue != 3000 {
			t.Errorf("expected ranged revenue 3000, got %v", ranged.TotalRevenue)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete(ctx, p1.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := repo.FindByID(ctx, p1.ID); !errors.Is(err, domain.ErrPaymentNotFound) {
			t.Errorf("expected ErrPaymentNotFound, got %v", err)
		}
	})
}

func TestRefreshTokenStore(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	store := NewRefreshTokenStore(client)

	if err := store.Save(ctx, "jti-1", 42, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("refresh:jti-1"); ttl != time.Hour {
		t.Errorf("expected 1h ttl, got %v", ttl)
	}

	uid, err := store.Consume(ctx, "jti-1")
	if err != nil || uid != 42 {
		t.Fatalf("expected user 42, got %d, %v", uid, err)
	}
	if _, err := store.Consume(ctx, "jti-1"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("second consume should fail, got %v", err)
	}

	_ = store.Save(ctx, "jti-2", 7, time.Minute)
	if err := store.Revoke(ctx, "jti-2"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := store.Consume(ctx, "jti-2"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("revoked token should fail, got %v", err)
	}

	_ = store.Save(ctx, "jti-3", 7, time.Minute)
	mr.FastForward(2 * time.Minute)
	if _, err := store.Consume(ctx, "jti-3"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expired token should fail, got %v", err)
	}
}

func ptrUint(v uint) *uint { return &v }
