package persistence

import (
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tourneyarena/arena-auth/domain"
	"github.com/tourneyarena/arena-auth/identity"
)

func init() {
	Register("sqlite", sqlite.Open)
	Register("postgres", postgres.Open)
	Register("mysql", mysql.Open)
}

// Repository is the gorm-backed implementation of domain.Storage. All
// read-modify-write cycles run inside transactions so concurrent requests
// for the same email cannot interleave.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *gorm.DB { return r.db }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&identity.Account{},
		&identity.OTPRecord{},
	)
}

func (r *Repository) CreateAccount(a *identity.Account) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&identity.Account{}).Where("email = ?", a.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrDuplicateEmail
		}
		return tx.Create(a).Error
	})
}

func (r *Repository) GetAccountByEmail(email string) (*identity.Account, error) {
	var a identity.Account
	err := r.db.First(&a, "email = ?", identity.NormalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) GetAccountByID(id string) (*identity.Account, error) {
	var a identity.Account
	err := r.db.First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) ListAccounts() ([]identity.Account, error) {
	var accounts []identity.Account
	if err := r.db.Order("created_at").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *Repository) ListProfileIDs() (map[string]struct{}, error) {
	var ids []string
	if err := r.db.Model(&identity.Account{}).Pluck("profile_id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (r *Repository) DeleteAccount(id string) error {
	return r.db.Delete(&identity.Account{}, "id = ?", id).Error
}

func (r *Repository) ReplaceOTP(rec *identity.OTPRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&identity.OTPRecord{}, "email = ?", rec.Email).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
}

func (r *Repository) ConsumeOTP(email, code string, now time.Time) (bool, error) {
	consumed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var rec identity.OTPRecord
		err := tx.First(&rec, "email = ?", identity.NormalizeEmail(email)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if rec.Code != code || !rec.ExpiresAt.After(now) {
			return nil
		}
		if err := tx.Delete(&identity.OTPRecord{}, "email = ?", rec.Email).Error; err != nil {
			return err
		}
		consumed = true
		return nil
	})
	return consumed, err
}
