package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yoockh/hirelink/internal/models"
	"github.com/yoockh/hirelink/internal/utils"
)

type AccountRepository interface {
	Create(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateProfile(ctx context.Context, a *models.Account) error
}

type accountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) Create(ctx context.Context, a *models.Account) error {
	err := r.db.WithContext(ctx).Create(a).Error
	if isUniqueViolation(err) {
		return utils.ErrDuplicate
	}
	return err
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &a, err
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &a, err
}

// UpdateProfile writes the editable profile columns only.
func (r *accountRepo) UpdateProfile(ctx context.Context, a *models.Account) error {
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"name":       a.Name,
			"skills":     a.Skills,
			"age":        a.Age,
			"education":  a.Education,
			"resume_url": a.ResumeURL,
			"company":    a.Company,
			"updated_at": a.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
