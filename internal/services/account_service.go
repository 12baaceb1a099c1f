package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/hirelink/internal/matching"
	"github.com/yoockh/hirelink/internal/models"
	pgrepo "github.com/yoockh/hirelink/internal/repositories/postgres"
	"github.com/yoockh/hirelink/internal/utils"
)

type TokenIssuer interface {
	Issue(accountID string, role models.Role) (string, error)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Company  string
}

// ProfileInput carries an account's editable fields. Nil pointers keep the
// stored value; a non-nil empty Skills clears the skill set.
type ProfileInput struct {
	Name      *string
	Age       *int
	Education *string
	Skills    *string
	ResumeURL string
}

type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*models.Account, string, error)
	Login(ctx context.Context, email, password string) (*models.Account, string, error)
	Get(ctx context.Context, accountID string) (*models.Account, error)
	UpdateProfile(ctx context.Context, accountID string, in ProfileInput) (*models.Account, error)
}

type accountService struct {
	accounts pgrepo.AccountRepository
	tokens   TokenIssuer
	log      *logrus.Logger
}

func NewAccountService(accounts pgrepo.AccountRepository, tokens TokenIssuer, log *logrus.Logger) AccountService {
	return &accountService{accounts: accounts, tokens: tokens, log: log}
}

func (s *accountService) Register(ctx context.Context, in RegisterInput) (*models.Account, string, error) {
	const op = "AccountService.Register"

	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	company := strings.TrimSpace(in.Company)

	if name == "" || email == "" {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "name and email are required", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "invalid email", err)
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "role must be applicant or recruiter", err)
	}
	if role == models.RoleRecruiter && company == "" {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "company is required for recruiters", nil)
	}
	if role == models.RoleApplicant {
		company = ""
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "password must be at least 6 characters", err)
	}

	now := time.Now().UTC()
	acc := &models.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Company:      company,
		Skills:       []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, "", utils.E(utils.CodeConflict, op, "email already registered", err)
		}
		return nil, "", utils.E(utils.CodeInternal, op, "failed to create account", err)
	}

	token, err := s.tokens.Issue(acc.ID, acc.Role)
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}

	s.log.WithFields(logrus.Fields{"account_id": acc.ID, "role": acc.Role}).Info("account registered")
	return acc, token, nil
}

func (s *accountService) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	const op = "AccountService.Login"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "email and password are required", nil)
	}

	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, "", utils.E(utils.CodeUnauthorized, op, "invalid email or password", nil)
		}
		return nil, "", utils.E(utils.CodeInternal, op, "failed to load account", err)
	}
	if !utils.PasswordMatches(acc.PasswordHash, password) {
		return nil, "", utils.E(utils.CodeUnauthorized, op, "invalid email or password", nil)
	}

	token, err := s.tokens.Issue(acc.ID, acc.Role)
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	return acc, token, nil
}

func (s *accountService) Get(ctx context.Context, accountID string) (*models.Account, error) {
	const op = "AccountService.Get"

	if accountID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "account id is required", nil)
	}
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "account not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load account", err)
	}
	return acc, nil
}

func (s *accountService) UpdateProfile(ctx context.Context, accountID string, in ProfileInput) (*models.Account, error) {
	const op = "AccountService.UpdateProfile"

	acc, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, utils.E(utils.CodeInvalidArgument, op, "name cannot be empty", nil)
		}
		acc.Name = name
	}
	if in.Age != nil {
		if *in.Age < 0 || *in.Age > 150 {
			return nil, utils.E(utils.CodeInvalidArgument, op, "age out of range", nil)
		}
		acc.Age = *in.Age
	}
	if in.Education != nil {
		edu, err := educationJSON(*in.Education)
		if err != nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, "invalid education", err)
		}
		acc.Education = edu
	}
	if in.Skills != nil {
		skills := matching.ParseSkills(*in.Skills)
		if acc.Role != models.RoleApplicant && skills.Len() > 0 {
			return nil, utils.E(utils.CodeInvalidArgument, op, "only applicants can list skills", nil)
		}
		acc.Skills = skills.Keys()
	}
	if in.ResumeURL != "" {
		acc.ResumeURL = in.ResumeURL
	}
	acc.UpdatedAt = time.Now().UTC()

	if err := s.accounts.UpdateProfile(ctx, acc); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "account not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update profile", err)
	}
	return acc, nil
}
