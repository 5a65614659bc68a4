package service

import (
	"context"
	"errors"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/policy"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/txn"
	"go-pos-backoffice/pkg/apperror"
	"go-pos-backoffice/pkg/jwt"
	"go-pos-backoffice/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = apperror.Unauthorized("invalid email or password")
	ErrUserInactive       = apperror.Unauthorized("user account is inactive")
	ErrWrongPassword      = apperror.Unauthorized("current password is incorrect")
)

// AuthService is the identity provider: it issues tokens and resolves them to actors.
type AuthService interface {
	Login(ctx context.Context, req model.LoginRequest) (*LoginResponse, error)
	Authenticate(ctx context.Context, token string) (policy.Actor, error)
	ChangePassword(ctx context.Context, req model.ChangePasswordRequest) error
	// EnsureUser creates the user when the email is unknown and returns the stored user either way.
	EnsureUser(ctx context.Context, email, fullName, password, roleCode string) (*model.User, error)
	ListRoles(ctx context.Context, actor policy.Actor) ([]model.Role, error)
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
	Role  *model.Role        `json:"role"`
}

type authService struct {
	tx     *txn.Coordinator
	tokens *jwt.Manager
}

func NewAuthService(tx *txn.Coordinator, tokens *jwt.Manager) AuthService {
	return &authService{tx: tx, tokens: tokens}
}

func validate(req interface{}) error {
	if msg := validator.FirstError(req); msg != "" {
		return apperror.Validation(msg)
	}
	return nil
}

func (s *authService) Login(ctx context.Context, req model.LoginRequest) (*LoginResponse, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	var user *model.User
	err := s.tx.Run(ctx, "auth.login", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		user, err = repos.Users.FindByEmail(ctx, req.Email)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}, txn.ReadOnly())
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.FullName, user.RoleCode())
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &LoginResponse{Token: token, User: user.ToResponse(), Role: user.Role}, nil
}

// Authenticate trusts the token signature for identity but re-reads the user so
// deactivated accounts and role changes take effect before the token expires.
func (s *authService) Authenticate(ctx context.Context, token string) (policy.Actor, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return policy.Actor{}, apperror.Unauthorized(err.Error())
	}

	var user *model.User
	err = s.tx.Run(ctx, "auth.authenticate", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		user, err = repos.Users.FindByID(ctx, claims.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.Unauthorized("user no longer exists")
		}
		return err
	}, txn.ReadOnly())
	if err != nil {
		return policy.Actor{}, err
	}
	if !user.IsActive {
		return policy.Actor{}, ErrUserInactive
	}

	return policy.Actor{
		ID:    user.ID.String(),
		Name:  user.FullName,
		Email: user.Email,
		Role:  user.RoleCode(),
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, req model.ChangePasswordRequest) error {
	if err := validate(&req); err != nil {
		return err
	}

	return s.tx.Run(ctx, "auth.change_password", func(ctx context.Context, repos *repository.Repositories) error {
		user, err := repos.Users.FindByEmail(ctx, req.Email)
		if err != nil {
			return lookup(err, "user", req.Email)
		}
		if !user.CheckPassword(req.OldPassword) {
			return ErrWrongPassword
		}
		if err := user.SetPassword(req.NewPassword); err != nil {
			return err
		}
		return repos.Users.UpdatePassword(ctx, user.ID, user.Password)
	})
}

func (s *authService) EnsureUser(ctx context.Context, email, fullName, password, roleCode string) (*model.User, error) {
	var user *model.User
	err := s.tx.Run(ctx, "auth.ensure_user", func(ctx context.Context, repos *repository.Repositories) error {
		existing, err := repos.Users.FindByEmail(ctx, email)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := repos.Roles.SeedDefaults(ctx); err != nil {
			return err
		}
		role, err := repos.Roles.FindByCode(ctx, roleCode)
		if err != nil {
			return lookup(err, "role", roleCode)
		}

		user = &model.User{Email: email, FullName: fullName, RoleID: &role.ID, IsActive: true}
		user.ID = uuid.New()
		user.CreatedBy = user.ID.String()
		user.UpdatedBy = user.ID.String()
		if err := user.SetPassword(password); err != nil {
			return err
		}
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}
		user.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) ListRoles(ctx context.Context, actor policy.Actor) ([]model.Role, error) {
	if err := begin(actor, policy.OpViewMasterData, nil); err != nil {
		return nil, err
	}
	var roles []model.Role
	err := s.tx.Run(ctx, "role.list", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		roles, err = repos.Roles.FindAll(ctx)
		return err
	}, txn.ReadOnly())
	return roles, err
}
