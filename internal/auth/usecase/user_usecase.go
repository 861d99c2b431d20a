package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	authService "github.com/allisson/filevault/internal/auth/service"
)

type userUseCase struct {
	userRepo        UserRepository
	passwordService authService.PasswordService
}

// Get returns a user by id.
func (u *userUseCase) Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error) {
	return u.userRepo.Get(ctx, userID)
}

// List returns users ordered by creation time.
func (u *userUseCase) List(ctx context.Context, offset, limit int) ([]*authDomain.User, error) {
	return u.userRepo.List(ctx, offset, limit)
}

// ChangeRole promotes a user. Admins are never demoted and only upgrades are accepted.
func (u *userUseCase) ChangeRole(
	ctx context.Context,
	userID uuid.UUID,
	role authDomain.Role,
) (*authDomain.User, error) {
	user, err := u.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !authDomain.CanChangeRole(user.Role, role) {
		return nil, authDomain.ErrRoleChangeNotAllowed
	}

	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a non-admin user.
func (u *userUseCase) Delete(ctx context.Context, userID uuid.UUID) error {
	user, err := u.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == authDomain.RoleAdmin {
		return authDomain.ErrCannotDeleteAdmin
	}
	return u.userRepo.Delete(ctx, userID)
}

// CreateAdmin bootstraps an admin account with the same validation as signup.
func (u *userUseCase) CreateAdmin(ctx context.Context, input *SignupInput) (*authDomain.User, error) {
	return createUser(ctx, u.userRepo, u.passwordService, input, authDomain.RoleAdmin)
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(userRepo UserRepository, passwordService authService.PasswordService) UserUseCase {
	return &userUseCase{
		userRepo:        userRepo,
		passwordService: passwordService,
	}
}

func createUser(
	ctx context.Context,
	userRepo UserRepository,
	passwordService authService.PasswordService,
	input *SignupInput,
	role authDomain.Role,
) (*authDomain.User, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validateSignupInput(input); err != nil {
		return nil, err
	}

	hash, err := passwordService.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &authDomain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
