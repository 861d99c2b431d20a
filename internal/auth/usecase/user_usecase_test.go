package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/filevault/internal/auth/domain"
	authUsecaseMocks "github.com/allisson/filevault/internal/auth/usecase/mocks"
	apperrors "github.com/allisson/filevault/internal/errors"
)

func TestUserUseCase_ChangeRole(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		current authDomain.Role
		next    authDomain.Role
		wantErr error
	}{
		{name: "guest to regular", current: authDomain.RoleGuest, next: authDomain.RoleRegular},
		{name: "guest to admin", current: authDomain.RoleGuest, next: authDomain.RoleAdmin},
		{name: "regular to admin", current: authDomain.RoleRegular, next: authDomain.RoleAdmin},
		{
			name:    "regular to guest",
			current: authDomain.RoleRegular,
			next:    authDomain.RoleGuest,
			wantErr: authDomain.ErrRoleChangeNotAllowed,
		},
		{
			name:    "admin demotion",
			current: authDomain.RoleAdmin,
			next:    authDomain.RoleRegular,
			wantErr: authDomain.ErrRoleChangeNotAllowed,
		},
		{
			name:    "unknown role",
			current: authDomain.RoleGuest,
			next:    authDomain.Role("owner"),
			wantErr: authDomain.ErrRoleChangeNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &authUsecaseMocks.MockUserRepository{}
			user := &authDomain.User{ID: uuid.Must(uuid.NewV7()), Role: tt.current}
			repo.On("Get", ctx, user.ID).Return(user, nil).Once()
			if tt.wantErr == nil {
				repo.On("Update", ctx, user).Return(nil).Once()
			}

			uc := NewUserUseCase(repo, nil)
			got, err := uc.ChangeRole(ctx, user.ID, tt.next)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, apperrors.ErrForbidden)
				repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.next, got.Role)
			repo.AssertExpectations(t)
		})
	}
}

func TestUserUseCase_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := &authUsecaseMocks.MockUserRepository{}
		user := &authDomain.User{ID: uuid.Must(uuid.NewV7()), Role: authDomain.RoleGuest}
		repo.On("Get", ctx, user.ID).Return(user, nil).Once()
		repo.On("Delete", ctx, user.ID).Return(nil).Once()

		require.NoError(t, NewUserUseCase(repo, nil).Delete(ctx, user.ID))
		repo.AssertExpectations(t)
	})

	t.Run("Error_AdminCannotBeDeleted", func(t *testing.T) {
		repo := &authUsecaseMocks.MockUserRepository{}
		user := &authDomain.User{ID: uuid.Must(uuid.NewV7()), Role: authDomain.RoleAdmin}
		repo.On("Get", ctx, user.ID).Return(user, nil).Once()

		err := NewUserUseCase(repo, nil).Delete(ctx, user.ID)

		assert.ErrorIs(t, err, authDomain.ErrCannotDeleteAdmin)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		repo := &authUsecaseMocks.MockUserRepository{}
		userID := uuid.Must(uuid.NewV7())
		repo.On("Get", ctx, userID).Return(nil, authDomain.ErrUserNotFound).Once()

		err := NewUserUseCase(repo, nil).Delete(ctx, userID)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestUserUseCase_List(t *testing.T) {
	ctx := context.Background()
	repo := &authUsecaseMocks.MockUserRepository{}
	users := []*authDomain.User{{ID: uuid.Must(uuid.NewV7())}}
	repo.On("List", ctx, 0, 50).Return(users, nil).Once()

	got, err := NewUserUseCase(repo, nil).List(ctx, 0, 50)

	require.NoError(t, err)
	assert.Equal(t, users, got)
}

func TestUserUseCase_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil).Once()

	uc := NewUserUseCase(f.userRepo, f.passwords)
	user, err := uc.CreateAdmin(ctx, &SignupInput{
		Email:    "root@example.com",
		Username: "root",
		Password: "Adm1n!pass",
	})

	require.NoError(t, err)
	assert.Equal(t, authDomain.RoleAdmin, user.Role)
}
