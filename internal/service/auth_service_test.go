package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/gradebook-service/internal/auth"
	"github.com/spec-kit/gradebook-service/internal/domain"
	"github.com/spec-kit/gradebook-service/internal/repository"
	"github.com/spec-kit/gradebook-service/internal/service"
	"github.com/spec-kit/gradebook-service/pkg/util"
)

func newAuthService() *service.AuthService {
	return service.NewAuthService(
		repository.NewMemoryUserRepository(),
		auth.NewTokenManager("service-test-secret", 240),
	)
}

func studentInput(username string) service.RegisterInput {
	return service.RegisterInput{
		Username:  username,
		Email:     username + "@school.example",
		Password:  "pass-" + username,
		FirstName: "Ada",
		LastName:  "Lovelace",
		RoleID:    domain.RoleStudent,
	}
}

func TestRegisterStudent(t *testing.T) {
	svc := newAuthService()

	user, err := svc.Register(context.Background(), studentInput("ada"))
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, domain.RoleStudent, user.RoleID)
	require.NotEqual(t, "pass-ada", user.PasswordHash, "password must be digested")
}

func TestRegisterMissingFields(t *testing.T) {
	svc := newAuthService()

	input := studentInput("ada")
	input.Email = ""
	_, err := svc.Register(context.Background(), input)
	require.Error(t, err)
	require.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	svc := newAuthService()

	input := studentInput("ada")
	input.RoleID = domain.RoleAdmin
	_, err := svc.Register(context.Background(), input)
	require.Error(t, err)
	require.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)
}

func TestRegisterDuplicate(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, studentInput("ada"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, studentInput("ada"))
	require.Error(t, err)
	domainErr := util.ToDomainError(err)
	require.Equal(t, "CONFLICT", domainErr.Code)
	require.Equal(t, 409, domainErr.HTTPStatus)
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, studentInput("ada"))
	require.NoError(t, err)

	user, token, expiresAt, err := svc.Login(ctx, service.LoginInput{Username: "ada", Password: "pass-ada"})
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	byEmail, token2, _, err := svc.Login(ctx, service.LoginInput{Email: "ada@school.example", Password: "pass-ada"})
	require.NoError(t, err)
	require.Equal(t, registered.ID, byEmail.ID)
	require.NotEmpty(t, token2)
	require.NotEqual(t, token, token2, "every login issues a fresh token")
}

func TestLoginTokenResolvesIdentity(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, studentInput("ada"))
	require.NoError(t, err)

	_, token, _, err := svc.Login(ctx, service.LoginInput{Username: "ada", Password: "pass-ada"})
	require.NoError(t, err)

	identity, err := svc.TokenManager().Parse(token)
	require.NoError(t, err)
	require.Equal(t, registered.ID, identity.UserID)
	require.Equal(t, domain.RoleStudent, identity.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, studentInput("ada"))
	require.NoError(t, err)

	_, token, _, err := svc.Login(ctx, service.LoginInput{Username: "ada", Password: "wrong"})
	require.Error(t, err)
	require.Empty(t, token, "no token on failed login")
	domainErr := util.ToDomainError(err)
	require.Equal(t, "UNAUTHORIZED", domainErr.Code)
	require.Equal(t, 401, domainErr.HTTPStatus)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newAuthService()

	_, _, _, err := svc.Login(context.Background(), service.LoginInput{Username: "ghost", Password: "whatever"})
	require.Error(t, err)
	require.Equal(t, "UNAUTHORIZED", util.ToDomainError(err).Code)
}

func TestLoginRequiresCredentialFields(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, _, _, err := svc.Login(ctx, service.LoginInput{Username: "ada"})
	require.Error(t, err)
	require.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)

	_, _, _, err = svc.Login(ctx, service.LoginInput{Password: "pass"})
	require.Error(t, err)
	require.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)
}
