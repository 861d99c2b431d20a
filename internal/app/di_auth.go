package app

import (
	"context"
	"fmt"

	authHTTP "github.com/allisson/filevault/internal/auth/http"
	authRepository "github.com/allisson/filevault/internal/auth/repository"
	authService "github.com/allisson/filevault/internal/auth/service"
	authUseCase "github.com/allisson/filevault/internal/auth/usecase"
	cryptoService "github.com/allisson/filevault/internal/crypto/service"
)

// PasswordService returns the password hashing service.
func (c *Container) PasswordService() (authService.PasswordService, error) {
	var err error
	c.passwordServiceInit.Do(func() {
		c.passwordService, err = authService.NewPasswordService()
		if err != nil {
			c.initErrors["passwordService"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["passwordService"]; exists {
		return nil, storedErr
	}
	return c.passwordService, nil
}

// RefreshTokenService returns the refresh token generator.
func (c *Container) RefreshTokenService() authService.RefreshTokenService {
	c.refreshTokenServiceInit.Do(func() {
		c.refreshTokenService = authService.NewRefreshTokenService()
	})
	return c.refreshTokenService
}

// TOTPService returns the TOTP enrollment and validation service.
func (c *Container) TOTPService() authService.TOTPService {
	c.totpServiceInit.Do(func() {
		c.totpService = authService.NewTOTPService(c.config.AuthTOTPIssuer)
	})
	return c.totpService
}

// JWTService returns the access and verification token service.
func (c *Container) JWTService() (authService.JWTService, error) {
	var err error
	c.jwtServiceInit.Do(func() {
		c.jwtService, err = c.initJWTService()
		if err != nil {
			c.initErrors["jwtService"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["jwtService"]; exists {
		return nil, storedErr
	}
	return c.jwtService, nil
}

// Keeper returns the secrets keeper opened from SECRETS_KEEPER_URL.
func (c *Container) Keeper() (cryptoService.Keeper, error) {
	var err error
	c.keeperInit.Do(func() {
		c.keeper, err = c.initKeeper()
		if err != nil {
			c.initErrors["keeper"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keeper"]; exists {
		return nil, storedErr
	}
	return c.keeper, nil
}

// SecretSealer returns the sealer protecting TOTP secrets at rest.
func (c *Container) SecretSealer() (authService.SecretSealer, error) {
	var err error
	c.secretSealerInit.Do(func() {
		var keeper cryptoService.Keeper
		keeper, err = c.Keeper()
		if err != nil {
			err = fmt.Errorf("failed to get keeper for secret sealer: %w", err)
			c.initErrors["secretSealer"] = err
			return
		}
		c.secretSealer = authService.NewSecretSealer(keeper)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["secretSealer"]; exists {
		return nil, storedErr
	}
	return c.secretSealer, nil
}

// UserRepository returns the user repository based on database driver.
func (c *Container) UserRepository() (authUseCase.UserRepository, error) {
	var err error
	c.userRepositoryInit.Do(func() {
		c.userRepository, err = c.initUserRepository()
		if err != nil {
			c.initErrors["userRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userRepository"]; exists {
		return nil, storedErr
	}
	return c.userRepository, nil
}

// RefreshTokenRepository returns the refresh token repository based on database driver.
func (c *Container) RefreshTokenRepository() (authUseCase.RefreshTokenRepository, error) {
	var err error
	c.refreshTokenRepositoryInit.Do(func() {
		c.refreshTokenRepository, err = c.initRefreshTokenRepository()
		if err != nil {
			c.initErrors["refreshTokenRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["refreshTokenRepository"]; exists {
		return nil, storedErr
	}
	return c.refreshTokenRepository, nil
}

// AuthUseCase returns the login and session use case, decorated with business metrics.
func (c *Container) AuthUseCase() (authUseCase.AuthUseCase, error) {
	var err error
	c.authUseCaseInit.Do(func() {
		c.authUseCase, err = c.initAuthUseCase()
		if err != nil {
			c.initErrors["authUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authUseCase"]; exists {
		return nil, storedErr
	}
	return c.authUseCase, nil
}

// UserUseCase returns the user administration use case.
func (c *Container) UserUseCase() (authUseCase.UserUseCase, error) {
	var err error
	c.userUseCaseInit.Do(func() {
		c.userUseCase, err = c.initUserUseCase()
		if err != nil {
			c.initErrors["userUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userUseCase"]; exists {
		return nil, storedErr
	}
	return c.userUseCase, nil
}

// AuthHandler returns the HTTP handler for the auth endpoints.
func (c *Container) AuthHandler() (*authHTTP.AuthHandler, error) {
	var err error
	c.authHandlerInit.Do(func() {
		c.authHandler, err = c.initAuthHandler()
		if err != nil {
			c.initErrors["authHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authHandler"]; exists {
		return nil, storedErr
	}
	return c.authHandler, nil
}

// UserHandler returns the HTTP handler for user administration.
func (c *Container) UserHandler() (*authHTTP.UserHandler, error) {
	var err error
	c.userHandlerInit.Do(func() {
		var userUseCase authUseCase.UserUseCase
		userUseCase, err = c.UserUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get user use case for user handler: %w", err)
			c.initErrors["userHandler"] = err
			return
		}
		c.userHandler = authHTTP.NewUserHandler(userUseCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userHandler"]; exists {
		return nil, storedErr
	}
	return c.userHandler, nil
}

// initJWTService creates the JWT service from the signing secret.
func (c *Container) initJWTService() (authService.JWTService, error) {
	jwtService, err := authService.NewJWTService(authService.JWTConfig{
		Secret:               []byte(c.config.AuthSigningSecret),
		Issuer:               c.config.AuthTOTPIssuer,
		AccessTokenTTL:       c.config.AuthAccessTokenExpiration,
		VerificationTokenTTL: c.config.AuthVerificationTokenExpiration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create jwt service: %w", err)
	}
	return jwtService, nil
}

// initKeeper opens the secrets keeper.
func (c *Container) initKeeper() (cryptoService.Keeper, error) {
	if c.config.SecretsKeeperURL == "" {
		return nil, fmt.Errorf("SECRETS_KEEPER_URL is required")
	}
	keeper, err := cryptoService.NewKeeperService().OpenKeeper(context.Background(), c.config.SecretsKeeperURL)
	if err != nil {
		return nil, err
	}
	return keeper, nil
}

// initUserRepository creates the user repository instance.
func (c *Container) initUserRepository() (authUseCase.UserRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLUserRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRefreshTokenRepository creates the refresh token repository instance.
func (c *Container) initRefreshTokenRepository() (authUseCase.RefreshTokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for refresh token repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return authRepository.NewMySQLRefreshTokenRepository(db), nil
	case "postgres":
		return authRepository.NewPostgreSQLRefreshTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuthUseCase creates the auth use case with all its dependencies.
func (c *Container) initAuthUseCase() (authUseCase.AuthUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for auth use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for auth use case: %w", err)
	}

	refreshTokenRepo, err := c.RefreshTokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token repository for auth use case: %w", err)
	}

	passwordService, err := c.PasswordService()
	if err != nil {
		return nil, fmt.Errorf("failed to get password service for auth use case: %w", err)
	}

	jwtService, err := c.JWTService()
	if err != nil {
		return nil, fmt.Errorf("failed to get jwt service for auth use case: %w", err)
	}

	secretSealer, err := c.SecretSealer()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret sealer for auth use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for auth use case: %w", err)
	}

	useCase := authUseCase.NewAuthUseCase(
		c.config,
		txManager,
		userRepo,
		refreshTokenRepo,
		passwordService,
		c.RefreshTokenService(),
		jwtService,
		c.TOTPService(),
		secretSealer,
	)

	return authUseCase.NewAuthUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initUserUseCase creates the user use case with all its dependencies.
func (c *Container) initUserUseCase() (authUseCase.UserUseCase, error) {
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for user use case: %w", err)
	}

	passwordService, err := c.PasswordService()
	if err != nil {
		return nil, fmt.Errorf("failed to get password service for user use case: %w", err)
	}

	return authUseCase.NewUserUseCase(userRepo, passwordService), nil
}

// initAuthHandler creates the auth handler with all its dependencies.
func (c *Container) initAuthHandler() (*authHTTP.AuthHandler, error) {
	authUseCase, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for auth handler: %w", err)
	}

	userUseCase, err := c.UserUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get user use case for auth handler: %w", err)
	}

	return authHTTP.NewAuthHandler(authUseCase, userUseCase, c.Logger()), nil
}
