package app

import (
	"fmt"

	tokenRepository "github.com/hcepay/hcepay/internal/token/repository"
	tokenUsecase "github.com/hcepay/hcepay/internal/token/usecase"
)

// TokenRepository returns the device token repository instance.
func (c *Container) TokenRepository() (tokenUsecase.TokenRepository, error) {
	var err error
	c.tokenRepoInit.Do(func() {
		c.tokenRepo, err = c.initTokenRepository()
		if err != nil {
			c.initErrors["tokenRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenRepo"]; exists {
		return nil, storedErr
	}
	return c.tokenRepo, nil
}

// ProvisioningUseCase returns the device token provisioning use case instance.
func (c *Container) ProvisioningUseCase() (tokenUsecase.ProvisioningUseCase, error) {
	var err error
	c.provisioningUseCaseInit.Do(func() {
		c.provisioningUseCase, err = c.initProvisioningUseCase()
		if err != nil {
			c.initErrors["provisioningUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["provisioningUseCase"]; exists {
		return nil, storedErr
	}
	return c.provisioningUseCase, nil
}

// initTokenRepository creates the token repository based on the database driver.
func (c *Container) initTokenRepository() (tokenUsecase.TokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for token repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return tokenRepository.NewPostgreSQLTokenRepository(db), nil
	case "mysql":
		return tokenRepository.NewMySQLTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initProvisioningUseCase creates the provisioning use case with all its dependencies.
func (c *Container) initProvisioningUseCase() (tokenUsecase.ProvisioningUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for provisioning use case: %w", err)
	}

	tokenRepo, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for provisioning use case: %w", err)
	}

	cardRepo, err := c.CardRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get card repository for provisioning use case: %w", err)
	}

	cardIssuer, err := c.CardIssuer()
	if err != nil {
		return nil, fmt.Errorf("failed to get card issuer for provisioning use case: %w", err)
	}

	cipher, err := c.TokenCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get token cipher for provisioning use case: %w", err)
	}

	useCase := tokenUsecase.NewProvisioningUseCase(
		txManager,
		tokenRepo,
		cardRepo,
		cardIssuer,
		cipher,
		c.config.SessionKeyTTL,
		c.Logger(),
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for provisioning use case: %w", err)
	}
	if businessMetrics != nil {
		useCase = tokenUsecase.NewProvisioningUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}
