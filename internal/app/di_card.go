package app

import (
	"fmt"

	cardRepository "github.com/hcepay/hcepay/internal/card/repository"
	cardUsecase "github.com/hcepay/hcepay/internal/card/usecase"
	"github.com/hcepay/hcepay/internal/issuer"
)

// CardIssuer returns the configured card issuer backend.
func (c *Container) CardIssuer() (issuer.CardIssuer, error) {
	var err error
	c.cardIssuerInit.Do(func() {
		c.cardIssuer, err = c.initCardIssuer()
		if err != nil {
			c.initErrors["cardIssuer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cardIssuer"]; exists {
		return nil, storedErr
	}
	return c.cardIssuer, nil
}

// CardRepository returns the card repository instance.
func (c *Container) CardRepository() (cardUsecase.CardRepository, error) {
	var err error
	c.cardRepoInit.Do(func() {
		c.cardRepo, err = c.initCardRepository()
		if err != nil {
			c.initErrors["cardRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cardRepo"]; exists {
		return nil, storedErr
	}
	return c.cardRepo, nil
}

// CardUseCase returns the card use case instance.
func (c *Container) CardUseCase() (cardUsecase.CardUseCase, error) {
	var err error
	c.cardUseCaseInit.Do(func() {
		c.cardUseCase, err = c.initCardUseCase()
		if err != nil {
			c.initErrors["cardUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cardUseCase"]; exists {
		return nil, storedErr
	}
	return c.cardUseCase, nil
}

// initCardIssuer selects the card issuer backend from configuration.
func (c *Container) initCardIssuer() (issuer.CardIssuer, error) {
	logger := c.Logger()

	switch c.config.CardIssuerProvider {
	case "dev":
		logger.Warn("using the in-memory dev card issuer; not for production")
		return issuer.NewDevIssuer(logger), nil
	case "marqeta":
		if c.config.CardIssuerBaseURL == "" {
			return nil, fmt.Errorf("CARD_ISSUER_BASE_URL is required for the marqeta issuer")
		}
		return issuer.NewMarqetaIssuer(
			c.config.CardIssuerBaseURL,
			c.config.CardIssuerAPIToken,
			c.config.CardIssuerTimeout,
			logger,
		), nil
	default:
		return nil, fmt.Errorf("unsupported card issuer provider: %s", c.config.CardIssuerProvider)
	}
}

// initCardRepository creates the card repository based on the database driver.
func (c *Container) initCardRepository() (cardUsecase.CardRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for card repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return cardRepository.NewPostgreSQLCardRepository(db), nil
	case "mysql":
		return cardRepository.NewMySQLCardRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCardUseCase creates the card use case with all its dependencies.
// Card suspension and closure fan out to the provisioning use case, which
// retires the affected device tokens.
func (c *Container) initCardUseCase() (cardUsecase.CardUseCase, error) {
	cardRepo, err := c.CardRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get card repository for card use case: %w", err)
	}

	cardIssuer, err := c.CardIssuer()
	if err != nil {
		return nil, fmt.Errorf("failed to get card issuer for card use case: %w", err)
	}

	deactivator, err := c.ProvisioningUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get provisioning use case for card use case: %w", err)
	}

	useCase := cardUsecase.NewCardUseCase(cardRepo, cardIssuer, deactivator, c.Logger())

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for card use case: %w", err)
	}
	if businessMetrics != nil {
		useCase = cardUsecase.NewCardUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}
