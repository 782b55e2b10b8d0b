package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/clientdata"
	"github.com/Eroleice/Quant-Cat/internal/config"
	"github.com/Eroleice/Quant-Cat/internal/database"
)

// InitializeDatabases opens the provider cache database and applies its
// schema. With the cache disabled the container has no database.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	if !cfg.CacheEnabled {
		log.Info().Msg("Provider cache disabled, skipping client_data database")
		return container, nil
	}

	// client_data.db - provider response cache
	clientDataDB, err := database.New(database.Config{
		Path:    cfg.CachePath(),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client_data database: %w", err)
	}

	if err := clientDataDB.Migrate(); err != nil {
		clientDataDB.Close()
		return nil, fmt.Errorf("failed to apply schema to %s: %w", clientDataDB.Name(), err)
	}

	container.ClientDataDB = clientDataDB
	container.ClientDataRepo = clientdata.NewRepository(clientDataDB.Conn())

	log.Info().Str("path", clientDataDB.Path()).Msg("Client data database initialized")
	return container, nil
}
