// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/swarmhub/internal/app/store/users"
	"github.com/dalemusser/swarmhub/internal/app/system/authutil"
	"github.com/dalemusser/swarmhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SeedCoordinatorLogin != "" {
		if err := ensureCoordinator(ctx, deps.Users, appCfg.SeedCoordinatorLogin,
			appCfg.SeedCoordinatorPassword, appCfg.SeedCoordinatorName, logger); err != nil {
			return err
		}
	}
	if deps.GeocodeRepair != nil {
		deps.GeocodeRepair.Start()
	}
	return nil
}

// ensureCoordinator creates a coordinator account when loginID is unknown.
// An existing account is left untouched, whatever its type.
func ensureCoordinator(ctx context.Context, users UserStore, loginID, password, name string, logger *zap.Logger) error {
	existing, err := users.GetByLoginID(ctx, loginID)
	switch {
	case err == nil:
		if !existing.IsCoordinator() {
			logger.Warn("seed coordinator login belongs to a volunteer; leaving it unchanged",
				zap.String("user_id", existing.ID))
		}
		return nil
	case !errors.Is(err, userstore.ErrNotFound):
		return fmt.Errorf("seed coordinator lookup: %w", err)
	}

	if err := authutil.ValidatePassword(password); err != nil {
		return fmt.Errorf("seed coordinator password: %w", err)
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return err
	}
	u, err := users.Create(ctx, models.User{
		FullName:     name,
		LoginID:      loginID,
		PasswordHash: hash,
		UserType:     models.UserTypeCoordinator,
		Status:       "active",
	})
	if errors.Is(err, userstore.ErrDuplicateLoginID) {
		// Another instance won the race.
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed coordinator create: %w", err)
	}
	logger.Info("created seed coordinator", zap.String("user_id", u.ID), zap.String("login_id", loginID))
	return nil
}
