package seed

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/varlink/internal/domain"
	"github.com/MrSnakeDoc/varlink/internal/logger"
)

// Vault is where seeded links go. vault.Repository satisfies it.
type Vault interface {
	List(ctx context.Context) ([]domain.Link, error)
	Save(ctx context.Context, in domain.LinkInput, existingID string) (string, error)
}

// Import loads path into v, only when v holds no link yet. It returns the
// number of links created.
func Import(ctx context.Context, path string, v Vault, log logger.Logger) (int, error) {
	existing, err := v.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check vault before seeding: %w", err)
	}
	if len(existing) > 0 {
		log.Info("vault not empty, seed file ignored",
			logger.String("file", path),
			logger.Int("links", len(existing)))
		return 0, nil
	}

	file, err := NewLoader(path).Load()
	if err != nil {
		return 0, err
	}

	inputs, problems := MapLinks(file)
	for _, p := range problems {
		log.Warn("skipping seed entry", logger.Error(p))
	}

	created := 0
	for _, in := range inputs {
		// Sequential saves so each link lands after the previous one
		if _, err := v.Save(ctx, in, ""); err != nil {
			return created, fmt.Errorf("failed to seed %q: %w", in.Name, err)
		}
		created++
	}

	log.Info("vault seeded",
		logger.String("file", path),
		logger.Int("created", created),
		logger.Int("skipped", len(problems)))
	return created, nil
}
