package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kiranshivaraju/compass/internal/catalog"
	"github.com/kiranshivaraju/compass/internal/store"
	"github.com/kiranshivaraju/compass/pkg/models"
	"gopkg.in/yaml.v3"
)

type projectCreator interface {
	CreateProject(ctx context.Context, p *models.Project) error
}

type projectEntry struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description"`
	IndustryVertical string   `yaml:"industry_vertical"`
	Technologies     []string `yaml:"technologies"`
	ClientName       string   `yaml:"client_name"`
	Outcome          string   `yaml:"outcome"`
}

// importProjects inserts the portfolio projects listed in a YAML document.
// Entries without an id get "proj_" plus the normalized name. Projects that
// already exist are skipped.
func importProjects(ctx context.Context, c projectCreator, data []byte) (created, skipped int, err error) {
	var entries []projectEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return 0, 0, fmt.Errorf("parse projects file: %w", err)
	}

	now := time.Now().UTC()
	for i, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return created, skipped, fmt.Errorf("project %d: name is required", i+1)
		}
		id := e.ID
		if id == "" {
			id = "proj_" + catalog.NormalizeKey(e.Name)
		}
		p := &models.Project{
			ID:               id,
			Name:             e.Name,
			Description:      e.Description,
			IndustryVertical: catalog.NormalizeKey(e.IndustryVertical),
			Technologies:     e.Technologies,
			ClientName:       e.ClientName,
			Outcome:          e.Outcome,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := c.CreateProject(ctx, p); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("project %s: %w", id, err)
		}
		created++
	}
	return created, skipped, nil
}
