package main

import (
	"context"
	"errors"
	"testing"

	"github.com/kiranshivaraju/compass/internal/store"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memProjects struct {
	byID map[string]*models.Project
	err  error
}

func (m *memProjects) CreateProject(_ context.Context, p *models.Project) error {
	if m.err != nil {
		return m.err
	}
	if m.byID == nil {
		m.byID = map[string]*models.Project{}
	}
	if _, ok := m.byID[p.ID]; ok {
		return store.ErrDuplicateKey
	}
	m.byID[p.ID] = p
	return nil
}

const portfolio = `
- id: proj_retail_platform
  name: Souq Express Storefront
  industry_vertical: Retail
  technologies: [Next.js, Go]
- name: Falcon Fleet Tracker
  description: GPS tracking for delivery vans
  industry_vertical: logistics
  outcome: Fuel costs down 18%
`

func TestImportProjects(t *testing.T) {
	m := &memProjects{}

	created, skipped, err := importProjects(context.Background(), m, []byte(portfolio))
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 0, skipped)

	p := m.byID["proj_falcon_fleet_tracker"]
	require.NotNil(t, p)
	assert.Equal(t, "logistics", p.IndustryVertical)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, "retail", m.byID["proj_retail_platform"].IndustryVertical)

	created, skipped, err = importProjects(context.Background(), m, []byte(portfolio))
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 2, skipped)
}

func TestImportProjects_Errors(t *testing.T) {
	_, _, err := importProjects(context.Background(), &memProjects{}, []byte("- name: [oops"))
	assert.ErrorContains(t, err, "parse projects file")

	_, _, err = importProjects(context.Background(), &memProjects{}, []byte("- description: no name\n"))
	assert.ErrorContains(t, err, "name is required")

	_, _, err = importProjects(context.Background(), &memProjects{err: errors.New("conn reset")}, []byte(portfolio))
	assert.ErrorContains(t, err, "conn reset")
}
