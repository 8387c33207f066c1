package app

import (
	"context"
	"errors"
	"fmt"

	"cutline/internal/config"
	"cutline/internal/repo"
)

// ResolveProjectAndConfig picks the active project and its config. It
// prefers the override, then the only project in the workspace. A project
// without a stored config is seeded from cutline.yml when present, otherwise
// from defaults.
func ResolveProjectAndConfig(ctx context.Context, workspace, projectOverride string, r repo.Repo) (string, *config.Config, error) {
	projectID := projectOverride
	if projectID == "" {
		p, err := r.SingleProject(ctx)
		if errors.Is(err, repo.ErrNotFound) {
			return "", nil, fmt.Errorf("no project in workspace; create one with cutline project create")
		}
		if err != nil {
			return "", nil, err
		}
		projectID = p.ID
	} else if _, err := r.GetProject(ctx, projectID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", nil, fmt.Errorf("project %s: %w", projectID, err)
		}
		return "", nil, err
	}

	cfg, err := r.GetProjectConfig(ctx, projectID)
	if err == nil {
		cfg.Project.ID = projectID
		return projectID, cfg, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return "", nil, err
	}
	seed, err := SeedConfig(workspace, projectID)
	if err != nil {
		return "", nil, err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", nil, err
	}
	defer tx.Rollback()
	if err := r.UpsertProjectConfig(ctx, tx, projectID, seed); err != nil {
		return "", nil, fmt.Errorf("seed project config: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", nil, err
	}
	return projectID, seed, nil
}

// SeedConfig returns the workspace cutline.yml retargeted to projectID, or
// the defaults when the workspace has none.
func SeedConfig(workspace, projectID string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, fmt.Errorf("load workspace config: %w", err)
	}
	if cfg == nil {
		return config.Default(projectID), nil
	}
	cfg.Project.ID = projectID
	return cfg, nil
}
