// Package quota enforces the maximum number of children a parent may hold.
package quota

import (
	"context"
	"fmt"

	"smarterd/internal/apperrors"
	"smarterd/internal/models"
)

// Counter returns the number of children currently attached to a parent.
type Counter func(ctx context.Context) (int64, error)

// Rule describes one parent/child cardinality limit.
type Rule struct {
	Parent string // parent type name used in messages
	Child  string // child type name used in messages
	Max    int
	Field  string // input field the violation is reported on
}

var (
	// ProjectsPerUser caps the projects owned by a user.
	ProjectsPerUser = Rule{Parent: "User", Child: "Project", Max: models.MaxProjectsPerUser, Field: "user"}
	// EntitiesPerProject caps the entities of a project.
	EntitiesPerProject = Rule{Parent: "Project", Child: "Entity", Max: models.MaxEntitiesPerProject, Field: "project"}
)

// Check counts the existing children and fails with QUOTA_EXCEEDED when the
// parent already holds Max of them.
func (r Rule) Check(ctx context.Context, count Counter) error {
	current, err := count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count %s of %s: %w", r.Child, r.Parent, err)
	}
	if current >= int64(r.Max) {
		return apperrors.QuotaExceeded(r.Field, r.Parent, r.Child, r.Max, current)
	}
	return nil
}
