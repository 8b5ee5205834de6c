package engine

import (
	"context"

	"github.com/platinummonkey/docflow/pkg/groups"
	"github.com/platinummonkey/docflow/pkg/identity"
)

// Group management is part of the exposed contract but gated behind the
// admin check before anything touches storage. The Undeletable rule lives in
// the registry itself, so even administrators cannot remove a group marked
// deletable:false.

func (s *Service) adminContext(caller identity.Caller) (ctxErr func(context.Context) error) {
	ec := s.newEvalContext(caller, nil, nil, nil, "")
	return func(ctx context.Context) error {
		return s.evaluator.RequireAdmin(ctx, ec)
	}
}

// CreateGroup stores a new group.
func (s *Service) CreateGroup(ctx context.Context, caller identity.Caller, g *groups.UserGroup) error {
	if err := s.adminContext(caller)(ctx); err != nil {
		return err
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return err
	}
	s.publish(ctx, "group.changed", caller, "", nil)
	return nil
}

// GetGroup returns a group by id.
func (s *Service) GetGroup(ctx context.Context, caller identity.Caller, id string) (*groups.UserGroup, error) {
	if err := s.adminContext(caller)(ctx); err != nil {
		return nil, err
	}
	return s.groups.Get(ctx, id)
}

// ListGroups returns all stored groups.
func (s *Service) ListGroups(ctx context.Context, caller identity.Caller) ([]*groups.UserGroup, error) {
	if err := s.adminContext(caller)(ctx); err != nil {
		return nil, err
	}
	return s.groups.List(ctx)
}

// UpdateGroup replaces a group's membership record.
func (s *Service) UpdateGroup(ctx context.Context, caller identity.Caller, g *groups.UserGroup) error {
	if err := s.adminContext(caller)(ctx); err != nil {
		return err
	}
	if err := s.groups.Update(ctx, g); err != nil {
		return err
	}
	s.publish(ctx, "group.changed", caller, "", nil)
	return nil
}

// DeleteGroup removes a group; non-deletable groups refuse with Undeletable.
func (s *Service) DeleteGroup(ctx context.Context, caller identity.Caller, id string) error {
	if err := s.adminContext(caller)(ctx); err != nil {
		return err
	}
	if err := s.groups.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "group.changed", caller, "", nil)
	return nil
}
