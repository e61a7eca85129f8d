package service

import (
	"context"
	"fmt"

	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
)

// AdminService handles user administration
type AdminService struct {
	client *threatapi.Client
	logger *zap.Logger
}

func NewAdminService(client *threatapi.Client, logger *zap.Logger) *AdminService {
	return &AdminService{client: client, logger: logger}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.client.ListUsers(ctx)
	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		return nil, fromUpstream(err)
	}
	return users, nil
}

func (s *AdminService) CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	if req.Plan == "" {
		req.Plan = domain.PlanSimple
	}
	user, err := s.client.CreateUser(ctx, req)
	if err != nil {
		s.logger.Error("failed to create user", zap.String("email", req.Email), zap.Error(err))
		return nil, fromUpstream(err)
	}
	s.logger.Info("user created",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// UpdateUser changes role and/or plan. Admins cannot demote themselves.
func (s *AdminService) UpdateUser(ctx context.Context, id string, req *domain.UpdateUserRequest) (*domain.User, error) {
	if req.Role == "" && req.Plan == "" {
		return nil, fmt.Errorf("%w: role or plan is required", ErrInvalidInput)
	}
	if caller, err := currentUser(ctx); err == nil && caller.ID == id && req.Role != "" && req.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: cannot remove your own admin role", ErrInvalidInput)
	}
	user, err := s.client.UpdateUser(ctx, id, req)
	if err != nil {
		s.logger.Error("failed to update user", zap.String("user_id", id), zap.Error(err))
		return nil, fromUpstream(err)
	}
	return user, nil
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	if caller, err := currentUser(ctx); err == nil && caller.ID == id {
		return fmt.Errorf("%w: cannot delete your own account", ErrInvalidInput)
	}
	if err := s.client.DeleteUser(ctx, id); err != nil {
		s.logger.Error("failed to delete user", zap.String("user_id", id), zap.Error(err))
		return fromUpstream(err)
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}
