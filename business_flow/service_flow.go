package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexPupki/gtsv-pricing/app/dto"
	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/repository"
	"gorm.io/gorm"
)

// ServiceFlow manages the bookable service catalog
type ServiceFlow interface {
	CreateService(ctx context.Context, req *dto.CreateServiceRequest, metadata *ClientMetadata) (*dto.CreateServiceResponse, error)
	UpdateService(ctx context.Context, req *dto.UpdateServiceRequest, metadata *ClientMetadata) (*dto.UpdateServiceResponse, error)
	GetService(ctx context.Context, uuid string) (*dto.ServiceDTO, error)
	ListServices(ctx context.Context, activeOnly bool) (*dto.ListServicesResponse, error)
}

// ServiceFlowImpl implements the service catalog business flow
type ServiceFlowImpl struct {
	serviceRepo repository.ServiceRepository
	auditRepo   repository.AuditLogRepository
	db          *gorm.DB
}

// NewServiceFlow creates a new service flow instance
func NewServiceFlow(serviceRepo repository.ServiceRepository, auditRepo repository.AuditLogRepository, db *gorm.DB) ServiceFlow {
	return &ServiceFlowImpl{
		serviceRepo: serviceRepo,
		auditRepo:   auditRepo,
		db:          db,
	}
}

// CreateService adds a bookable service to the catalog
func (s *ServiceFlowImpl) CreateService(ctx context.Context, req *dto.CreateServiceRequest, metadata *ClientMetadata) (*dto.CreateServiceResponse, error) {
	service := &models.Service{
		Name:         req.Name,
		Category:     req.Category,
		Description:  req.Description,
		MaxGroupSize: req.MaxGroupSize,
	}

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.serviceRepo.Save(txCtx, service)
	})
	if err != nil {
		return nil, NewBusinessError("SERVICE_CREATION_FAILED", "Service creation failed", err)
	}

	return &dto.CreateServiceResponse{
		Message:   "Service created successfully",
		UUID:      service.UUID.String(),
		CreatedAt: service.CreatedAt.Format(time.RFC3339),
	}, nil
}

// UpdateService applies a partial update to a catalog entry
func (s *ServiceFlowImpl) UpdateService(ctx context.Context, req *dto.UpdateServiceRequest, metadata *ClientMetadata) (*dto.UpdateServiceResponse, error) {
	service, err := s.serviceRepo.ByUUID(ctx, req.UUID)
	if err != nil {
		return nil, NewBusinessError("SERVICE_LOOKUP_FAILED", "Failed to lookup service", err)
	}
	if service == nil {
		return nil, NewBusinessError("SERVICE_NOT_FOUND", "Service not found", ErrServiceNotFound)
	}

	if req.Name != nil {
		service.Name = *req.Name
	}
	if req.Description != nil {
		service.Description = req.Description
	}
	if req.MaxGroupSize != nil {
		service.MaxGroupSize = *req.MaxGroupSize
	}
	if req.IsActive != nil {
		service.IsActive = req.IsActive
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.serviceRepo.Update(txCtx, *service)
	})
	if err != nil {
		return nil, NewBusinessError("SERVICE_UPDATE_FAILED", "Service update failed", err)
	}

	return &dto.UpdateServiceResponse{
		Message: fmt.Sprintf("Service %s updated successfully", service.UUID),
	}, nil
}

// GetService retrieves a single catalog entry
func (s *ServiceFlowImpl) GetService(ctx context.Context, uuid string) (*dto.ServiceDTO, error) {
	service, err := s.serviceRepo.ByUUID(ctx, uuid)
	if err != nil {
		return nil, NewBusinessError("SERVICE_LOOKUP_FAILED", "Failed to lookup service", err)
	}
	if service == nil {
		return nil, NewBusinessError("SERVICE_NOT_FOUND", "Service not found", ErrServiceNotFound)
	}
	out := ToServiceDTO(*service)
	return &out, nil
}

// ListServices retrieves the catalog, optionally limited to active entries
func (s *ServiceFlowImpl) ListServices(ctx context.Context, activeOnly bool) (*dto.ListServicesResponse, error) {
	var (
		services []*models.Service
		err      error
	)
	if activeOnly {
		services, err = s.serviceRepo.ListActive(ctx)
	} else {
		services, err = s.serviceRepo.ByFilter(ctx, models.ServiceFilter{}, "created_at ASC", 0, 0)
	}
	if err != nil {
		return nil, NewBusinessError("SERVICE_LOOKUP_FAILED", "Failed to list services", err)
	}

	resp := &dto.ListServicesResponse{Items: make([]dto.ServiceDTO, 0, len(services))}
	for _, service := range services {
		resp.Items = append(resp.Items, ToServiceDTO(*service))
	}
	return resp, nil
}
