package service

import (
	"strings"
	"time"

	"casetrack/internal/model"

	"github.com/google/uuid"
)

type UnitService struct {
	unitStore UnitStore
}

func NewUnitService(unitStore UnitStore) *UnitService {
	return &UnitService{unitStore: unitStore}
}

func (s *UnitService) Create(actor model.Identity, req *model.CreateUnitRequest) (*model.Unit, error) {
	if actor.Role != model.RoleAdmin {
		return nil, model.ErrForbidden
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, model.ErrValidation
	}

	unit := &model.Unit{
		ID:        uuid.New(),
		Name:      req.Name,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := s.unitStore.Create(unit); err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *UnitService) List() ([]model.Unit, error) {
	units, err := s.unitStore.FindAll()
	if err != nil {
		return nil, err
	}
	if units == nil {
		units = []model.Unit{}
	}
	return units, nil
}

func (s *UnitService) Deactivate(actor model.Identity, id uuid.UUID) error {
	if actor.Role != model.RoleAdmin {
		return model.ErrForbidden
	}
	return s.unitStore.Deactivate(id)
}
