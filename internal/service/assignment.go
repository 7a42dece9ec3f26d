package service

import (
	"casetrack/internal/model"

	"github.com/google/uuid"
)

// ResolveAssignment validates a target unit against a unit directory
// snapshot. It does not mutate anything; the lifecycle engine calls it
// before committing an assign or reassign transition.
func ResolveAssignment(unitID *uuid.UUID, units []model.Unit) (*model.Unit, error) {
	if unitID == nil {
		return nil, model.ErrValidation
	}
	for i := range units {
		if units[i].ID == *unitID {
			if !units[i].IsActive {
				return nil, model.ErrUnitInactive
			}
			unit := units[i]
			return &unit, nil
		}
	}
	return nil, model.ErrUnknownUnit
}
