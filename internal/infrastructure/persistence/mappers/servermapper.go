package mappers

import (
	"fmt"

	"github.com/orris-inc/keyhub/internal/domain/server"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/models"
)

func ServerToEntity(model *models.ServerModel) (*server.Server, error) {
	if model == nil {
		return nil, nil
	}
	s, err := server.ReconstructServer(server.ServerState{
		ID:               model.ID,
		Provider:         model.Provider,
		ProviderServerID: model.ProviderServerID,
		LocationID:       model.LocationID,
		Name:             model.Name,
		IP:               model.IP,
		RootPassword:     model.RootPassword,
		DNSRecordID:      model.DNSRecordID,
		Domain:           model.Domain,
		IsFree:           model.IsFree,
		Status:           server.Status(model.Status),
		ErrorMessage:     model.ErrorMessage,
		DeleteRequested:  model.DeleteRequested,
		Version:          model.Version,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct server entity: %w", err)
	}
	return s, nil
}

func ServerToModel(s *server.Server) *models.ServerModel {
	return &models.ServerModel{
		ID:               s.ID(),
		Provider:         s.Provider(),
		ProviderServerID: s.ProviderServerID(),
		LocationID:       s.LocationID(),
		Name:             s.Name(),
		IP:               s.IP(),
		RootPassword:     s.RootPassword(),
		DNSRecordID:      s.DNSRecordID(),
		Domain:           s.Domain(),
		IsFree:           s.IsFree(),
		Status:           s.Status().String(),
		ErrorMessage:     s.ErrorMessage(),
		DeleteRequested:  s.DeleteRequested(),
		Version:          initialVersion(s.Version()),
		CreatedAt:        s.CreatedAt(),
		UpdatedAt:        s.UpdatedAt(),
	}
}

func LocationToEntity(model *models.LocationModel) *server.Location {
	if model == nil {
		return nil
	}
	return &server.Location{ID: model.ID, Code: model.Code, Name: model.Name, Country: model.Country}
}
