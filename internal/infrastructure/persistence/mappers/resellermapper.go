package mappers

import (
	"github.com/orris-inc/keyhub/internal/domain/reseller"
	"github.com/orris-inc/keyhub/internal/infrastructure/persistence/models"
)

func ResellerToEntity(model *models.ResellerModel) *reseller.Reseller {
	if model == nil {
		return nil
	}
	var token string
	if model.BotToken != nil {
		token = *model.BotToken
	}
	r := reseller.ReconstructReseller(model.ID, model.Name, token, model.Lang, model.CreatedAt, model.UpdatedAt)
	r.SetInstructions(model.Instructions)
	return r
}

func ResellerToModel(r *reseller.Reseller) *models.ResellerModel {
	var token *string
	if r.HasOwnBot() {
		t := r.BotToken()
		token = &t
	}
	return &models.ResellerModel{
		ID:           r.ID(),
		Name:         r.Name(),
		BotToken:     token,
		Lang:         r.Lang(),
		Instructions: r.Instructions(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
}

func BotModuleToEntity(model *models.BotModuleModel) *reseller.BotModule {
	if model == nil {
		return nil
	}
	return reseller.ReconstructBotModule(model.ID, model.ResellerID, model.BotToken, model.BotUsername, model.CreatedAt)
}

func BotModuleToModel(m *reseller.BotModule) *models.BotModuleModel {
	return &models.BotModuleModel{
		ID:          m.ID(),
		ResellerID:  m.ResellerID(),
		BotToken:    m.BotToken(),
		BotUsername: m.BotUsername(),
		CreatedAt:   m.CreatedAt(),
	}
}
