package models

// All lists every persistence model, in creation order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&ResellerModel{},
		&BotModuleModel{},
		&PackModel{},
		&PackBatchModel{},
		&KeyModel{},
		&LocationModel{},
		&ServerModel{},
		&PanelModel{},
		&ServerUserModel{},
		&ViolationModel{},
	}
}
