package model

// AllModels lists every table owned by the service, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Channel{},
		&BotUser{},
		&Message{},
		&Media{},
		&WebhookUrl{},
		&WebhookConfiguration{},
		&WebhookHistory{},
		&SyncLog{},
		&GoogleSheetsConfig{},
		&OperationLog{},
	}
}
