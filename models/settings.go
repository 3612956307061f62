package models

var Languages = []string{"English", "Somali", "Arabic"}

type AppSettings struct {
	Language    string `json:"language" mapstructure:"language" binding:"omitempty,oneof=English Somali Arabic"`
	Theme       string `json:"theme" mapstructure:"theme"`
	OfflineMode bool   `json:"offline_mode" mapstructure:"offline_mode"`
}

func DefaultSettings() AppSettings {
	return AppSettings{Language: "English", Theme: "Modern", OfflineMode: false}
}
