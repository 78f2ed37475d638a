package model

import "gorm.io/gorm"

// Station 航站表 — 对应 stations
type Station struct {
	StationID   string `gorm:"type:uuid;primaryKey"                 json:"station_id"`
	IATACode    string `gorm:"type:varchar(4);not null;uniqueIndex" json:"iata_code"`
	Name        string `gorm:"type:varchar(100)"                    json:"name,omitempty"`
	CountryCode string `gorm:"type:varchar(2);not null"             json:"country_code"`
	Timezone    string `gorm:"type:varchar(50)"                     json:"timezone,omitempty"`
	BaseModel
}

func (Station) TableName() string { return "stations" }

func (s *Station) BeforeCreate(*gorm.DB) error {
	ensureID(&s.StationID)
	return nil
}
