package models

// SettingType describes how a Setting value should be interpreted
type SettingType string

const (
	SettingTypeString  SettingType = "STRING"
	SettingTypeInteger SettingType = "INTEGER"
	SettingTypeBoolean SettingType = "BOOLEAN"
	SettingTypeDecimal SettingType = "DECIMAL"
)

// Setting is a named runtime setting stored alongside the relational entities
type Setting struct {
	PK          int64       `gorm:"column:pk;primaryKey;autoIncrement" json:"pk"`
	Name        string      `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Value       string      `gorm:"column:value" json:"value"`
	Description string      `gorm:"column:description" json:"description,omitempty"`
	Type        SettingType `gorm:"column:type" json:"type"`
	Deleted     bool        `gorm:"column:deleted;not null;default:false" json:"-"`
}

func (Setting) TableName() string { return "settings" }
