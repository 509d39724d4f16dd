package models

// TrashItem - запись каталога. Справочные данные, ядро их не меняет.
type TrashItem struct {
	ID               int64   `db:"id" json:"id"`
	Category         string  `db:"category" json:"category"`
	BaseValue        float64 `db:"base_value" json:"base_value"`
	RequiredAccuracy float64 `db:"required_accuracy" json:"required_accuracy"`
}
