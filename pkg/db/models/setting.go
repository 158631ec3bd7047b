package models

// Setting is a key/value pair. Most keys are opaque to the core; lastSync and
// lowStockThreshold are the exceptions read from here.
type Setting struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value;not null"`
}
