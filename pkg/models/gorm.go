package models

// ModelsToAutoMigrate lists the models managed by gorm's AutoMigrate, in
// dependency order.
func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&ContentType{},
		&Item{},
		&ItemMeta{},
		&Term{},
		&Media{},
		&Linkage{},
		&Subscription{},
	}
}
