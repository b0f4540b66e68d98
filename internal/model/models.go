package model

// All lists every persisted model for migrations
func All() []interface{} {
	return []interface{}{
		&Account{},
		&Item{},
		&Request{},
		&Notification{},
		&Package{},
		&Payment{},
	}
}
