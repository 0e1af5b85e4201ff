package models

// Todos lista as entidades migradas no boot.
func Todos() []any {
	return []any{
		&User{},
		&Partner{},
		&Lead{},
		&LeadNote{},
		&LeadTask{},
		&Transaction{},
		&Message{},
		&Material{},
	}
}
