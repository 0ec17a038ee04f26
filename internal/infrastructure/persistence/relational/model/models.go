package model

// All lists the tables in dependency order for schema migration.
func All() []any {
	return []any{
		&Question{},
		&Option{},
		&Respondent{},
		&Answer{},
	}
}
