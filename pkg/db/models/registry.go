package models

// All lists every model owned by the schema, in dependency order.
func All() []any {
	return []any{
		&Pharmacy{},
		&Manufacturer{},
		&Product{},
		&Strain{},
		&PharmacyRelationship{},
	}
}
