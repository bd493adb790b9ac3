package enums

// DiscardReason labels why a raw order record was left out of a relationship snapshot.
type DiscardReason string

const (
	DiscardReasonNoPharmacyName   DiscardReason = "no_pharmacy_name"
	DiscardReasonPharmacyNotFound DiscardReason = "pharmacy_not_found"
	DiscardReasonNoRelationships  DiscardReason = "no_relationships"
)

// DiscardReasons lists every reason in reporting order.
var DiscardReasons = []DiscardReason{
	DiscardReasonNoPharmacyName,
	DiscardReasonPharmacyNotFound,
	DiscardReasonNoRelationships,
}

// String returns the literal string for the reason.
func (d DiscardReason) String() string {
	return string(d)
}
