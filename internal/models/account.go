package models

// Account is this service's projection of the external identity collaborator.
// Read-mostly: the only write this service ever performs is the minimal
// customer upsert on first contact.
type Account struct {
	ID               string `bson:"_id" json:"id"`
	Name             string `bson:"name" json:"name"`
	Email            string `bson:"email" json:"email"`
	Role             string `bson:"role" json:"role"`
	BusinessCategory string `bson:"business_category,omitempty" json:"business_category,omitempty"`
	// BusinessUnitRef points a non-owner staff account (e.g. a receptionist)
	// at the unit account it acts for. Empty for unit owners themselves.
	BusinessUnitRef string `bson:"business_unit_ref,omitempty" json:"business_unit_ref,omitempty"`
}

// Vendor categories recognized by the platform. An account whose
// business_category is one of these acts as staff for a business unit.
const (
	CategoryLodging  = "lodging"
	CategoryTransit  = "transit"
	CategoryRetail   = "retail"
	CategoryPharmacy = "pharmacy"
)

func IsVendorCategory(c string) bool {
	switch c {
	case CategoryLodging, CategoryTransit, CategoryRetail, CategoryPharmacy:
		return true
	}
	return false
}

const RoleAdmin = "admin"
