package models

type CallerKind int

const (
	KindCustomer CallerKind = iota
	KindStaff
	KindAdmin
)

func (k CallerKind) String() string {
	switch k {
	case KindStaff:
		return "staff"
	case KindAdmin:
		return "admin"
	default:
		return "customer"
	}
}

// CallerIdentity is the classified caller, produced once by the identity
// resolver and carried through the send and read paths. PartyID is the id
// that appears on messages: for staff it is the business unit's account id,
// never the individual staff member's.
type CallerIdentity struct {
	Kind    CallerKind
	PartyID string
	// StaffID is the individual account acting for the unit; set only for
	// KindStaff, and only informational (display fields still come from the
	// unit account).
	StaffID string
	Account Account
}

func Customer(a Account) CallerIdentity {
	return CallerIdentity{Kind: KindCustomer, PartyID: a.ID, Account: a}
}

func StaffForUnit(unit Account, staffID string) CallerIdentity {
	return CallerIdentity{Kind: KindStaff, PartyID: unit.ID, StaffID: staffID, Account: unit}
}

func Admin(a Account) CallerIdentity {
	return CallerIdentity{Kind: KindAdmin, PartyID: a.ID, Account: a}
}
