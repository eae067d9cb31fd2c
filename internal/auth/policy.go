package auth

import "museum-registry-backend/internal/model"

// The two authorization policies applied before mutations. They are kept as
// distinct named predicates on purpose: authority update/delete lets staff
// bypass ownership, museum creation does not.

// OwnerOrStaff allows the record owner and any staff account.
func OwnerOrStaff(user *model.User, ownerID uint) bool {
	if user == nil {
		return false
	}
	return user.ID == ownerID || user.IsStaff
}

// OwnerOnly allows the record owner and nobody else, staff included.
func OwnerOnly(user *model.User, ownerID uint) bool {
	if user == nil {
		return false
	}
	return user.ID == ownerID
}
