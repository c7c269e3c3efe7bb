// Package policy enforces per-user row ownership. The hosted platform the
// original system ran on enforced this with database row-level policies; here
// every query is user-scoped and fetched rows are re-checked against the
// session user before use.
package policy

// Ownable is an interface for resources that have an owner.
// All domain models implement it.
type Ownable interface {
	GetUserID() uint
}

// Owns reports whether userID owns the resource. Resources that do not
// implement Ownable are denied by default; this prevents accidental access to
// rows without ownership checks.
func Owns(userID uint, resource any) bool {
	if userID == 0 {
		return false
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	return ownable.GetUserID() == userID
}
