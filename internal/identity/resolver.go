package identity

import (
	"context"
	"errors"

	"github.com/Musanse/shiteni-sub006/internal/apperr"
	"github.com/Musanse/shiteni-sub006/internal/models"
	"github.com/Musanse/shiteni-sub006/internal/repository"
)

// Caller is what the auth layer knows about the authenticated caller before
// classification: the token claims, nothing more.
type Caller struct {
	ID    string
	Email string
	Name  string
}

// Resolver classifies callers and resolves counterparts against the account
// directory. Classification happens exactly once per request; everything
// downstream switches on the resulting CallerIdentity.
type Resolver struct {
	dir repository.Directory
}

func NewResolver(dir repository.Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve loads the caller's account and classifies it. A caller with no
// account yet (first-ever contact) gets a minimal customer record created as
// a side effect; that upsert is idempotent.
func (r *Resolver) Resolve(ctx context.Context, c Caller) (models.CallerIdentity, error) {
	a, err := r.dir.FindByID(ctx, c.ID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		if c.Email == "" {
			return models.CallerIdentity{}, apperr.Unauthorized("caller has no account and no email to create one")
		}
		a, err = r.dir.EnsureCustomer(ctx, c.Email, c.Name)
	}
	if err != nil {
		return models.CallerIdentity{}, apperr.Storage("resolve caller", err)
	}
	return r.Classify(ctx, a)
}

// Classify maps an account to its tagged identity. For staff the canonical
// party id is the business unit's account id: a staff member that does not
// itself own the unit (business_unit_ref set) is substituted with the owning
// unit account.
func (r *Resolver) Classify(ctx context.Context, a *models.Account) (models.CallerIdentity, error) {
	switch {
	case a.Role == models.RoleAdmin:
		return models.Admin(*a), nil
	case models.IsVendorCategory(a.BusinessCategory):
		if a.BusinessUnitRef == "" {
			return models.StaffForUnit(*a, a.ID), nil
		}
		unit, err := r.dir.FindByID(ctx, a.BusinessUnitRef)
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.CallerIdentity{}, apperr.NotFound("business unit", a.BusinessUnitRef)
		}
		if err != nil {
			return models.CallerIdentity{}, apperr.Storage("resolve business unit", err)
		}
		return models.StaffForUnit(*unit, a.ID), nil
	default:
		return models.Customer(*a), nil
	}
}

// ResolveCounterpart finds the other party of a send by id, falling back to
// an email lookup. The fallback is a compatibility behavior: if an email is
// reused across roles it can match the wrong account, so it must never be
// relied on as a security boundary.
func (r *Resolver) ResolveCounterpart(ctx context.Context, targetID string) (models.CallerIdentity, error) {
	a, err := r.dir.FindByID(ctx, targetID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		a, err = r.dir.FindByEmail(ctx, targetID)
	}
	if errors.Is(err, repository.ErrAccountNotFound) {
		return models.CallerIdentity{}, apperr.NotFound("counterpart", targetID)
	}
	if err != nil {
		return models.CallerIdentity{}, apperr.Storage("resolve counterpart", err)
	}
	return r.Classify(ctx, a)
}
