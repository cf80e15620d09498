package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-id/sentinel/internal/shared"
)

type memoryRepo struct {
	users   map[int64]*User
	hashes  map[int64]string
	catalog map[int64]Role
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users:   make(map[int64]*User),
		hashes:  make(map[int64]string),
		catalog: make(map[int64]Role),
	}
}

func (r *memoryRepo) addRole(name string) int64 {
	r.nextID++
	r.catalog[r.nextID] = Role{ID: r.nextID, Name: name}
	return r.nextID
}

func (r *memoryRepo) resolve(roleIDs []int64) ([]Role, error) {
	roles := make([]Role, 0, len(roleIDs))
	for _, id := range roleIDs {
		role, ok := r.catalog[id]
		if !ok {
			return nil, fmt.Errorf("%w: some roles not found", shared.ErrInvalidInput)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func (r *memoryRepo) List(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *u
	clone.Roles = append([]Role(nil), u.Roles...)
	return &clone, nil
}

func (r *memoryRepo) EmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	for id, u := range r.users {
		if id != excludeID && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Create(_ context.Context, user User, passwordHash string, roleIDs []int64) (*User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, fmt.Errorf("%w: user with this email already exists", shared.ErrConflict)
		}
	}
	var roles []Role
	if len(roleIDs) > 0 {
		resolved, err := r.resolve(roleIDs)
		if err != nil {
			return nil, err
		}
		roles = resolved
	} else {
		for _, role := range r.catalog {
			if role.Name == "user" {
				roles = []Role{role}
				break
			}
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	user.Roles = roles
	r.users[user.ID] = &user
	r.hashes[user.ID] = passwordHash
	return r.Get(context.Background(), user.ID)
}

func (r *memoryRepo) Update(_ context.Context, user User) error {
	existing, ok := r.users[user.ID]
	if !ok {
		return shared.ErrNotFound
	}
	roles := existing.Roles
	*existing = user
	existing.Roles = roles
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *memoryRepo) GetPasswordHash(_ context.Context, id int64) (string, error) {
	hash, ok := r.hashes[id]
	if !ok {
		return "", shared.ErrNotFound
	}
	return hash, nil
}

func (r *memoryRepo) SetPasswordHash(_ context.Context, id int64, hash string) error {
	if _, ok := r.hashes[id]; !ok {
		return shared.ErrNotFound
	}
	r.hashes[id] = hash
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.users, id)
	delete(r.hashes, id)
	return nil
}

func (r *memoryRepo) ReplaceRoles(_ context.Context, userID int64, roleIDs []int64) error {
	u, ok := r.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	roles, err := r.resolve(roleIDs)
	if err != nil {
		return err
	}
	u.Roles = roles
	return nil
}

func (r *memoryRepo) RemoveRoles(_ context.Context, userID int64, roleIDs []int64) error {
	u, ok := r.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	drop := make(map[int64]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		drop[id] = struct{}{}
	}
	kept := u.Roles[:0]
	for _, role := range u.Roles {
		if _, gone := drop[role.ID]; !gone {
			kept = append(kept, role)
		}
	}
	u.Roles = kept
	return nil
}

func (r *memoryRepo) SetActive(_ context.Context, id int64, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	return nil
}

var _ Repository = (*memoryRepo)(nil)

func TestCreateUserDefaultRole(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole("user")
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), CreateParams{
		Email:     "Ada@Example.com ",
		Password:  "secret-password",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", user.Email)
	require.True(t, user.IsActive)
	require.Len(t, user.Roles, 1)
	require.Equal(t, "user", user.Roles[0].Name)
}

func TestCreateUserExplicitRoles(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole("user")
	adminID := repo.addRole("admin")
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), CreateParams{
		Email:     "root@example.com",
		Password:  "secret-password",
		FirstName: "Root",
		LastName:  "User",
		RoleIDs:   []int64{adminID},
	})
	require.NoError(t, err)
	require.Len(t, user.Roles, 1)
	require.Equal(t, "admin", user.Roles[0].Name)
}

func TestCreateUserUnknownRole(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.Create(context.Background(), CreateParams{
		Email:     "root@example.com",
		Password:  "secret-password",
		FirstName: "Root",
		LastName:  "User",
		RoleIDs:   []int64{404},
	})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	require.Contains(t, err.Error(), "some roles not found")
}

func TestUpdateUserPatchSemantics(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole("user")
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), CreateParams{
		Email:     "ada@example.com",
		Password:  "secret-password",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)

	first := "Augusta"
	patched, err := svc.Update(context.Background(), user.ID, UpdateParams{FirstName: &first})
	require.NoError(t, err)
	require.Equal(t, "Augusta", patched.FirstName)
	require.Equal(t, "Lovelace", patched.LastName)
	require.Equal(t, "ada@example.com", patched.Email)
	require.Len(t, patched.Roles, 1)
}

func TestUpdateUserEmailConflict(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole("user")
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateParams{
		Email: "first@example.com", Password: "secret-password", FirstName: "A", LastName: "B",
	})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), CreateParams{
		Email: "second@example.com", Password: "secret-password", FirstName: "C", LastName: "D",
	})
	require.NoError(t, err)

	taken := "first@example.com"
	_, err = svc.Update(context.Background(), second.ID, UpdateParams{Email: &taken})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateUserRoleSetSemantics(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole("user")
	adminRole := repo.addRole("admin")
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), CreateParams{
		Email: "ada@example.com", Password: "secret-password", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	require.Len(t, user.Roles, 1)

	// Replace entirely.
	next := []int64{adminRole}
	patched, err := svc.Update(context.Background(), user.ID, UpdateParams{RoleIDs: &next})
	require.NoError(t, err)
	require.Len(t, patched.Roles, 1)
	require.Equal(t, "admin", patched.Roles[0].Name)

	// Nil keeps the current set.
	patched, err = svc.Update(context.Background(), user.ID, UpdateParams{})
	require.NoError(t, err)
	require.Len(t, patched.Roles, 1)

	// Empty clears it.
	empty := []int64{}
	patched, err = svc.Update(context.Background(), user.ID, UpdateParams{RoleIDs: &empty})
	require.NoError(t, err)
	require.Empty(t, patched.Roles)
}

func TestUpdatePassword(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole("user")
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), CreateParams{
		Email: "ada@example.com", Password: "secret-password", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)

	err = svc.UpdatePassword(context.Background(), user.ID, "wrong-password", "next-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	require.NoError(t, svc.UpdatePassword(context.Background(), user.ID, "secret-password", "next-password"))

	// The stored hash changed and now verifies against the new password.
	err = svc.UpdatePassword(context.Background(), user.ID, "next-password", "secret-password")
	require.NoError(t, err)
}

func TestAssignAndRemoveRoles(t *testing.T) {
	repo := newMemoryRepo()
	userRole := repo.addRole("user")
	adminRole := repo.addRole("admin")
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), CreateParams{
		Email: "ada@example.com", Password: "secret-password", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)

	user, err = svc.AssignRoles(context.Background(), user.ID, []int64{userRole, adminRole})
	require.NoError(t, err)
	require.Len(t, user.Roles, 2)

	user, err = svc.RemoveRoles(context.Background(), user.ID, []int64{adminRole})
	require.NoError(t, err)
	require.Len(t, user.Roles, 1)
	require.Equal(t, "user", user.Roles[0].Name)

	_, err = svc.AssignRoles(context.Background(), user.ID, []int64{404})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestToggleStatus(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole("user")
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), CreateParams{
		Email: "ada@example.com", Password: "secret-password", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	require.True(t, user.IsActive)

	user, err = svc.ToggleStatus(context.Background(), user.ID)
	require.NoError(t, err)
	require.False(t, user.IsActive)

	user, err = svc.ToggleStatus(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, user.IsActive)
}

func TestDeleteUser(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole("user")
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), CreateParams{
		Email: "ada@example.com", Password: "secret-password", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), user.ID))
	_, err = svc.Get(context.Background(), user.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.ErrorIs(t, svc.Delete(context.Background(), user.ID), shared.ErrNotFound)
}
