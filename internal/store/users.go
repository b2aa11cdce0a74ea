package store

import (
	"context"

	"agentdesk/internal/models"
)

// UserPatch holds the editable profile fields. Nil fields are left unchanged;
// role, manager and creation time are never editable through a patch.
type UserPatch struct {
	FirstName   *string
	LastName    *string
	Email       *string
	WorkID      *string
	NationalID  *string
	PhoneNumber *string
	Password    *string // already hashed
}

func (p UserPatch) columns() map[string]any {
	cols := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	set("first_name", p.FirstName)
	set("last_name", p.LastName)
	set("email", p.Email)
	set("work_id", p.WorkID)
	set("national_id", p.NationalID)
	set("phone_number", p.PhoneNumber)
	set("password", p.Password)
	return cols
}

const userConflict = "A user with this email or work ID already exists"

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return writeErr(s.db.WithContext(ctx).Create(u).Error, userConflict)
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, lookupErr(err, "User")
	}
	return &u, nil
}

// GetUserByCredentials finds the user a login attempt refers to. Email
// matching ignores case.
func (s *Store) GetUserByCredentials(ctx context.Context, workID, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Where("work_id = ? AND LOWER(email) = LOWER(?)", workID, email).
		First(&u).Error
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	return &u, nil
}

// GetUsers loads the users with the given ids, keyed by id. Missing ids are skipped.
func (s *Store) GetUsers(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	out := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// ListUsers returns users holding any of roles, or every user when roles is empty.
func (s *Store) ListUsers(ctx context.Context, roles ...models.Role) ([]models.User, error) {
	var users []models.User
	q := s.db.WithContext(ctx).Order("id")
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	err := q.Find(&users).Error
	return users, err
}

// ListUsersByManager returns the direct reports of managerID, optionally
// restricted to roles.
func (s *Store) ListUsersByManager(ctx context.Context, managerID uint, roles ...models.Role) ([]models.User, error) {
	return s.ListUsersByManagers(ctx, OwnedBy(managerID), roles...)
}

// ListUsersByManagers returns users whose manager passes f.
func (s *Store) ListUsersByManagers(ctx context.Context, f OwnerFilter, roles ...models.Role) ([]models.User, error) {
	var users []models.User
	q := f.apply(s.db.WithContext(ctx), "manager_id").Order("id")
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	err := q.Find(&users).Error
	return users, err
}

func (s *Store) UpdateUser(ctx context.Context, id uint, patch UserPatch) (*models.User, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	if cols := patch.columns(); len(cols) > 0 {
		err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols).Error
		if err != nil {
			return nil, writeErr(err, userConflict)
		}
	}
	return s.GetUser(ctx, id)
}

// SetUserActive flips the soft-deactivation flag.
func (s *Store) SetUserActive(ctx context.Context, id uint, active bool) (*models.User, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", active).Error
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}
