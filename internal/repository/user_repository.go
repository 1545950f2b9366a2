package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gradebook-service/internal/domain"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// ErrDuplicate is returned when a username or email is already taken.
var ErrDuplicate = errors.New("username or email already exists")

// UserRepository defines persistence access for gradebook accounts. The rest
// of the system treats the identity store as an opaque collaborator behind
// this interface.
type UserRepository interface {
	// Create stores the user and, depending on the role, its student or
	// teacher profile in one transaction.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertUser = `
        INSERT INTO users (id, username, email, password_hash, first_name, last_name, role_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at, updated_at`

	if err := tx.QueryRow(ctx, insertUser,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.RoleID,
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return mapPgError(err)
	}

	switch user.RoleID {
	case domain.RoleStudent:
		profile := user.Student
		if profile == nil {
			profile = &domain.StudentProfile{}
		}
		const insertStudent = `INSERT INTO students (user_id, class_id, date_of_birth) VALUES ($1, $2, $3)`
		if _, err := tx.Exec(ctx, insertStudent, user.ID, profile.ClassID, profile.DateOfBirth); err != nil {
			return mapPgError(err)
		}
	case domain.RoleTeacher:
		profile := user.Teacher
		if profile == nil {
			profile = &domain.TeacherProfile{}
		}
		const insertTeacher = `INSERT INTO teachers (user_id, specialization, hire_date) VALUES ($1, $2, $3)`
		if _, err := tx.Exec(ctx, insertTeacher, user.ID, profile.Specialization, profile.HireDate); err != nil {
			return mapPgError(err)
		}
	}

	return tx.Commit(ctx)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *userRepository) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	query := `
        SELECT id, username, email, password_hash, first_name, last_name, role_id, created_at, updated_at
        FROM users WHERE ` + column + `=$1`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, value).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.RoleID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
