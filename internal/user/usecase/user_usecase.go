// Package usecase implements user registration. Registering a user enqueues a
// UserCreated event in the same transaction as the insert.
package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/allisson/go-pwdhash"
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/pubflow/internal/database"
	apperrors "github.com/allisson/pubflow/internal/errors"
	eventDomain "github.com/allisson/pubflow/internal/event/domain"
	eventUseCase "github.com/allisson/pubflow/internal/event/usecase"
	"github.com/allisson/pubflow/internal/user/domain"
	appValidation "github.com/allisson/pubflow/internal/validation"
)

// RegisterUserInput contains the input data for user registration.
type RegisterUserInput struct {
	Name     string
	Email    string
	Password string
}

// UseCase defines the user operations.
type UseCase interface {
	RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// Email resolves the address of a user referenced by id in an event payload.
	Email(ctx context.Context, userID string) (string, error)
}

// UserRepository defines user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// EventEnqueuer stores events. Joins the caller's transaction when one is open.
type EventEnqueuer interface {
	Enqueue(ctx context.Context, input eventUseCase.EnqueueInput) (*eventDomain.Event, error)
}

// UserUseCase handles user business logic.
type UserUseCase struct {
	txManager      database.TxManager
	userRepo       UserRepository
	events         EventEnqueuer
	passwordHasher *pwdhash.PasswordHasher
	now            func() time.Time
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	events EventEnqueuer,
) (*UserUseCase, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	return &UserUseCase{
		txManager:      txManager,
		userRepo:       userRepo,
		events:         events,
		passwordHasher: hasher,
		now:            time.Now,
	}, nil
}

func validateRegisterUserInput(input RegisterUserInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
			appValidation.PasswordStrength{
				MinLength:      8,
				RequireUpper:   true,
				RequireLower:   true,
				RequireNumber:  true,
				RequireSpecial: true,
			},
		),
	)
	return appValidation.WrapValidationError(err)
}

// RegisterUser stores a new user and enqueues UserCreated{user, name, email}.
// Either both are stored or neither is.
func (uc *UserUseCase) RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error) {
	if err := validateRegisterUserInput(input); err != nil {
		return nil, err
	}

	hashedPassword, err := uc.passwordHasher.Hash([]byte(input.Password))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	now := uc.now().UTC()
	user := &domain.User{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(strings.ToLower(input.Email)),
		Password:  hashedPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}

	payload, err := json.Marshal(map[string]string{
		"user":  user.ID.String(),
		"name":  user.Name,
		"email": user.Email,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal event payload")
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.userRepo.Create(ctx, user); err != nil {
			return err
		}

		_, err := uc.events.Enqueue(ctx, eventUseCase.EnqueueInput{
			Type:    eventDomain.TypeUserCreated,
			Payload: payload,
		})
		if err != nil {
			return apperrors.Wrap(err, "failed to enqueue user created event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByID retrieves a user by ID.
func (uc *UserUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

// Email returns the address of the user. Ids that are not UUIDs cannot match
// any user and return domain.ErrUserNotFound.
func (uc *UserUseCase) Email(ctx context.Context, userID string) (string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", domain.ErrUserNotFound
	}

	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}
