package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"account-backend/config"
	"account-backend/internal/database"
	"account-backend/internal/models"
	"account-backend/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// Command flags
	createUser     = flag.Bool("create", false, "Create a new user")
	makeAdmin      = flag.Bool("make-admin", false, "Make user an admin")
	removeAdmin    = flag.Bool("remove-admin", false, "Remove admin privileges")
	revokeSessions = flag.Bool("revoke-sessions", false, "Revoke all refresh tokens for a user")
	verifyEmail    = flag.Bool("verify-email", false, "Mark a user's email as verified")

	// User data flags
	email    = flag.String("email", "", "User's email")
	password = flag.String("password", "", "User's password")
	username = flag.String("username", "", "User's username")
	name     = flag.String("name", "", "User's name")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := database.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	ctx := context.Background()
	userRepo := repository.NewUserRepository(database.GetDB())
	refreshRepo := repository.NewRefreshTokenRepository(database.GetDB())

	switch {
	case *createUser:
		return doCreateUser(ctx, userRepo)
	case *makeAdmin:
		return setAdmin(ctx, userRepo, true)
	case *removeAdmin:
		return setAdmin(ctx, userRepo, false)
	case *revokeSessions:
		return doRevokeSessions(ctx, userRepo, refreshRepo)
	case *verifyEmail:
		return doVerifyEmail(ctx, userRepo)
	default:
		flag.Usage()
		return errors.New("no command specified")
	}
}

func doCreateUser(ctx context.Context, userRepo *repository.UserRepository) error {
	if *email == "" || *password == "" || *username == "" {
		return errors.New("email, username and password are required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    *email,
		Username: *username,
		Name:     *name,
		Password: string(hashed),
		Accesses: models.StringArray{"user"},
		IsActive: true,
	}
	if err := userRepo.CreateUser(ctx, user); err != nil {
		return err
	}

	fmt.Printf("Created user %s (%s)\n", user.Username, user.ID)
	return nil
}

func setAdmin(ctx context.Context, userRepo *repository.UserRepository, admin bool) error {
	user, err := lookupUser(ctx, userRepo)
	if err != nil {
		return err
	}

	accesses := models.StringArray{"user"}
	if admin {
		accesses = append(accesses, "admin")
	}
	if err := userRepo.UpdateUserAccesses(ctx, user.ID, accesses); err != nil {
		return err
	}

	fmt.Printf("Updated accesses for %s: %v\n", user.Email, accesses)
	return nil
}

func doRevokeSessions(ctx context.Context, userRepo *repository.UserRepository, refreshRepo *repository.RefreshTokenRepository) error {
	user, err := lookupUser(ctx, userRepo)
	if err != nil {
		return err
	}

	count, err := refreshRepo.RevokeAllForSubject(ctx, user.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Revoked %d refresh token(s) for %s\n", count, user.Email)
	return nil
}

func doVerifyEmail(ctx context.Context, userRepo *repository.UserRepository) error {
	user, err := lookupUser(ctx, userRepo)
	if err != nil {
		return err
	}

	if err := userRepo.MarkEmailVerified(ctx, user.Email); err != nil {
		return err
	}

	fmt.Printf("Marked %s as verified\n", user.Email)
	return nil
}

func lookupUser(ctx context.Context, userRepo *repository.UserRepository) (*models.User, error) {
	if *email == "" {
		return nil, errors.New("email is required")
	}
	user, err := userRepo.GetUserByEmail(ctx, *email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("no user with email %s", *email)
	}
	return user, nil
}
