package services

import (
	"context"
	"errors"
	"testing"

	"github.com/openlms/course-service/internal/models"
)

func TestUserService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("defaults to student and normalizes email", func(t *testing.T) {
		user, err := env.users.Register(ctx, &RegisterRequest{
			Email:     "  Alice@Example.COM ",
			Password:  "secret-password",
			FirstName: "Alice",
			LastName:  "Smith",
		})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if user.Email != "alice@example.com" {
			t.Errorf("Expected normalized email, got %q", user.Email)
		}
		if user.Role != models.RoleStudent {
			t.Errorf("Expected default role student, got %s", user.Role)
		}
		if user.PasswordHash == "secret-password" {
			t.Error("Password stored in plain text")
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		_, err := env.users.Register(ctx, &RegisterRequest{
			Email:     "ALICE@example.com",
			Password:  "another-password",
			FirstName: "Other",
			LastName:  "Alice",
		})
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Errorf("Expected ErrDuplicateEmail, got %v", err)
		}
	})
}

func TestUserService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.users.Register(ctx, &RegisterRequest{
		Email:     "bob@example.com",
		Password:  "correct-horse",
		FirstName: "Bob",
		LastName:  "Jones",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	t.Run("valid credentials return a token", func(t *testing.T) {
		auth, err := env.users.Login(ctx, &LoginRequest{
			Email:    "bob@example.com",
			Password: "correct-horse",
		})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if auth.AccessToken == "" {
			t.Error("Expected a non-empty access token")
		}
		if auth.TokenType != "Bearer" {
			t.Errorf("Expected Bearer token type, got %q", auth.TokenType)
		}
		if auth.User == nil || auth.User.Email != "bob@example.com" {
			t.Error("Expected the authenticated user in the response")
		}
	})

	// Both failure causes map to the same error so the response never
	// reveals whether the email is registered.
	t.Run("wrong password", func(t *testing.T) {
		_, err := env.users.Login(ctx, &LoginRequest{
			Email:    "bob@example.com",
			Password: "wrong-password",
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := env.users.Login(ctx, &LoginRequest{
			Email:    "nobody@example.com",
			Password: "correct-horse",
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "carol@example.com", models.RoleStudent)
	other := env.createUser(t, "dave@example.com", models.RoleStudent)

	t.Run("profile is created on first update", func(t *testing.T) {
		if _, err := env.users.GetProfile(ctx, user.ID); !errors.Is(err, ErrProfileNotFound) {
			t.Fatalf("Expected ErrProfileNotFound before first update, got %v", err)
		}

		country := "za"
		profile, err := env.users.UpdateProfile(ctx, user.ID, &ProfileUpdateRequest{Country: &country}, user.ID)
		if err != nil {
			t.Fatalf("UpdateProfile failed: %v", err)
		}
		if profile.Country != "ZA" {
			t.Errorf("Expected country uppercased to ZA, got %q", profile.Country)
		}

		if _, err := env.users.GetProfile(ctx, user.ID); err != nil {
			t.Errorf("Expected profile to exist after update: %v", err)
		}
	})

	t.Run("other users cannot touch the profile", func(t *testing.T) {
		bio := "not mine"
		_, err := env.users.UpdateProfile(ctx, user.ID, &ProfileUpdateRequest{Bio: &bio}, other.ID)
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			t.Errorf("Expected PermissionError, got %v", err)
		}
	})

	t.Run("admins can", func(t *testing.T) {
		admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
		bio := "updated by admin"
		profile, err := env.users.UpdateProfile(ctx, user.ID, &ProfileUpdateRequest{Bio: &bio}, admin.ID)
		if err != nil {
			t.Fatalf("UpdateProfile by admin failed: %v", err)
		}
		if profile.Bio == nil || *profile.Bio != bio {
			t.Error("Expected bio to be updated")
		}
	})
}

func TestUserService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "gone@example.com", models.RoleStudent)
	tz := "Europe/Berlin"
	if _, err := env.users.UpdateProfile(ctx, user.ID, &ProfileUpdateRequest{Timezone: &tz}, user.ID); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	if err := env.users.Delete(ctx, user.ID, user.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := env.users.GetByID(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound after delete, got %v", err)
	}

	var count int64
	env.db.Model(&models.UserProfile{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected profile to be removed with the user, found %d rows", count)
	}
}
