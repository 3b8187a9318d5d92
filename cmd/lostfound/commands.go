package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/lostfound/registry/internal/auth"
)

type createAdminCommand struct {
	options *Options

	Username string `short:"u" long:"username" description:"account name" required:"true"`
	Password string `short:"p" long:"password" description:"password (generated when omitted)"`
}

func (c *createAdminCommand) Execute([]string) error {
	a, err := openApp(c.options.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := createStaffUser(context.Background(), a, c.Username, c.Password)
	if err != nil {
		return err
	}

	slog.Info("staff account created", "user", c.Username)
	fmt.Printf("Staff account created: %s\n", c.Username)
	if c.Password == "" {
		fmt.Printf("  Password: %s\n", password)
	}
	return nil
}

type setStaffCommand struct {
	options *Options

	Username string `short:"u" long:"username" description:"account name" required:"true"`
	Revoke   bool   `long:"revoke" description:"remove staff status instead of granting it"`
}

func (c *setStaffCommand) Execute([]string) error {
	a, err := openApp(c.options.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	user, err := a.users.GetByUsername(ctx, c.Username)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("no user named %q", c.Username)
	}

	if err := a.users.SetStaff(ctx, user.ID, !c.Revoke); err != nil {
		return err
	}

	slog.Info("staff status changed", "user", c.Username, "staff", !c.Revoke)
	return nil
}

type setPasswordCommand struct {
	options *Options

	Username string `short:"u" long:"username" description:"account name" required:"true"`
	Password string `short:"p" long:"password" description:"new password (generated when omitted)"`
}

func (c *setPasswordCommand) Execute([]string) error {
	a, err := openApp(c.options.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := setPassword(context.Background(), a, c.Username, c.Password)
	if err != nil {
		return err
	}

	slog.Info("password changed", "user", c.Username)
	if c.Password == "" {
		fmt.Printf("  Password: %s\n", password)
	}
	return nil
}

type rotateTokenCommand struct {
	options *Options

	Username string `short:"u" long:"username" description:"account name" required:"true"`
}

func (c *rotateTokenCommand) Execute([]string) error {
	a, err := openApp(c.options.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	user, err := a.users.GetByUsername(ctx, c.Username)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("no user named %q", c.Username)
	}

	token, err := a.tokens.Rotate(ctx, user.ID)
	if err != nil {
		return err
	}

	slog.Info("token rotated", "user", c.Username)
	fmt.Println(token)
	return nil
}

type deleteItemCommand struct {
	options *Options

	ID int64 `long:"id" description:"item id" required:"true"`
}

func (c *deleteItemCommand) Execute([]string) error {
	a, err := openApp(c.options.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	item, err := a.items.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("no item with id %d", c.ID)
	}

	if err := a.items.Delete(ctx, item.ID); err != nil {
		return err
	}
	if item.Image != "" {
		if err := a.blobs.Delete(ctx, item.Image); err != nil {
			slog.Error("failed to remove item photo", "item", item.ID, "key", item.Image, "error", err)
		}
	}

	slog.Info("item deleted", "item", item.ID, "uuid", item.UUID.String())
	return nil
}

type deleteUserCommand struct {
	options *Options

	Username string `short:"u" long:"username" description:"account name" required:"true"`
}

func (c *deleteUserCommand) Execute([]string) error {
	a, err := openApp(c.options.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := deleteUser(context.Background(), a, c.Username)
	if err != nil {
		return err
	}

	slog.Info("user deleted", "user", c.Username, "photos", removed)
	return nil
}

// deleteUser removes a user together with their token, items and item
// photos. It returns the number of photos removed.
func deleteUser(ctx context.Context, a *app, username string) (int, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, fmt.Errorf("no user named %q", username)
	}

	keys, err := a.items.ImageKeys(ctx, user.ID)
	if err != nil {
		return 0, err
	}

	if err := a.users.Delete(ctx, user.ID); err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		if err := a.blobs.Delete(ctx, key); err != nil {
			slog.Error("failed to remove item photo", "user", username, "key", key, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// createStaffUser creates a staff account and returns its password,
// generating one when password is empty.
func createStaffUser(ctx context.Context, a *app, username, password string) (string, error) {
	password, hash, err := hashOrGenerate(password)
	if err != nil {
		return "", err
	}

	if _, err := a.users.Create(ctx, username, hash, true); err != nil {
		return "", fmt.Errorf("creating staff user: %w", err)
	}
	return password, nil
}

// setPassword replaces a user's password and returns it, generating one
// when password is empty.
func setPassword(ctx context.Context, a *app, username, password string) (string, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("no user named %q", username)
	}

	password, hash, err := hashOrGenerate(password)
	if err != nil {
		return "", err
	}

	if err := a.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return "", err
	}
	return password, nil
}

// hashOrGenerate returns password, or a generated one when it is empty,
// together with its bcrypt hash.
func hashOrGenerate(password string) (string, string, error) {
	if password == "" {
		var err error
		password, err = generatePassword(16)
		if err != nil {
			return "", "", fmt.Errorf("generating password: %w", err)
		}
	}
	if err := auth.ValidatePassword(password); err != nil {
		return "", "", fmt.Errorf("invalid password: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", "", err
	}
	return password, hash, nil
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
