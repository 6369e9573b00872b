package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"linkshare/internal/config"
	"linkshare/internal/lib/email"
	sl "linkshare/internal/lib/logger"
	"linkshare/internal/lib/password"
	"linkshare/internal/lib/tokens"
	"linkshare/internal/models"
	"linkshare/internal/storage"

	"github.com/teris-io/shortid"
)

var (
	ErrEmailTaken         = errors.New("email is taken")
	ErrExpiredLink        = errors.New("expired link")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingToken       = errors.New("missing token")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSaveFailed         = errors.New("save failed")

	// ErrEmailSendFailed reports a failed activation/reset email. The token
	// (or the persisted reset link) has already been issued by the time the
	// send fails, so callers surface a soft "try again" message instead of
	// failing the operation.
	ErrEmailSendFailed = errors.New("email send failed")
)

type UserSaver interface {
	SaveUser(ctx context.Context, u models.User) (int64, error)
	SetResetLink(ctx context.Context, userID int64, resetLink string) error
	ResetPassword(ctx context.Context, userID int64, hashedPassword, salt string) error
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByResetLink(ctx context.Context, resetLink string) (models.User, error)
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.EmailMessage) error
}

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	publisher   Publisher
	tokens      config.Tokens
	clientURL   string
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	publisher Publisher,
	tokens config.Tokens,
	clientURL string,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		publisher:   publisher,
		tokens:      tokens,
		clientURL:   clientURL,
	}
}

// Register starts a new registration. No user row is created here: the whole
// pending registration travels inside the activation token emailed to the
// user, and expires with it.
func (a *Auth) Register(ctx context.Context, name, emailAddr, pass string, categories []int64) error {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))

	emailAddr = strings.ToLower(emailAddr)

	_, err := a.usrProvider.UserByEmail(ctx, emailAddr)
	if err == nil {
		log.Warn("email already registered")
		return ErrEmailTaken
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		log.Error("failed to check email", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := tokens.NewActivationToken(name, emailAddr, pass, categories, a.tokens.ActivationSecret, a.tokens.ActivationTTL)
	if err != nil {
		log.Error("failed to issue activation token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.publisher.SendMessage(ctx, email.Activation(a.clientURL, emailAddr, token)); err != nil {
		log.Error("failed to queue activation email", sl.Err(err))
		return ErrEmailSendFailed
	}

	log.Info("activation email queued")

	return nil
}

// RegisterActivate completes a registration: the only point where a user row
// comes into existence. A duplicate-email pre-check guards the race between
// two activations, with the store's unique index as the real backstop.
func (a *Auth) RegisterActivate(ctx context.Context, token string) error {
	const op = "auth.RegisterActivate"

	log := a.log.With(slog.String("op", op))

	claims, err := tokens.ParseActivationToken(token, a.tokens.ActivationSecret)
	if err != nil {
		log.Warn("invalid activation token", sl.Err(err))
		return ErrExpiredLink
	}

	_, err = a.usrProvider.UserByEmail(ctx, claims.Email)
	if err == nil {
		log.Warn("email already registered")
		return ErrEmailTaken
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		log.Error("failed to check email", sl.Err(err))
		return ErrSaveFailed
	}

	username, err := generateUsername()
	if err != nil {
		log.Error("failed to generate username", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	hash, salt := password.Set(claims.Password)

	user := models.User{
		Username:       username,
		Name:           claims.Name,
		Email:          claims.Email,
		HashedPassword: hash,
		Salt:           salt,
		Role:           models.RoleSubscriber,
		Categories:     claims.Categories,
	}

	if _, err := a.usrSaver.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return ErrEmailTaken
		}

		log.Error("failed to save user", sl.Err(err))
		return ErrSaveFailed
	}

	log.Info("user activated", slog.String("username", username))

	return nil
}

// Login checks credentials and returns a session token plus the public
// projection of the user.
func (a *Auth) Login(ctx context.Context, emailAddr, pass string) (string, models.PublicUser, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, strings.ToLower(emailAddr))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return "", models.PublicUser{}, ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return "", models.PublicUser{}, fmt.Errorf("%s: %w", op, err)
	}

	if !password.Authenticate(pass, user.Salt, user.HashedPassword) {
		log.Info("invalid credentials")
		return "", models.PublicUser{}, ErrInvalidCredentials
	}

	token, err := tokens.NewSessionToken(user.ID, a.tokens.SessionSecret, a.tokens.SessionTTL)
	if err != nil {
		log.Error("failed to issue session token", sl.Err(err))
		return "", models.PublicUser{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.Int64("uid", user.ID))

	return token, user.Public(), nil
}

// ForgotPassword issues a reset token and mirrors it into the user row, so a
// later reset can be checked against the current outstanding token. A second
// request supersedes the first.
func (a *Auth) ForgotPassword(ctx context.Context, emailAddr string) error {
	const op = "auth.ForgotPassword"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, strings.ToLower(emailAddr))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := tokens.NewResetToken(user.Name, a.tokens.ResetSecret, a.tokens.ResetTTL)
	if err != nil {
		log.Error("failed to issue reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.usrSaver.SetResetLink(ctx, user.ID, token); err != nil {
		log.Error("failed to persist reset link", sl.Err(err))
		return ErrSaveFailed
	}

	if err := a.publisher.SendMessage(ctx, email.PasswordReset(a.clientURL, user.Email, token)); err != nil {
		log.Error("failed to queue reset email", sl.Err(err))
		return ErrEmailSendFailed
	}

	log.Info("reset email queued", slog.Int64("uid", user.ID))

	return nil
}

// ResetPassword consumes an outstanding reset token. The token must both
// verify and exactly match the reset link stored on a user row; a token
// superseded by a newer request, or already consumed, matches no row.
func (a *Auth) ResetPassword(ctx context.Context, resetLink, newPassword string) error {
	const op = "auth.ResetPassword"

	log := a.log.With(slog.String("op", op))

	if resetLink == "" {
		return ErrMissingToken
	}

	if _, err := tokens.ParseResetToken(resetLink, a.tokens.ResetSecret); err != nil {
		log.Warn("invalid reset token", sl.Err(err))
		return ErrExpiredLink
	}

	user, err := a.usrProvider.UserByResetLink(ctx, resetLink)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("no user with this reset link")
			return ErrInvalidToken
		}

		log.Error("failed to look up reset link", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	hash, salt := password.Set(newPassword)

	if err := a.usrSaver.ResetPassword(ctx, user.ID, hash, salt); err != nil {
		log.Error("failed to reset password", sl.Err(err))
		return ErrSaveFailed
	}

	log.Info("password reset", slog.Int64("uid", user.ID))

	return nil
}

// generateUsername produces a short random id, lowercased to satisfy the
// username constraints (unique, at most 12 chars).
func generateUsername() (string, error) {
	id, err := shortid.Generate()
	if err != nil {
		return "", err
	}

	username := strings.ToLower(id)
	if len(username) > 12 {
		username = username[:12]
	}

	return username, nil
}
