// Package account holds the signed-in user and the editable site settings.
// Sessions are JWTs backed by a KV record so logout revokes them; settings
// live in a single KV entry.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/format"
	"lavibaby-storefront/internal/kv"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the session token is unknown, expired or revoked.
	ErrInvalidToken = errors.New("invalid token")
)

const settingsKey = "siteSettings"

type userRepo interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// AdminCredentials is the single configured administrator.
type AdminCredentials struct {
	Email        string
	PasswordHash string
}

type Config struct {
	JWTSecret  string
	SessionTTL time.Duration
	Admin      AdminCredentials
}

type Service struct {
	users    userRepo
	store    kv.Store
	cfg      Config
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

func New(users userRepo, store kv.Store, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &Service{users: users, store: store, cfg: cfg, logger: logger, validate: newValidator(), now: time.Now}
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

type RegisterInput struct {
	Name              string         `json:"name" validate:"required"`
	CPF               string         `json:"cpf" validate:"required,digits=11"`
	Phone             string         `json:"phone" validate:"required"`
	Email             string         `json:"email" validate:"required,email"`
	Password          string         `json:"password" validate:"required,min=6"`
	ConfirmPassword   string         `json:"confirmPassword" validate:"required,eqfield=Password"`
	Address           domain.Address `json:"address"`
	AcceptsTerms      bool           `json:"acceptsTerms" validate:"eq=true"`
	AcceptsNewsletter bool           `json:"acceptsNewsletter"`
}

// Register creates a user and signs them in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in = normalizeRegistration(in)
	if err := s.validateRegistration(in); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	addr := in.Address
	addr.CEP = format.CEP(addr.CEP)
	addr.State = strings.ToUpper(addr.State)

	u, err := s.users.Create(ctx, domain.User{
		Email:             strings.ToLower(in.Email),
		Role:              domain.RoleUser,
		Name:              in.Name,
		CPF:               format.CPF(in.CPF),
		Phone:             format.Phone(in.Phone),
		Address:           &addr,
		AcceptsNewsletter: in.AcceptsNewsletter,
		PasswordHash:      string(hashed),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.NewValidationError("email", "Email já cadastrado")
		}
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return s.issue(ctx, u)
}

// Login signs in a registered user.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, u)
}

// AdminLogin signs in the configured administrator.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*Session, error) {
	if s.cfg.Admin.Email == "" || s.cfg.Admin.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !strings.EqualFold(strings.TrimSpace(email), s.cfg.Admin.Email) {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	admin := &domain.User{
		ID:    "1",
		Email: s.cfg.Admin.Email,
		Role:  domain.RoleAdmin,
		Name:  "Administrador",
	}
	s.logger.Info("admin signed in")
	return s.issue(ctx, admin)
}

// Authenticate returns the user behind a session token. The token must be
// validly signed and its session record must still exist.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	var u domain.User
	if err := kv.GetJSON(ctx, s.store, sessionKey(claims.ID), &u); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return &u, nil
}

// Logout revokes the session. Logging out an unknown session is not an
// error.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return ErrInvalidToken
	}
	return s.store.Delete(ctx, sessionKey(claims.ID))
}

type claims struct {
	Role  domain.Role `json:"role"`
	Email string      `json:"email"`
	jwt.RegisteredClaims
}

func (s *Service) issue(ctx context.Context, u *domain.User) (*Session, error) {
	now := s.now()
	exp := now.Add(s.cfg.SessionTTL)
	jti := uuid.NewString()
	c := claims{
		Role:  u.Role,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	// the record is what makes the token usable; it never carries the hash
	// and expires with the token
	record := *u
	record.PasswordHash = ""
	if err := kv.SetJSONTTL(ctx, s.store, sessionKey(jti), record, s.cfg.SessionTTL); err != nil {
		return nil, err
	}
	return &Session{Token: signed, ExpiresAt: exp, User: &record}, nil
}

func (s *Service) parse(token string) (*claims, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || c.ID == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

func sessionKey(jti string) string {
	return "session:" + jti
}

func newValidator() *validator.Validate {
	v := validator.New()
	// digits=N counts only the digits, so masked input like 123.456.789-09
	// passes.
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return fmt.Sprint(len(format.Digits(fl.Field().String()))) == fl.Param()
	})
	return v
}

func normalizeRegistration(in RegisterInput) RegisterInput {
	in.Name = strings.TrimSpace(in.Name)
	in.CPF = strings.TrimSpace(in.CPF)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	a := &in.Address
	a.CEP = strings.TrimSpace(a.CEP)
	a.Street = strings.TrimSpace(a.Street)
	a.Number = strings.TrimSpace(a.Number)
	a.Complement = strings.TrimSpace(a.Complement)
	a.Neighborhood = strings.TrimSpace(a.Neighborhood)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	return in
}

// registrationMessages lists the form checks in the order the form reports
// them; only the first failing one is shown.
var registrationMessages = []struct {
	field, tag string
	key, msg   string
}{
	{"CPF", "digits", "cpf", "CPF deve ter 11 dígitos"},
	{"Password", "min", "password", "Senha deve ter pelo menos 6 caracteres"},
	{"ConfirmPassword", "eqfield", "confirmPassword", "Senhas não coincidem"},
	{"Email", "email", "email", "Email inválido"},
	{"Address", "", "address", "Todos os campos de endereço são obrigatórios"},
	{"AcceptsTerms", "", "acceptsTerms", "Você deve aceitar os termos de uso"},
}

func (s *Service) validateRegistration(in RegisterInput) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		failed := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			field := fe.StructField()
			if strings.Contains(fe.StructNamespace(), ".Address.") {
				field = "Address"
			} else if fe.Tag() == "required" {
				return domain.NewValidationError("form", "Todos os campos são obrigatórios")
			}
			if _, seen := failed[field]; !seen {
				failed[field] = fe.Tag()
			}
		}
		for _, m := range registrationMessages {
			if tag, ok := failed[m.field]; ok && (m.tag == "" || m.tag == tag) {
				return domain.NewValidationError(m.key, m.msg)
			}
		}
		return domain.NewValidationError("form", "Preencha todos os campos obrigatórios")
	}
	if len(format.Digits(in.Address.CEP)) != 8 {
		return domain.NewValidationError("cep", "CEP deve ter 8 dígitos")
	}
	return nil
}
