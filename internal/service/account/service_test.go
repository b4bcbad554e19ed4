package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/kv"
)

// memoryRepo is a lightweight in-memory user repository for tests.
type memoryRepo struct {
	byEmail map[string]domain.User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byEmail: make(map[string]domain.User)}
}

func (r *memoryRepo) Create(_ context.Context, u domain.User) (*domain.User, error) {
	if _, exists := r.byEmail[u.Email]; exists {
		return nil, domain.ErrAlreadyExists
	}
	clone := u
	clone.ID = "user-" + u.Email
	r.byEmail[u.Email] = clone
	return &clone, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.byEmail[email]; ok {
		clone := u
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func newService(t *testing.T) (*Service, *memoryRepo, kv.Store) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := newMemoryRepo()
	store := kv.NewMemory()
	svc := New(repo, store, Config{
		JWTSecret:  "test-secret",
		SessionTTL: time.Hour,
		Admin:      AdminCredentials{Email: "admin@lavibaby.com", PasswordHash: string(hash)},
	}, nil)
	return svc, repo, store
}

func registration() RegisterInput {
	return RegisterInput{
		Name:            "Maria Silva",
		CPF:             "12345678909",
		Phone:           "11999999999",
		Email:           "Maria@Example.com",
		Password:        "segredo1",
		ConfirmPassword: "segredo1",
		Address: domain.Address{
			CEP:          "01310100",
			Street:       "Avenida Paulista",
			Number:       "1000",
			Neighborhood: "Bela Vista",
			City:         "São Paulo",
			State:        "sp",
		},
		AcceptsTerms: true,
	}
}

func TestRegister_FormatsAndSignsIn(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, registration())
	require.NoError(t, err)
	require.NotNil(t, sess.User)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, domain.RoleUser, sess.User.Role)
	assert.Empty(t, sess.User.PasswordHash)

	stored := repo.byEmail["maria@example.com"]
	assert.Equal(t, "123.456.789-09", stored.CPF)
	assert.Equal(t, "(11) 99999-9999", stored.Phone)
	assert.Equal(t, "01310-100", stored.Address.CEP)
	assert.Equal(t, "SP", stored.Address.State)
	assert.NotEqual(t, "segredo1", stored.PasswordHash)

	u, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, u.ID)
}

func TestRegister_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RegisterInput)
		msg    string
	}{
		{"missing name", func(in *RegisterInput) { in.Name = "" }, "Todos os campos são obrigatórios"},
		{"short cpf", func(in *RegisterInput) { in.CPF = "123.456.789" }, "CPF deve ter 11 dígitos"},
		{"short password", func(in *RegisterInput) { in.Password = "abc"; in.ConfirmPassword = "abc" }, "Senha deve ter pelo menos 6 caracteres"},
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "outra123" }, "Senhas não coincidem"},
		{"blank name", func(in *RegisterInput) { in.Name = "   " }, "Todos os campos são obrigatórios"},
		{"missing confirmation", func(in *RegisterInput) { in.ConfirmPassword = "" }, "Todos os campos são obrigatórios"},
		{"bad email", func(in *RegisterInput) { in.Email = "maria.example.com" }, "Email inválido"},
		{"cpf with letters", func(in *RegisterInput) { in.CPF = "abc.def.ghi-jk" }, "CPF deve ter 11 dígitos"},
		{"missing city", func(in *RegisterInput) { in.Address.City = " " }, "Todos os campos de endereço são obrigatórios"},
		{"short cep", func(in *RegisterInput) { in.Address.CEP = "0131" }, "CEP deve ter 8 dígitos"},
		{"no terms", func(in *RegisterInput) { in.AcceptsTerms = false }, "Você deve aceitar os termos de uso"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _ := newService(t)
			in := registration()
			tc.mutate(&in)
			_, err := svc.Register(context.Background(), in)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.msg, verr.Message)
			assert.Empty(t, repo.byEmail)
		})
	}
}

func TestRegister_AcceptsMaskedInput(t *testing.T) {
	svc, repo, _ := newService(t)
	in := registration()
	in.CPF = "123.456.789-09"
	in.Address.CEP = "01310-100"
	in.Name = "  Maria Silva  "

	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	stored := repo.byEmail["maria@example.com"]
	assert.Equal(t, "Maria Silva", stored.Name)
	assert.Equal(t, "123.456.789-09", stored.CPF)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Register(context.Background(), registration())
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), registration())
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, registration())
	require.NoError(t, err)

	sess, err := svc.Login(ctx, "maria@example.com", "segredo1")
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", sess.User.Email)

	_, err = svc.Login(ctx, "maria@example.com", "errada")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "ninguem@example.com", "segredo1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminLogin(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	sess, err := svc.AdminLogin(ctx, "ADMIN@lavibaby.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, sess.User.Role)

	u, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	_, err = svc.AdminLogin(ctx, "admin@lavibaby.com", "admin124")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	sess, err := svc.AdminLogin(ctx, "admin@lavibaby.com", "admin123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess.Token))
	_, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// a second logout is harmless
	require.NoError(t, svc.Logout(ctx, sess.Token))
}

// ttlStore records the expiry each key was written with.
type ttlStore struct {
	*kv.Memory
	ttls map[string]time.Duration
}

func (s *ttlStore) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.ttls[key] = ttl
	return s.Memory.SetTTL(ctx, key, value, ttl)
}

func TestSessionRecordExpiresWithToken(t *testing.T) {
	store := &ttlStore{Memory: kv.NewMemory(), ttls: map[string]time.Duration{}}
	svc := New(newMemoryRepo(), store, Config{JWTSecret: "test-secret", SessionTTL: 3 * time.Hour}, nil)
	ctx := context.Background()

	sess, err := svc.Register(ctx, registration())
	require.NoError(t, err)
	claims, err := svc.parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Hour, store.ttls[sessionKey(claims.ID)])
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	sess, err := svc.AdminLogin(ctx, "admin@lavibaby.com", "admin123")
	require.NoError(t, err)

	other := New(newMemoryRepo(), kv.NewMemory(), Config{JWTSecret: "other-secret"}, nil)
	_, err = other.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSettingsDefaultsAndPersistence(t *testing.T) {
	svc, _, store := newService(t)
	ctx := context.Background()

	st, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSiteSettings(), st)

	st.CompanyName = "LaviBaby Kids"
	st.FreeShippingMinValue = 20000
	_, err = svc.UpdateSettings(ctx, st)
	require.NoError(t, err)

	reloaded := New(newMemoryRepo(), store, Config{JWTSecret: "x"}, nil)
	got, err := reloaded.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "LaviBaby Kids", got.CompanyName)
	assert.Equal(t, domain.Money(20000), got.FreeShippingMinValue)
}

func TestUpdateSettingsValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	st := domain.DefaultSiteSettings()
	st.CompanyName = " "
	_, err := svc.UpdateSettings(ctx, st)
	assert.Error(t, err)

	st = domain.DefaultSiteSettings()
	st.DiscountPercentage = 101
	_, err = svc.UpdateSettings(ctx, st)
	assert.Error(t, err)

	st = domain.DefaultSiteSettings()
	st.FreeShippingMinValue = -1
	_, err = svc.UpdateSettings(ctx, st)
	assert.Error(t, err)
}
