package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ParthDhoot27/stichUP/config"
	"github.com/ParthDhoot27/stichUP/models"
	"github.com/ParthDhoot27/stichUP/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MinPasswordLength is the shortest password accepted at signup
const MinPasswordLength = 6

// AuthService handles signup, login and phone verification
type AuthService struct {
	db     *gorm.DB
	tokens *TokenService
	otps   OTPStore
	otpTTL time.Duration
	now    func() time.Time
}

// AuthResult is returned by every successful sign-in path
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// SignupInput is the data needed to register an account
type SignupInput struct {
	Name      string
	Email     string
	Phone     string
	Password  string
	Role      string
	Address   string
	Latitude  *float64
	Longitude *float64
}

// NewAuthService creates an auth service backed by db
func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:     db,
		tokens: NewTokenService(cfg),
		otps:   GetOTPStore(),
		otpTTL: cfg.OTPTTL,
		now:    time.Now,
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func duplicateIdentity(field string) *AppError {
	message := "Account already exists"
	switch field {
	case "email":
		message = "Email already registered"
	case "phone":
		message = "Phone number already registered"
	}
	return &AppError{Code: CodeDuplicateIdentity, Message: message, Details: map[string]string{field: message}}
}

// Signup registers a customer or tailor account and signs it in
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	phone := utils.NormalizePhone(in.Phone)
	if !utils.IsValidPhone(phone) {
		return nil, fieldError("phone", "must contain 10 to 15 digits")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fieldError("password", "must be at least 6 characters")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fieldError("name", "name is required")
	}

	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if role != models.RoleCustomer && role != models.RoleTailor {
		return nil, fieldError("role", "must be customer or tailor")
	}

	var email *string
	if e := normalizeEmail(in.Email); e != "" {
		email = &e
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("phone = ?", phone).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, duplicateIdentity("phone")
	}
	if email != nil {
		if err := db.Model(&models.User{}).Where("email = ?", *email).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, duplicateIdentity("email")
		}
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Phone:        phone,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Address:      strings.TrimSpace(in.Address),
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		CreditLimit:  models.DefaultCreditLimit,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			return nil, duplicateIdentity(utils.DuplicateField(err))
		}
		return nil, err
	}

	log.Info().Uint("user_id", user.ID).Str("role", role).Msg("user signed up")
	return s.signIn(user)
}

// Login authenticates by phone number or email address
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	invalid := &AppError{Code: CodeInvalidCredentials, Message: "Invalid phone/email or password"}

	query := s.db.WithContext(ctx)
	if strings.Contains(identifier, "@") {
		query = query.Where("email = ?", normalizeEmail(identifier))
	} else {
		query = query.Where("phone = ?", utils.NormalizePhone(identifier))
	}

	var user models.User
	if err := query.First(&user).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, invalid
	}
	if !user.IsActive {
		return nil, forbidden("Account is deactivated")
	}

	return s.signIn(&user)
}

// SendOTP issues a fresh code for phone, replacing any pending one.
// The code is returned so the caller can deliver it.
func (s *AuthService) SendOTP(ctx context.Context, phone string) (string, error) {
	phone = utils.NormalizePhone(phone)
	if !utils.IsValidPhone(phone) {
		return "", fieldError("phone", "must contain 10 to 15 digits")
	}

	code, err := GenerateOTP()
	if err != nil {
		return "", err
	}
	entry := OTPEntry{Code: code, ExpiresAt: s.now().Add(s.otpTTL)}
	if err := s.otps.Save(ctx, phone, entry); err != nil {
		return "", err
	}

	log.Info().Str("phone", maskPhone(phone)).Time("expires_at", entry.ExpiresAt).Msg("otp issued")
	return code, nil
}

// VerifyOTP consumes a code and signs in the account for phone, creating
// a customer account on first verification
func (s *AuthService) VerifyOTP(ctx context.Context, phone, code string) (*AuthResult, error) {
	phone = utils.NormalizePhone(phone)
	if !utils.IsValidPhone(phone) {
		return nil, fieldError("phone", "must contain 10 to 15 digits")
	}
	if len(code) != OTPLength {
		return nil, fieldError("otp", "must be 6 digits")
	}

	switch err := s.otps.Consume(ctx, phone, code); {
	case errors.Is(err, ErrOTPNotFound):
		return nil, &AppError{Code: CodeOTPNotFound, Message: "OTP not found. Please request a new one."}
	case errors.Is(err, ErrOTPExpired):
		return nil, &AppError{Code: CodeOTPExpired, Message: "OTP has expired. Please request a new one."}
	case errors.Is(err, ErrOTPMismatch):
		return nil, &AppError{Code: CodeOTPInvalid, Message: "Invalid OTP"}
	case err != nil:
		return nil, err
	}

	user, err := s.findOrCreateByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, forbidden("Account is deactivated")
	}
	return s.signIn(user)
}

func (s *AuthService) findOrCreateByPhone(ctx context.Context, phone string) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Where("phone = ?", phone).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !utils.IsNotFound(err) {
		return nil, err
	}

	user = models.User{
		Phone:       phone,
		Role:        models.RoleCustomer,
		CreditLimit: models.DefaultCreditLimit,
		IsActive:    true,
	}
	if err := db.Create(&user).Error; err != nil {
		// a concurrent verification created it first
		if utils.IsUniqueViolation(err) {
			if err := db.Where("phone = ?", phone).First(&user).Error; err != nil {
				return nil, err
			}
			return &user, nil
		}
		return nil, err
	}
	log.Info().Uint("user_id", user.ID).Msg("user created from phone verification")
	return &user, nil
}

// ChangePassword replaces the password after checking the current one.
// Accounts created by phone verification have no password and may set one directly.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if len(next) < MinPasswordLength {
		return fieldError("new_password", "must be at least 6 characters")
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if utils.IsNotFound(err) {
			return notFound("User")
		}
		return err
	}
	if user.PasswordHash != "" && bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return &AppError{Code: CodeInvalidCredentials, Message: "Current password is incorrect"}
	}

	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	return db.Model(&user).Update("password_hash", hash).Error
}

// EnsureAdmin creates or promotes the bootstrap admin account
func (s *AuthService) EnsureAdmin(ctx context.Context, phone, password string) (*models.User, error) {
	phone = utils.NormalizePhone(phone)
	if !utils.IsValidPhone(phone) {
		return nil, fieldError("phone", "must contain 10 to 15 digits")
	}
	if len(password) < MinPasswordLength {
		return nil, fieldError("password", "must be at least 6 characters")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var user models.User
	err = db.Where("phone = ?", phone).First(&user).Error
	switch {
	case err == nil:
		if err := db.Model(&user).Updates(map[string]interface{}{
			"role":          models.RoleAdmin,
			"password_hash": hash,
			"is_active":     true,
		}).Error; err != nil {
			return nil, err
		}
		user.Role = models.RoleAdmin
		user.IsActive = true
	case utils.IsNotFound(err):
		user = models.User{
			Name:         "Administrator",
			Phone:        phone,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			CreditLimit:  models.DefaultCreditLimit,
			IsActive:     true,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	log.Info().Uint("user_id", user.ID).Msg("admin account ready")
	return &user, nil
}

func (s *AuthService) signIn(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
