package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/tokenbid-backend/internal/logger"
	"github.com/ignatzorin/tokenbid-backend/internal/models"
	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
	"github.com/ignatzorin/tokenbid-backend/internal/repository"
	"github.com/ignatzorin/tokenbid-backend/internal/validation"
)

var errInvalidCredentials = apperror.New(apperror.ErrCodeUnauthorized, "неверный email или пароль")

// AuthService инкапсулирует бизнес-логику регистрации и аутентификации.
type AuthService struct {
	tx           TxRunner
	users        UserRepository
	ledger       *LedgerService
	tokenManager *TokenManager
}

// RegisterInput содержит данные пользователя при регистрации.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Roles    []string
}

// LoginInput содержит данные для входа.
type LoginInput struct {
	Email    string
	Password string
}

// SessionMeta данные клиента, сохраняемые вместе с сессией.
type SessionMeta struct {
	UserAgent string
	IP        string
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	User      *models.User `json:"user"`
	TokenPair *TokenPair   `json:"tokens"`
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(tx TxRunner, repos Repositories, ledger *LedgerService, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		tx:           tx,
		users:        repos.Users,
		ledger:       ledger,
		tokenManager: tokenManager,
	}
}

// Register создаёт пользователя и его кошелёк со стартовым грантом.
// Роль admin самостоятельно выбрать нельзя.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta SessionMeta) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	name := validation.SanitizeText(in.Name)
	if err := validation.ValidateName(name); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	roles, err := normalizeRoles(in.Roles)
	if err != nil {
		return nil, err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(passHash),
		Roles:        roles,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.New(apperror.ErrCodeConflict, "email уже зарегистрирован")
		}
		return nil, translate(err)
	}

	// Кошелёк создаётся лениво при первой операции, здесь только ускоряем.
	if _, err := s.ledger.GetBalance(ctx, user.ID); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("auth service: не удалось создать кошелёк при регистрации")
	}

	pair, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: pair}, nil
}

// Login проверяет учётные данные и возвращает токены.
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta SessionMeta) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "аккаунт заблокирован")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	pair, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: pair}, nil
}

// Refresh меняет refresh токен на новую пару. Старая сессия удаляется,
// поэтому каждый refresh токен можно использовать только один раз.
func (s *AuthService) Refresh(ctx context.Context, oldToken string, meta SessionMeta) (*TokenPair, error) {
	userID, err := s.tokenManager.ParseRefresh(oldToken)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "refresh токен невалиден")
	}

	if err := s.users.DeleteSession(ctx, oldToken); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperror.New(apperror.ErrCodeUnauthorized, "сессия не найдена")
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, s.tx.DB(), userID)
	if err != nil {
		return nil, translate(err)
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "аккаунт заблокирован")
	}

	return s.issueSession(ctx, user, meta)
}

// Logout удаляет сессию refresh токена. Повторный выход не ошибка.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.tokenManager.ParseRefresh(refreshToken); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeUnauthorized, "refresh токен невалиден")
	}
	if err := s.users.DeleteSession(ctx, refreshToken); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return err
	}
	return nil
}

// LogoutOthers завершает все сессии пользователя, кроме сессии currentRefreshToken.
func (s *AuthService) LogoutOthers(ctx context.Context, userID uuid.UUID, currentRefreshToken string) (int64, error) {
	owner, err := s.tokenManager.ParseRefresh(currentRefreshToken)
	if err != nil || owner != userID {
		return 0, apperror.New(apperror.ErrCodeUnauthorized, "refresh токен невалиден")
	}
	return s.users.DeleteAllSessionsExcept(ctx, userID, currentRefreshToken)
}

// UpdateProfileInput изменяемые поля профиля. Пустое поле не меняется.
type UpdateProfileInput struct {
	Name  *string
	Roles []string
}

// UpdateProfile меняет имя и роли. Выбрать можно только client и freelancer,
// уже выданная роль admin сохраняется.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, s.tx.DB(), userID)
	if err != nil {
		return nil, translate(err)
	}

	name := user.Name
	if in.Name != nil {
		name = validation.SanitizeText(*in.Name)
		if err := validation.ValidateName(name); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	roles := []string(user.Roles)
	if in.Roles != nil {
		if len(in.Roles) == 0 {
			return nil, apperror.New(apperror.ErrCodeValidation, "нужна хотя бы одна роль")
		}
		if roles, err = normalizeRoles(in.Roles); err != nil {
			return nil, err
		}
		if user.HasRole(models.RoleAdmin) {
			roles = append(roles, models.RoleAdmin)
		}
	}

	updated, err := s.users.UpdateProfile(ctx, userID, name, roles)
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

// ChangePassword меняет пароль после проверки текущего и завершает все
// сессии пользователя: войти придётся заново.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, s.tx.DB(), userID)
	if err != nil {
		return translate(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperror.New(apperror.ErrCodeValidation, "текущий пароль неверен")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if currentPassword == newPassword {
		return apperror.New(apperror.ErrCodeValidation, "новый пароль совпадает с текущим")
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}
	if err := s.users.UpdatePassword(ctx, userID, string(passHash)); err != nil {
		return translate(err)
	}

	revoked, err := s.users.DeleteAllSessionsExcept(ctx, userID, "")
	if err != nil {
		return err
	}
	logger.Log.WithFields(logrus.Fields{
		"user_id":  userID,
		"sessions": revoked,
	}).Info("auth service: пароль изменён, сессии завершены")
	return nil
}

// Me возвращает текущего пользователя.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, s.tx.DB(), userID)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User, meta SessionMeta) (*TokenPair, error) {
	pair, refreshExp, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    refreshExp,
	}
	if meta.UserAgent != "" {
		session.UserAgent = &meta.UserAgent
	}
	if meta.IP != "" {
		session.IPAddress = &meta.IP
	}

	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return pair, nil
}

// normalizeRoles проверяет набор ролей. Пустой набор означает freelancer.
func normalizeRoles(roles []string) ([]string, error) {
	if len(roles) == 0 {
		return []string{models.RoleFreelancer}, nil
	}

	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if _, ok := models.ValidSignupRoles[role]; !ok {
			return nil, apperror.Newf(apperror.ErrCodeValidation, "недопустимая роль: %s", role)
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out, nil
}
