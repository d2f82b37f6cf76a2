package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/beta-access-portal/internal/model"
	"github.com/iliyamo/beta-access-portal/internal/repository"
	"github.com/iliyamo/beta-access-portal/internal/utils"
)

// AccountStore is the subset of the account repository the directory
// needs. Defined here so tests can substitute fakes.
type AccountStore interface {
	Create(ctx context.Context, a *model.Account) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	GetByID(ctx context.Context, id uint64) (model.Account, error)
	Update(ctx context.Context, a *model.Account) error
	List(ctx context.Context) ([]model.Account, error)
}

// NoticeStore is the notice repository surface shared by the directory
// and the registry.
type NoticeStore interface {
	Create(ctx context.Context, n *model.Notice) (uint64, error)
	ListByAccount(ctx context.Context, accountID uint64) ([]model.Notice, error)
	MarkRead(ctx context.Context, id uint64) error
	CountUnread(ctx context.Context, accountID uint64) (int, error)
}

// Directory implements account registration, login and profile
// maintenance plus the per-account notice feed.
type Directory struct {
	accounts   AccountStore
	notices    NoticeStore
	sessions   SessionCache
	validate   *validator.Validate
	bcryptCost int
	now        func() time.Time
}

func NewDirectory(accounts AccountStore, notices NoticeStore, sessions SessionCache, bcryptCost int) *Directory {
	return &Directory{
		accounts:   accounts,
		notices:    notices,
		sessions:   sessions,
		validate:   validator.New(),
		bcryptCost: bcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput carries the registration form. Validation tags mirror
// the original form rules: email shape, non-empty names, password of
// at least six characters.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Password  string `json:"password" validate:"required,min=6"`
}

// Register creates an account. Duplicate normalized emails surface as
// repository.ErrEmailExists; malformed input as *ValidationError.
func (d *Directory) Register(ctx context.Context, in RegisterInput) (model.Account, error) {
	in.Email = repository.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := d.validate.Struct(in); err != nil {
		return model.Account{}, &ValidationError{Msg: "invalid registration data: " + err.Error()}
	}

	digest, err := utils.HashPassword(in.Password, d.bcryptCost)
	if err != nil {
		return model.Account{}, err
	}
	now := d.now()
	acct := model.Account{
		Email:          in.Email,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		PasswordDigest: digest,
		CreatedAt:      now,
		LastLoginAt:    now,
	}
	id, err := d.accounts.Create(ctx, &acct)
	if err != nil {
		return model.Account{}, err
	}
	acct.ID = id

	// Welcome notice; its failure must not undo the registration.
	if _, err := d.notices.Create(ctx, &model.Notice{
		AccountID: id,
		Title:     "Добро пожаловать!",
		Body:      "Регистрация прошла успешно. Теперь вы можете подать заявку на бета-тестирование или в команду разработки.",
		Kind:      model.NoticeInfo,
		CreatedAt: now,
	}); err != nil {
		log.Printf("directory: welcome notice for account %d failed: %v", id, err)
	}
	return acct, nil
}

// Login authenticates by normalized email and password, stamps
// lastLoginAt and establishes the session copy. Unknown emails return
// repository.ErrNotFound, digest mismatches ErrAuth.
func (d *Directory) Login(ctx context.Context, email, password string) (model.Account, error) {
	acct, err := d.accounts.GetByEmail(ctx, email)
	if err != nil {
		return model.Account{}, err
	}
	if !utils.VerifyPassword(acct.PasswordDigest, strings.TrimSpace(password)) {
		return model.Account{}, ErrAuth
	}

	acct.LastLoginAt = d.now()
	if err := d.accounts.Update(ctx, &acct); err != nil {
		return model.Account{}, err
	}
	if err := d.sessions.SaveAccount(ctx, acct); err != nil {
		// Session cache is best-effort; the login itself succeeded.
		log.Printf("directory: session save for account %d failed: %v", acct.ID, err)
	}
	return acct, nil
}

// Logout drops the session copy. No other storage side effect.
func (d *Directory) Logout(ctx context.Context, accountID uint64) error {
	return d.sessions.DeleteAccount(ctx, accountID)
}

// Current returns the session account, rehydrating the cache from the
// primary store on a miss.
func (d *Directory) Current(ctx context.Context, accountID uint64) (model.Account, error) {
	if acct, ok, err := d.sessions.GetAccount(ctx, accountID); err == nil && ok {
		return acct, nil
	}
	acct, err := d.accounts.GetByID(ctx, accountID)
	if err != nil {
		return model.Account{}, err
	}
	if err := d.sessions.SaveAccount(ctx, acct); err != nil {
		log.Printf("directory: session rehydrate for account %d failed: %v", accountID, err)
	}
	return acct, nil
}

// UpdateInput lists the fields an account may change. Nil pointers
// leave the stored value untouched.
type UpdateInput struct {
	FirstName            *string `json:"first_name"`
	LastName             *string `json:"last_name"`
	Password             *string `json:"password"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
}

// Update merges the partial fields into the stored account and, when a
// session copy exists, refreshes it too.
func (d *Directory) Update(ctx context.Context, accountID uint64, in UpdateInput) (model.Account, error) {
	acct, err := d.accounts.GetByID(ctx, accountID)
	if err != nil {
		return model.Account{}, err
	}
	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		if v == "" {
			return model.Account{}, &ValidationError{Msg: "first name must not be empty"}
		}
		acct.FirstName = v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		if v == "" {
			return model.Account{}, &ValidationError{Msg: "last name must not be empty"}
		}
		acct.LastName = v
	}
	if in.Password != nil {
		if len(*in.Password) < 6 {
			return model.Account{}, &ValidationError{Msg: "password must be at least 6 characters"}
		}
		digest, err := utils.HashPassword(*in.Password, d.bcryptCost)
		if err != nil {
			return model.Account{}, err
		}
		acct.PasswordDigest = digest
	}
	if in.NotificationsEnabled != nil {
		acct.NotificationsEnabled = *in.NotificationsEnabled
	}

	if err := d.accounts.Update(ctx, &acct); err != nil {
		return model.Account{}, err
	}
	if _, ok, err := d.sessions.GetAccount(ctx, accountID); err == nil && ok {
		if err := d.sessions.SaveAccount(ctx, acct); err != nil {
			log.Printf("directory: session refresh for account %d failed: %v", accountID, err)
		}
	}
	return acct, nil
}

// ListAccounts returns every account for the operator view.
func (d *Directory) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return d.accounts.List(ctx)
}

// AppendNotice stores a notice for an account, defaulting the kind and
// creation time.
func (d *Directory) AppendNotice(ctx context.Context, n model.Notice) (model.Notice, error) {
	if n.Kind == "" {
		n.Kind = model.NoticeInfo
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.now()
	}
	id, err := d.notices.Create(ctx, &n)
	if err != nil {
		return model.Notice{}, err
	}
	n.ID = id
	return n, nil
}

// ListNotices returns an account's notices, newest first.
func (d *Directory) ListNotices(ctx context.Context, accountID uint64) ([]model.Notice, error) {
	return d.notices.ListByAccount(ctx, accountID)
}

// MarkNoticeRead flips the read flag; repeated calls are no-ops.
func (d *Directory) MarkNoticeRead(ctx context.Context, noticeID uint64) error {
	return d.notices.MarkRead(ctx, noticeID)
}

// UnreadCount returns the number of unread notices for an account.
func (d *Directory) UnreadCount(ctx context.Context, accountID uint64) (int, error) {
	return d.notices.CountUnread(ctx, accountID)
}
