package cards

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cardmint/cardmint/internal/authz"
	"github.com/cardmint/cardmint/internal/shared"
)

// UserDirectory resolves card owners. Implemented by the users repository.
type UserDirectory interface {
	FindOwnerID(ctx context.Context, username string) (int64, error)
}

// Service implements the card lifecycle manager and the transfer engine.
// Every operation takes the acting principal explicitly; nothing is read
// from ambient request state.
type Service struct {
	repo   RepositoryPort
	users  UserDirectory
	cipher *Cipher
	policy authz.Policy
	log    *slog.Logger
}

// NewService constructs a card service.
func NewService(repo RepositoryPort, users UserDirectory, cipher *Cipher, log *slog.Logger) *Service {
	return &Service{repo: repo, users: users, cipher: cipher, log: log}
}

// Create issues a card for the named owner: a fresh unique number, status
// ACTIVE, the given opening balance. The returned view carries the number
// masked to its last four digits.
func (s *Service) Create(ctx context.Context, ownerUsername string, expiry time.Time, initialBalance float64) (*View, error) {
	if initialBalance < 0 {
		return nil, fmt.Errorf("%w: initial balance must not be negative", shared.ErrInvalidInput)
	}

	ownerID, err := s.users.FindOwnerID(ctx, ownerUsername)
	if err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}

	plaintext, encrypted, err := s.uniqueNumber(ctx)
	if err != nil {
		return nil, err
	}

	card := Card{
		OwnerID:         ownerID,
		OwnerUsername:   ownerUsername,
		NumberEncrypted: encrypted,
		ExpiryDate:      expiry,
		Status:          StatusActive,
		Balance:         initialBalance,
	}

	id, err := s.repo.CreateCard(ctx, card)
	if err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	card.ID = id

	s.log.Info("card created", slog.Int64("card_id", id), slog.String("owner", ownerUsername))
	return &View{
		ID:            id,
		MaskedNumber:  MaskNumber(plaintext),
		OwnerUsername: ownerUsername,
		ExpiryDate:    expiry,
		Status:        StatusActive,
		Balance:       initialBalance,
	}, nil
}

// uniqueNumber generates candidates until one's ciphertext is unused, up to
// the retry bound. The unique index on the stored ciphertext backstops the
// race between the existence check and the insert.
func (s *Service) uniqueNumber(ctx context.Context) (plaintext, encrypted string, err error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		candidate, err := randomCandidate()
		if err != nil {
			return "", "", err
		}
		token, err := s.cipher.Encrypt(candidate)
		if err != nil {
			return "", "", err
		}
		exists, err := s.repo.ExistsByEncryptedNumber(ctx, token)
		if err != nil {
			return "", "", fmt.Errorf("check number uniqueness: %w", err)
		}
		if !exists {
			return candidate, token, nil
		}
	}
	return "", "", shared.ErrGenerationExhausted
}

// Activate sets a card ACTIVE. Admin only; idempotent when already active.
func (s *Service) Activate(ctx context.Context, p shared.Principal, cardID int64) error {
	card, err := s.repo.GetCard(ctx, cardID)
	if err != nil {
		return err
	}
	if !s.policy.CanActivate(p) {
		return shared.ErrAccessDenied
	}
	if card.Status == StatusActive {
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, cardID, StatusActive); err != nil {
		return err
	}
	s.log.Info("card activated", slog.Int64("card_id", cardID), slog.String("by", p.Username))
	return nil
}

// Block sets a card BLOCKED. Owner or admin; idempotent when already blocked.
func (s *Service) Block(ctx context.Context, p shared.Principal, cardID int64) error {
	card, err := s.repo.GetCard(ctx, cardID)
	if err != nil {
		return err
	}
	if !s.policy.CanBlock(p, card.OwnerUsername) {
		return shared.ErrAccessDenied
	}
	if card.Status == StatusBlocked {
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, cardID, StatusBlocked); err != nil {
		return err
	}
	s.log.Info("card blocked", slog.Int64("card_id", cardID), slog.String("by", p.Username))
	return nil
}

// Delete removes a card. Admin only.
func (s *Service) Delete(ctx context.Context, p shared.Principal, cardID int64) error {
	if _, err := s.repo.GetCard(ctx, cardID); err != nil {
		return err
	}
	if !s.policy.CanDelete(p) {
		return shared.ErrAccessDenied
	}
	if err := s.repo.DeleteCard(ctx, cardID); err != nil {
		return err
	}
	s.log.Info("card deleted", slog.Int64("card_id", cardID), slog.String("by", p.Username))
	return nil
}

// Balance returns a card's balance to its owner.
func (s *Service) Balance(ctx context.Context, p shared.Principal, cardID int64) (float64, error) {
	card, err := s.repo.GetCard(ctx, cardID)
	if err != nil {
		return 0, err
	}
	if !s.policy.CanViewBalance(p, card.OwnerUsername) {
		return 0, shared.ErrAccessDenied
	}
	return card.Balance, nil
}

// Transfer moves amount between two cards owned by the principal. Both legs
// commit atomically: the cards are locked in id order inside one
// transaction, so concurrent transfers over a shared card serialize and the
// sufficiency check always sees a committed balance.
func (s *Service) Transfer(ctx context.Context, p shared.Principal, fromID, toID int64, amount float64) error {
	if amount <= 0 {
		return shared.ErrInvalidAmount
	}
	if fromID == toID {
		return shared.ErrSameCard
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxPort) error {
		firstID, secondID := fromID, toID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}

		first, err := tx.GetCardForUpdate(ctx, firstID)
		if err != nil {
			return err
		}
		second, err := tx.GetCardForUpdate(ctx, secondID)
		if err != nil {
			return err
		}

		from, to := first, second
		if from.ID != fromID {
			from, to = second, first
		}

		if from.OwnerUsername != p.Username || to.OwnerUsername != p.Username {
			return shared.ErrAccessDenied
		}
		if from.Balance < amount {
			return shared.ErrInsufficientBalance
		}

		if err := tx.UpdateBalance(ctx, from.ID, from.Balance-amount); err != nil {
			return err
		}
		return tx.UpdateBalance(ctx, to.ID, to.Balance+amount)
	})
	if err != nil {
		return err
	}

	s.log.Info("transfer committed",
		slog.Int64("from_card_id", fromID),
		slog.Int64("to_card_id", toID),
		slog.String("owner", p.Username))
	return nil
}

// ListForOwner returns the principal's cards as masked views. Without a
// search term the page comes straight from the repository. With one, the
// filter runs over the decrypted numbers, which SQL cannot see, so the
// whole owner set is matched first and the page plus totals are taken from
// the matches.
func (s *Service) ListForOwner(ctx context.Context, p shared.Principal, req ListRequest) ([]View, shared.Pagination, error) {
	if req.Search == "" {
		page := shared.NewPagination(req.Page, req.PerPage, 0)
		list, total, err := s.repo.ListByOwner(ctx, p.Username, page)
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		views := make([]View, 0, len(list))
		for i := range list {
			v, err := s.toView(&list[i])
			if err != nil {
				return nil, shared.Pagination{}, err
			}
			views = append(views, *v)
		}
		return views, shared.NewPagination(req.Page, req.PerPage, total), nil
	}

	list, err := s.repo.AllByOwner(ctx, p.Username)
	if err != nil {
		return nil, shared.Pagination{}, err
	}

	matches := make([]View, 0, len(list))
	for i := range list {
		v, err := s.toView(&list[i])
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		if !strings.Contains(v.MaskedNumber, req.Search) {
			continue
		}
		matches = append(matches, *v)
	}

	page := shared.NewPagination(req.Page, req.PerPage, len(matches))
	lo := page.Offset()
	if lo > len(matches) {
		lo = len(matches)
	}
	hi := lo + page.PerPage
	if hi > len(matches) {
		hi = len(matches)
	}
	return matches[lo:hi], page, nil
}

// ListAll returns every card as masked views. Admin only.
func (s *Service) ListAll(ctx context.Context, p shared.Principal, req ListRequest) ([]View, shared.Pagination, error) {
	if !p.IsAdmin() {
		return nil, shared.Pagination{}, shared.ErrAccessDenied
	}
	page := shared.NewPagination(req.Page, req.PerPage, 0)
	list, total, err := s.repo.ListAll(ctx, page)
	if err != nil {
		return nil, shared.Pagination{}, err
	}

	views := make([]View, 0, len(list))
	for i := range list {
		v, err := s.toView(&list[i])
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		views = append(views, *v)
	}
	return views, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// toView decrypts only to mask; plaintext never leaves this method.
func (s *Service) toView(card *Card) (*View, error) {
	number, err := s.cipher.Decrypt(card.NumberEncrypted)
	if err != nil {
		if de, ok := shared.AsDecryption(err); ok {
			s.log.Error("stored card number undecryptable",
				slog.Int64("card_id", card.ID),
				slog.String("reason", string(de.Reason)))
		}
		return nil, err
	}
	return &View{
		ID:            card.ID,
		MaskedNumber:  MaskNumber(number),
		OwnerUsername: card.OwnerUsername,
		ExpiryDate:    card.ExpiryDate,
		Status:        card.Status,
		Balance:       card.Balance,
	}, nil
}
