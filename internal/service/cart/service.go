package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	cartstore "lavibaby-storefront/internal/cart"
	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/kv"
)

var ErrOutOfStock = errors.New("product out of stock")

// Service owns one cart per guest session. Mutations on the same session run
// one at a time; prices always come from the catalogue.
type Service struct {
	store       kv.Store
	productRepo productRepo
	logger      *zap.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is dropped from the map once no caller holds or waits on it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

type productRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

func New(store kv.Store, productRepo productRepo, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		productRepo: productRepo,
		logger:      logger,
		locks:       make(map[string]*sessionLock),
	}
}

// View is the cart as the storefront renders it.
type View struct {
	Items      []domain.CartItem `json:"items"`
	TotalItems int               `json:"totalItems"`
	TotalPrice domain.Money      `json:"totalPriceCents"`
}

type AddInput struct {
	ProductID int64  `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

func Key(sessionID string) string {
	return "cart:" + sessionID
}

func (s *Service) Get(ctx context.Context, sessionID string) (View, error) {
	var view View
	err := s.withCart(ctx, sessionID, func(c *cartstore.Store) error {
		view = viewOf(c)
		return nil
	})
	return view, err
}

// Items returns the current lines of the session's cart.
func (s *Service) Items(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	var items []domain.CartItem
	err := s.withCart(ctx, sessionID, func(c *cartstore.Store) error {
		items = c.Items()
		return nil
	})
	return items, err
}

func (s *Service) Add(ctx context.Context, sessionID string, in AddInput) (View, error) {
	if in.ProductID == 0 {
		return View{}, domain.NewValidationError("productId", "productId required")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		return View{}, cartstore.ErrInvalidQuantity
	}
	if s.productRepo == nil {
		return View{}, errors.New("product repository unavailable")
	}
	p, err := s.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return View{}, err
	}
	if !p.InStock() {
		return View{}, ErrOutOfStock
	}
	if !p.HasSize(in.Size) {
		return View{}, domain.NewValidationError("size", "Selecione um tamanho válido")
	}

	var view View
	err = s.withCart(ctx, sessionID, func(c *cartstore.Store) error {
		if err := c.AddToCart(ctx, *p, in.Size, in.Quantity); err != nil {
			return err
		}
		view = viewOf(c)
		return nil
	})
	if err == nil {
		s.logger.Debug("cart item added",
			zap.String("session_id", sessionID),
			zap.Int64("product_id", p.ID),
			zap.String("size", in.Size),
			zap.Int("quantity", in.Quantity),
		)
	}
	return view, err
}

func (s *Service) UpdateQuantity(ctx context.Context, sessionID string, productID int64, size string, qty int) (View, error) {
	var view View
	err := s.withCart(ctx, sessionID, func(c *cartstore.Store) error {
		if err := c.UpdateQuantity(ctx, productID, qty, size); err != nil {
			return err
		}
		view = viewOf(c)
		return nil
	})
	return view, err
}

func (s *Service) Remove(ctx context.Context, sessionID string, productID int64, size string) (View, error) {
	var view View
	err := s.withCart(ctx, sessionID, func(c *cartstore.Store) error {
		if err := c.RemoveItem(ctx, productID, size); err != nil {
			return err
		}
		view = viewOf(c)
		return nil
	})
	return view, err
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	err := s.withCart(ctx, sessionID, func(c *cartstore.Store) error {
		return c.ClearCart(ctx)
	})
	if err == nil {
		s.logger.Debug("cart cleared", zap.String("session_id", sessionID))
	}
	return err
}

// withCart loads the session's cart under the session lock. The cart is
// reloaded every time so writes from other replicas are picked up.
func (s *Service) withCart(ctx context.Context, sessionID string, fn func(*cartstore.Store) error) error {
	if sessionID == "" {
		return errors.New("session id required")
	}
	s.lock(sessionID)
	defer s.unlock(sessionID)

	c, err := cartstore.Load(ctx, s.store, Key(sessionID))
	if err != nil {
		s.logger.Error("cart load failed", zap.String("session_id", sessionID), zap.Error(err))
		return fmt.Errorf("cart: %w", err)
	}
	return fn(c)
}

func (s *Service) lock(sessionID string) {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()
	l.mu.Lock()
}

func (s *Service) unlock(sessionID string) {
	s.mu.Lock()
	l := s.locks[sessionID]
	l.refs--
	if l.refs == 0 {
		delete(s.locks, sessionID)
	}
	s.mu.Unlock()
	l.mu.Unlock()
}

func (s *Service) lockedSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

func viewOf(c *cartstore.Store) View {
	items := c.Items()
	if items == nil {
		items = []domain.CartItem{}
	}
	return View{Items: items, TotalItems: c.TotalItems(), TotalPrice: c.TotalPrice()}
}
