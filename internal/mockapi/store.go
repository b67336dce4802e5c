package mockapi

import (
	"sort"
	"strings"
	"sync"

	"savora/internal/models"
)

// In-memory stores keep the fixture lightweight and deterministic. They
// intentionally favor clarity over performance.

type storedUser struct {
	models.User
	PasswordHash []byte
}

type userStore struct {
	mu    sync.RWMutex
	users map[string]*storedUser
}

func newUserStore() *userStore {
	return &userStore{users: make(map[string]*storedUser)}
}

func (s *userStore) save(u *storedUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *userStore) findByID(id string) (*storedUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *userStore) findByEmail(email string, role models.Role) (*storedUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Role == role && strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return nil, false
}

func (s *userStore) listByRole(role models.Role) []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, u.User)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

type productStore struct {
	mu       sync.RWMutex
	products map[string]*models.Product
}

func newProductStore() *productStore {
	return &productStore{products: make(map[string]*models.Product)}
}

func (s *productStore) save(p *models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *productStore) find(id string) (*models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *productStore) delete(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, id := range ids {
		if _, ok := s.products[id]; ok {
			delete(s.products, id)
			removed++
		}
	}
	return removed
}

func (s *productStore) list() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *productStore) listByCategory(categoryID string) []models.Product {
	all := s.list()
	out := all[:0]
	for _, p := range all {
		if p.Category.ID() == categoryID {
			out = append(out, p)
		}
	}
	return out
}

type categoryStore struct {
	mu         sync.RWMutex
	categories map[string]*models.Category
}

func newCategoryStore() *categoryStore {
	return &categoryStore{categories: make(map[string]*models.Category)}
}

func (s *categoryStore) save(c *models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

func (s *categoryStore) find(id string) (*models.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	return c, ok
}

func (s *categoryStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return false
	}
	delete(s.categories, id)
	return true
}

func (s *categoryStore) list() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// cartStore keeps one cart per customer.
type cartStore struct {
	mu    sync.Mutex
	carts map[string][]models.CartLine
}

func newCartStore() *cartStore {
	return &cartStore{carts: make(map[string][]models.CartLine)}
}

func (s *cartStore) get(userID string) []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]models.CartLine, len(s.carts[userID]))
	copy(lines, s.carts[userID])
	return lines
}

// upsert adds qty to an existing line or appends a new one.
func (s *cartStore) upsert(userID string, product models.Product, qty int) []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[userID]
	for i := range lines {
		if lines[i].Product.ID == product.ID {
			lines[i].Qty += qty
			return s.snapshotLocked(userID)
		}
	}
	s.carts[userID] = append(lines, models.CartLine{Product: product, Qty: qty})
	return s.snapshotLocked(userID)
}

// setQty replaces a line's quantity; returns false when the line is gone.
func (s *cartStore) setQty(userID, productID string, qty int) ([]models.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[userID]
	for i := range lines {
		if lines[i].Product.ID == productID {
			lines[i].Qty = qty
			return s.snapshotLocked(userID), true
		}
	}
	return nil, false
}

func (s *cartStore) remove(userID, productID string) ([]models.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[userID]
	for i := range lines {
		if lines[i].Product.ID == productID {
			s.carts[userID] = append(lines[:i], lines[i+1:]...)
			return s.snapshotLocked(userID), true
		}
	}
	return nil, false
}

func (s *cartStore) clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}

func (s *cartStore) snapshotLocked(userID string) []models.CartLine {
	lines := make([]models.CartLine, len(s.carts[userID]))
	copy(lines, s.carts[userID])
	return lines
}

type orderStore struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
}

func newOrderStore() *orderStore {
	return &orderStore{orders: make(map[string]*models.Order)}
}

func (s *orderStore) save(o *models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

func (s *orderStore) find(id string) (*models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o, ok
}

func (s *orderStore) list() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
