// Package state содержит состояние сервера-заглушки в памяти.
// Заглушка воспроизводит поведение боевого API магазина: учетные записи,
// сессии с ротацией refresh токенов, каталог изделий и серверные корзины.
package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gemshop/internal/shop/domain/entities"
)

// Ошибки состояния.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnknownSession     = errors.New("unknown or expired refresh token")
	ErrProductNotFound    = errors.New("product not found")
	ErrDuplicateSKU       = errors.New("product with this sku already exists")
	ErrDuplicateCartItem  = errors.New("product already in cart")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrUnknownOption      = errors.New("unknown product option")
)

// User представляет учетную запись пользователя.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
}

// session представляет выданный refresh токен.
type session struct {
	userID    string
	expiresAt time.Time
}

// Seed описывает предзаполняемые учетные записи.
type Seed struct {
	AdminEmail       string
	AdminPassword    string
	CustomerEmail    string
	CustomerPassword string
}

// State хранит все данные заглушки в памяти под одним мьютексом.
type State struct {
	mu         sync.Mutex
	refreshTTL time.Duration

	users    map[string]*User   // по email
	sessions map[string]session // по refresh токену

	products     map[string]*entities.Product
	productOrder []string

	carts map[string][]entities.CartItem // по id пользователя
}

// New создает состояние с предзаполненными пользователями и каталогом.
func New(seed Seed, refreshTTL time.Duration) (*State, error) {
	s := &State{
		refreshTTL: refreshTTL,
		users:      make(map[string]*User),
		sessions:   make(map[string]session),
		products:   make(map[string]*entities.Product),
		carts:      make(map[string][]entities.CartItem),
	}

	if err := s.seedUser(seed.AdminEmail, seed.AdminPassword, "Administrator", entities.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.seedUser(seed.CustomerEmail, seed.CustomerPassword, "Test Customer", entities.RoleCustomer); err != nil {
		return nil, err
	}

	s.seedCatalog()
	return s, nil
}

func (s *State) seedUser(email, password, name, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}
	s.users[email] = &User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: string(hash),
	}
	return nil
}

func (s *State) seedCatalog() {
	seed := []entities.Product{
		{
			SKU:       "RING-SOL-01",
			Title:     "Solitaire Ring",
			BasePrice: 125000,
			Metals: []entities.MetalOption{
				{Name: "silver", MultiplierBP: 10000},
				{Name: "gold", MultiplierBP: 25000},
				{Name: "platinum", MultiplierBP: 32000},
			},
			Stones: []entities.StoneOption{
				{Name: "none", Surcharge: 0},
				{Name: "sapphire", Surcharge: 40000},
				{Name: "diamond", Surcharge: 90000},
			},
			RingSizes: []string{"16", "16.5", "17", "17.5", "18"},
		},
		{
			SKU:       "CHAIN-ANCH-02",
			Title:     "Anchor Chain",
			BasePrice: 78000,
			Metals: []entities.MetalOption{
				{Name: "silver", MultiplierBP: 10000},
				{Name: "gold", MultiplierBP: 25000},
			},
		},
		{
			SKU:       "EAR-STUD-03",
			Title:     "Stud Earrings",
			BasePrice: 54000,
			Metals: []entities.MetalOption{
				{Name: "silver", MultiplierBP: 10000},
				{Name: "gold", MultiplierBP: 25000},
			},
			Stones: []entities.StoneOption{
				{Name: "none", Surcharge: 0},
				{Name: "topaz", Surcharge: 15000},
			},
		},
	}

	for i := range seed {
		p := seed[i]
		p.ID = uuid.New().String()
		s.products[p.ID] = &p
		s.productOrder = append(s.productOrder, p.ID)
	}
}

// Authenticate проверяет учетные данные и возвращает пользователя.
func (s *State) Authenticate(email, password string) (*User, error) {
	s.mu.Lock()
	user, ok := s.users[email]
	s.mu.Unlock()

	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	u := *user
	return &u, nil
}

// CreateSession выдает новый refresh токен для пользователя.
func (s *State) CreateSession(userID string) string {
	token := uuid.New().String()

	s.mu.Lock()
	s.sessions[token] = session{userID: userID, expiresAt: time.Now().Add(s.refreshTTL)}
	s.mu.Unlock()

	return token
}

// RotateSession обменивает refresh токен на новый. Прежний токен
// немедленно отзывается.
func (s *State) RotateSession(refreshToken string) (*User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[refreshToken]
	if !ok || time.Now().After(sess.expiresAt) {
		delete(s.sessions, refreshToken)
		return nil, "", ErrUnknownSession
	}
	delete(s.sessions, refreshToken)

	user := s.userByIDLocked(sess.userID)
	if user == nil {
		return nil, "", ErrUnknownSession
	}

	token := uuid.New().String()
	s.sessions[token] = session{userID: sess.userID, expiresAt: time.Now().Add(s.refreshTTL)}

	u := *user
	return &u, token, nil
}

// RevokeSession отзывает refresh токен. Неизвестный токен не ошибка.
func (s *State) RevokeSession(refreshToken string) {
	s.mu.Lock()
	delete(s.sessions, refreshToken)
	s.mu.Unlock()
}

func (s *State) userByIDLocked(userID string) *User {
	for _, u := range s.users {
		if u.ID == userID {
			return u
		}
	}
	return nil
}

// Products возвращает изделия каталога в порядке добавления.
func (s *State) Products() []entities.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entities.Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		out = append(out, *s.products[id])
	}
	return out
}

// Product возвращает изделие по идентификатору.
func (s *State) Product(productID string) (*entities.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	out := *p
	return &out, nil
}

// CreateProduct добавляет изделие в каталог.
func (s *State) CreateProduct(product entities.Product) (*entities.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if p.SKU == product.SKU {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSKU, product.SKU)
		}
	}

	product.ID = uuid.New().String()
	s.products[product.ID] = &product
	s.productOrder = append(s.productOrder, product.ID)

	out := product
	return &out, nil
}

// UpdateProduct заменяет атрибуты изделия.
func (s *State) UpdateProduct(productID string, product entities.Product) (*entities.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return nil, ErrProductNotFound
	}
	product.ID = productID
	s.products[productID] = &product

	out := product
	return &out, nil
}

// DeleteProduct удаляет изделие из каталога.
func (s *State) DeleteProduct(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, productID)
	for i, id := range s.productOrder {
		if id == productID {
			s.productOrder = append(s.productOrder[:i], s.productOrder[i+1:]...)
			break
		}
	}
	return nil
}

// CartItems возвращает корзину пользователя.
func (s *State) CartItems(userID string) []entities.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.CartItem, len(s.carts[userID]))
	copy(items, s.carts[userID])
	return items
}

// AddCartItem добавляет изделие в корзину пользователя и вычисляет
// серверную цену позиции.
func (s *State) AddCartItem(userID, productID string, quantity int, metal, stone, ringSize string) (*entities.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}

	for _, item := range s.carts[userID] {
		if item.ProductID == productID {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCartItem, productID)
		}
	}

	selection, err := resolveSelection(product, metal, stone, ringSize)
	if err != nil {
		return nil, err
	}

	item := entities.CartItem{
		ID:        uuid.New().String(),
		ProductID: product.ID,
		Title:     product.Title,
		ImageURL:  product.ImageURL,
		BasePrice: product.BasePrice,
		Quantity:  quantity,
		Selection: selection,
	}
	price := item.UnitPrice() * int64(quantity)
	item.CalculatedPrice = &price

	s.carts[userID] = append(s.carts[userID], item)

	out := item
	return &out, nil
}

// UpdateCartQuantity устанавливает количество позиции и пересчитывает
// серверную цену.
func (s *State) UpdateCartQuantity(userID, itemID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = quantity
			price := items[i].UnitPrice() * int64(quantity)
			items[i].CalculatedPrice = &price
			return nil
		}
	}
	return ErrCartItemNotFound
}

// RemoveCartItem удаляет позицию корзины.
func (s *State) RemoveCartItem(userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	for i := range items {
		if items[i].ID == itemID {
			s.carts[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrCartItemNotFound
}

// ClearCart очищает корзину пользователя.
func (s *State) ClearCart(userID string) {
	s.mu.Lock()
	s.carts[userID] = nil
	s.mu.Unlock()
}

// resolveSelection сверяет выбранные опции с каталогом и разворачивает
// их в ценовые параметры.
func resolveSelection(product *entities.Product, metal, stone, ringSize string) (entities.Selection, error) {
	selection := entities.Selection{Metal: metal, Stone: stone, RingSize: ringSize}

	if metal != "" {
		found := false
		for _, opt := range product.Metals {
			if opt.Name == metal {
				selection.MetalMultiplierBP = opt.MultiplierBP
				found = true
				break
			}
		}
		if !found {
			return entities.Selection{}, fmt.Errorf("%w: metal %q", ErrUnknownOption, metal)
		}
	}

	if stone != "" {
		found := false
		for _, opt := range product.Stones {
			if opt.Name == stone {
				selection.StoneSurcharge = opt.Surcharge
				found = true
				break
			}
		}
		if !found {
			return entities.Selection{}, fmt.Errorf("%w: stone %q", ErrUnknownOption, stone)
		}
	}

	return selection, nil
}
