package mockapi

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"savora/internal/models"
)

// Seed loads a small menu and one account per role so a fresh mock
// backend is immediately usable. Credentials: ada@example.com / "secret"
// (customer), root@example.com / "secret" (admin).
func (s *Server) Seed() error {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	s.users.save(&storedUser{
		User: models.User{
			ID: uuid.NewString(), Name: "Ada", Email: "ada@example.com",
			Role: models.RoleUser, CreatedAt: now,
		},
		PasswordHash: hash,
	})
	s.users.save(&storedUser{
		User: models.User{
			ID: uuid.NewString(), Name: "Root", Email: "root@example.com",
			Role: models.RoleAdmin, CreatedAt: now,
		},
		PasswordHash: hash,
	})

	pizza := &models.Category{ID: uuid.NewString(), Name: "Pizza"}
	drinks := &models.Category{ID: uuid.NewString(), Name: "Drinks"}
	s.categories.save(pizza)
	s.categories.save(drinks)

	menu := []models.Product{
		{ID: uuid.NewString(), Name: "Margherita", Description: "Tomato, mozzarella, basil", Price: 9.50, Category: models.PopulatedCategory(*pizza), InStock: true},
		{ID: uuid.NewString(), Name: "Quattro Formaggi", Description: "Four cheeses", Price: 12.00, Category: models.PopulatedCategory(*pizza), InStock: true},
		{ID: uuid.NewString(), Name: "Lemonade", Description: "House made", Price: 3.50, Category: models.PopulatedCategory(*drinks), InStock: true},
	}
	for i := range menu {
		s.products.save(&menu[i])
	}
	return nil
}
