package main

import (
	"fmt"
	"log"
	"time"

	"github.com/bitfantasy/dealflow/internal/config"
	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User,
		cfg.Database.Password, cfg.Database.DBName, cfg.Database.SSLMode,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := entity.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	if err := Seed(db); err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}
	log.Println("Seed completed")
}

// Seed 写入演示数据，已存在的记录跳过
func Seed(db *gorm.DB) error {
	stages, err := seedStages(db)
	if err != nil {
		return err
	}
	users, err := seedUsers(db)
	if err != nil {
		return err
	}
	return seedDeals(db, stages, users)
}

func seedStages(db *gorm.DB) (map[string]entity.Stage, error) {
	defs := []entity.Stage{
		{Name: "Sourcing", Order: 1, DefaultProbability: 0.10},
		{Name: "Contacted", Order: 2, DefaultProbability: 0.25},
		{Name: "LOI", Order: 3, DefaultProbability: 0.50},
		{Name: "Due Diligence", Order: 4, DefaultProbability: 0.75},
		{Name: "Closing", Order: 5, IsClosed: true, IsWon: true, DefaultProbability: 0.90},
	}

	out := make(map[string]entity.Stage, len(defs))
	for _, def := range defs {
		var stage entity.Stage
		err := db.Where("name = ?", def.Name).First(&stage).Error
		if err == gorm.ErrRecordNotFound {
			stage = def
			stage.ID = uuid.New().String()
			stage.CreatedAt = time.Now()
			if err := db.Create(&stage).Error; err != nil {
				return nil, fmt.Errorf("create stage %s: %w", def.Name, err)
			}
		} else if err != nil {
			return nil, err
		}
		out[stage.Name] = stage
	}
	return out, nil
}

func seedUsers(db *gorm.DB) (map[string]entity.User, error) {
	defs := []struct {
		Email     string
		Password  string
		FirstName string
		LastName  string
		Role      string
	}{
		{"admin@dealflow.local", "admin12345", "Ada", "Admin", entity.RoleAdmin},
		{"associate@dealflow.local", "associate12345", "Alex", "Associate", entity.RoleAssociate},
		{"analyst@dealflow.local", "analyst12345", "Anna", "Analyst", entity.RoleAnalyst},
	}

	out := make(map[string]entity.User, len(defs))
	for _, def := range defs {
		var user entity.User
		err := db.Where("email = ?", def.Email).First(&user).Error
		if err == gorm.ErrRecordNotFound {
			hash, err := bcrypt.GenerateFromPassword([]byte(def.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, err
			}
			now := time.Now()
			user = entity.User{
				ID:           uuid.New().String(),
				Email:        def.Email,
				PasswordHash: string(hash),
				FirstName:    def.FirstName,
				LastName:     def.LastName,
				Role:         def.Role,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := db.Create(&user).Error; err != nil {
				return nil, fmt.Errorf("create user %s: %w", def.Email, err)
			}
		} else if err != nil {
			return nil, err
		}
		out[user.Role] = user
	}
	return out, nil
}

func seedDeals(db *gorm.DB, stages map[string]entity.Stage, users map[string]entity.User) error {
	var count int64
	if err := db.Model(&entity.Company{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	companies := []entity.Company{
		{ID: uuid.New().String(), Name: "Northwind Logistics", LegalID: "NW482910", Country: "DE", Sector: "Logistics", Size: entity.CompanySizeMedium, Website: "https://northwind.example", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Name: "Helios Renewables", LegalID: "HR771203", Country: "ES", Sector: "Energy", Size: entity.CompanySizeLarge, Website: "https://helios.example", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Name: "Quanta Software", LegalID: "QS330417", Country: "FR", Sector: "Technology", Size: entity.CompanySizeSmall, Website: "https://quanta.example", CreatedAt: now, UpdatedAt: now},
	}
	for i := range companies {
		if err := db.Create(&companies[i]).Error; err != nil {
			return fmt.Errorf("create company %s: %w", companies[i].Name, err)
		}
	}

	associate := users[entity.RoleAssociate]
	analyst := users[entity.RoleAnalyst]

	amount := func(v float64) *float64 { return &v }
	deals := []entity.Deal{
		{
			ID: uuid.New().String(), Title: "Project Northwind",
			CompanyID: companies[0].ID, OwnerID: associate.ID,
			StageID: stages["Contacted"].ID, AmountEstimate: amount(12_500_000),
			Probability: stages["Contacted"].DefaultProbability,
			CreatedAt:   now, UpdatedAt: now,
		},
		{
			ID: uuid.New().String(), Title: "Helios Carve-Out",
			CompanyID: companies[1].ID, OwnerID: associate.ID,
			StageID: stages["Due Diligence"].ID, AmountEstimate: amount(48_000_000),
			Probability: stages["Due Diligence"].DefaultProbability,
			CreatedAt:   now, UpdatedAt: now,
		},
		{
			ID: uuid.New().String(), Title: "Quanta Acquisition",
			CompanyID: companies[2].ID, OwnerID: analyst.ID,
			StageID: stages["Sourcing"].ID,
			Probability: stages["Sourcing"].DefaultProbability,
			CreatedAt:   now, UpdatedAt: now,
		},
	}
	for i := range deals {
		if err := db.Create(&deals[i]).Error; err != nil {
			return fmt.Errorf("create deal %s: %w", deals[i].Title, err)
		}
	}
	return nil
}
