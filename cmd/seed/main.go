package main

import (
	"context"
	"log"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"floweradmin/internal/config"
	"floweradmin/internal/db"
	"floweradmin/internal/model"
	"floweradmin/internal/repository"
)

var defaultRoles = []string{"administrator", "executive", "member"}

var defaultPermissions = []string{
	"accounts.read",
	"accounts.manage",
	"roles.manage",
	"audit.read",
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(
		&model.Role{},
		&model.Permission{},
		&model.Account{},
		&model.PasswordHistory{},
		&model.Provider{},
		&model.AuditRecord{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	roleRepo := repository.NewRoleRepository(gormDB)
	permissionRepo := repository.NewPermissionRepository(gormDB)
	accountRepo := repository.NewAccountRepository(gormDB)

	for _, name := range defaultPermissions {
		if err := permissionRepo.FirstOrCreate(ctx, &model.Permission{Name: name}); err != nil {
			log.Fatalf("Failed to seed permission %q: %v", name, err)
		}
	}
	log.Printf("Seeded %d permissions", len(defaultPermissions))

	var adminRole *model.Role
	for _, name := range defaultRoles {
		role := &model.Role{Name: name}
		if err := roleRepo.FirstOrCreate(ctx, role); err != nil {
			log.Fatalf("Failed to seed role %q: %v", name, err)
		}
		if name == "administrator" {
			adminRole = role
		}
	}
	log.Printf("Seeded %d roles", len(defaultRoles))

	created, err := seedPrimordialAdmin(ctx, accountRepo, adminRole)
	if err != nil {
		log.Fatalf("Failed to seed administrator account: %v", err)
	}
	if created {
		log.Println("Created primordial administrator account")
	} else {
		log.Println("Primordial administrator account already present")
	}

	log.Println("Seed completed successfully!")
}

// seedPrimordialAdmin creates the row-1 administrator if it does not exist.
// The account is born active and confirmed; the unconfirm guard protects it
// from then on.
func seedPrimordialAdmin(ctx context.Context, repo repository.AccountRepository, adminRole *model.Role) (bool, error) {
	existing, err := repo.FindByIDAnyState(ctx, model.PrimordialAdminID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return false, err
	}
	if existing != nil && err == nil {
		return false, nil
	}

	email := getEnv("ADMIN_EMAIL", "admin@example.com")
	password := getEnv("ADMIN_PASSWORD", "change-me-now")

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return false, err
	}

	admin := &model.Account{
		ID:               model.PrimordialAdminID,
		FirstName:        "System",
		LastName:         "Administrator",
		Email:            email,
		PasswordHash:     string(hashed),
		Active:           true,
		Confirmed:        true,
		ConfirmationCode: uuid.New().String(),
	}

	return true, repo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.AccountRepository) error {
		if err := txRepo.Create(ctx, admin); err != nil {
			return err
		}
		return txRepo.ReplaceRoles(ctx, admin, []model.Role{*adminRole})
	})
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
