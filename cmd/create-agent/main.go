package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"e_mairie_go/config"
	"e_mairie_go/db"
	"e_mairie_go/models"
	"e_mairie_go/services"

	"golang.org/x/term"
	"gorm.io/gorm"
)

var agentRoles = []string{
	models.RoleMairieAdmin,
	models.RoleCivilRegistryAgent,
	models.RoleUrbanismAgent,
	models.RoleCommunicationAgent,
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	router := db.NewTenantRouter(cfg)
	router.Seed = services.SeedTenantDefaults
	defer router.Close()

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label + ": ")
		value, _ := reader.ReadString('\n')
		return strings.TrimSpace(value)
	}

	fmt.Println("=== Create Mairie Agent ===")
	fmt.Println()

	mairie := findOrRegisterMairie(prompt)

	conn, err := router.For(mairie)
	if err != nil {
		log.Fatalf("Failed to open mairie partition: %v", err)
	}

	fmt.Println()
	fmt.Println("Roles: " + strings.Join(agentRoles, ", "))
	role := prompt("Role")
	if !isAgentRole(role) {
		log.Fatalf("Unknown agent role %q", role)
	}

	firstName := prompt("First name")
	lastName := prompt("Last name")
	email := prompt("Email")
	phone := prompt("Phone")

	// Get password securely
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	fmt.Println() // New line after password input

	user, err := services.RegisterUser(conn, services.RegistrationInput{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     phone,
		Password:  string(passwordBytes),
	}, role)
	if err != nil {
		if problems := services.ValidationProblems(err); problems != nil {
			log.Fatalf("Invalid agent: %s", strings.Join(problems, "; "))
		}
		log.Fatalf("Failed to create agent: %v", err)
	}

	fmt.Println()
	fmt.Println("✓ Agent created successfully!")
	fmt.Printf("  Mairie: %s (%s)\n", mairie.Name, mairie.SchemaName)
	fmt.Printf("  Name: %s\n", user.FullName())
	fmt.Printf("  Email: %s\n", user.Email)
	fmt.Printf("  Role: %s\n", user.Role)
}

// findOrRegisterMairie looks the mairie up by code, registering it with its primary domain when new
func findOrRegisterMairie(prompt func(string) string) *models.Mairie {
	code := strings.ToUpper(prompt("Mairie code"))
	if code == "" {
		log.Fatal("Mairie code is required")
	}

	var mairie models.Mairie
	err := db.DB.Where("code = ?", code).First(&mairie).Error
	if err == nil {
		fmt.Printf("Using %s\n", mairie.Name)
		return &mairie
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Failed to look up mairie: %v", err)
	}

	fmt.Println("New mairie, registering it.")
	mairie = models.Mairie{
		Code:     code,
		Name:     prompt("Mairie name"),
		Region:   prompt("Region"),
		IsActive: true,
	}
	domain := prompt("Primary domain (e.g. yaounde1.mairie.cm)")
	if err := services.RegisterMairie(db.DB, &mairie, domain); err != nil {
		if problems := services.ValidationProblems(err); problems != nil {
			log.Fatalf("Invalid mairie: %s", strings.Join(problems, "; "))
		}
		log.Fatalf("Failed to register mairie: %v", err)
	}
	return &mairie
}

func isAgentRole(role string) bool {
	for _, r := range agentRoles {
		if r == role {
			return true
		}
	}
	return false
}
