package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/talentprobe/talentprobe-backend/internal/config"
	"github.com/talentprobe/talentprobe-backend/internal/database"
	"github.com/talentprobe/talentprobe-backend/internal/logger"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/service"
	"github.com/talentprobe/talentprobe-backend/internal/store/pgstore"
	"golang.org/x/term"
)

// create-org provisions a new organization together with its first user,
// since signup has no self-service flow.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	st := pgstore.New(pool)
	authService := service.NewAuthService(cfg, st)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Organization ===")

	fmt.Print("Organization Name: ")
	orgName, _ := reader.ReadString('\n')
	orgName = strings.TrimSpace(orgName)
	if orgName == "" {
		fmt.Println("Error: Organization name is required")
		return
	}

	fmt.Print("First User Name: ")
	userName, _ := reader.ReadString('\n')
	userName = strings.TrimSpace(userName)
	if userName == "" {
		fmt.Println("Error: User name is required")
		return
	}

	fmt.Print("First User Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Provision ─────────────────────────────────────────────────────
	org, err := st.CreateOrganization(ctx, orgName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create organization")
	}

	user, err := authService.CreateUser(ctx, org.ID, model.CreateUserRequest{
		Email:    email,
		Name:     userName,
		Password: password,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nOrganization %q created with id %d\n", org.Name, org.ID)
	fmt.Printf("User %q (%s) created with id %d\n", user.Name, user.Email, user.ID)
}
