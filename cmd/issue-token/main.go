package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/stemsi/smartquiz-backend/internal/config"
	"github.com/stemsi/smartquiz-backend/internal/logger"
	"github.com/stemsi/smartquiz-backend/internal/service"
)

// issue-token mints a token the way the auth provider would, for local
// development and smoke tests.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	authService := service.NewAuthService(cfg)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label)
		v, _ := reader.ReadString('\n')
		return strings.TrimSpace(v)
	}

	fmt.Println("=== Issue Development Token ===")

	userID := prompt("Enter User ID: ")
	if userID == "" {
		fmt.Println("Error: User ID is required")
		return
	}
	name := prompt("Enter Name: ")
	email := prompt("Enter Email: ")

	role := service.Role(prompt("Enter Role (learner/admin) [learner]: "))
	switch role {
	case "":
		role = service.RoleLearner
	case service.RoleLearner, service.RoleAdmin:
	default:
		fmt.Printf("Error: unknown role %q\n", role)
		return
	}

	token, err := authService.IssueToken(userID, name, email, role)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}

	fmt.Printf("\nToken for %s (%s), valid for %s:\n%s\n", userID, role, cfg.JWTExpiry, token)
}
