package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/nexus-cards-backend/pkg/auth"
	"github.com/angelmondragon/nexus-cards-backend/pkg/config"
	"github.com/angelmondragon/nexus-cards-backend/pkg/enums"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
)

// admin-token prints a staff bearer token for the catalog and stock routes.
func main() {
	logg := logger.New(logger.Options{ServiceName: "admin-token", Output: os.Stderr})

	_ = godotenv.Load()

	subject := flag.String("subject", "", "operator identity recorded in the token")
	role := flag.String("role", string(enums.StaffRoleAdmin), "staff role: admin|stock")
	flag.Parse()

	cfg, err := config.LoadAdminAuth()
	if err != nil {
		logg.Error(context.Background(), "resource not working: config", err)
		os.Exit(1)
	}
	staffRole, err := enums.ParseStaffRole(*role)
	if err != nil {
		fail("%v", err)
	}

	token, err := auth.MintStaffToken(cfg, time.Now().UTC(), *subject, staffRole)
	if err != nil {
		fail("failed to mint token: %v", err)
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"subject": *subject,
		"role":    staffRole.String(),
		"ttl":     cfg.TokenTTL.String(),
	})
	logg.Info(ctx, "staff token minted")
	fmt.Println(token)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
