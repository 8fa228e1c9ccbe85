package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"citysnap-be/config"
	"citysnap-be/logger"
	"citysnap-be/models"
	"citysnap-be/services"
	authUtils "citysnap-be/utils"

	"github.com/rs/zerolog"
)

const usage = `Usage: admin <command> [args]

Commands:
  seed [--samples]                 create the category taxonomy and the admin user
  create-user <email> <name> <role>
  token <user_id>                  print a signed token for an existing user`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logData, err := logger.New().FromWriter(zerolog.ConsoleWriter{Out: os.Stderr}).Level(cfg.LogLevel).Make()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logData.Logger

	ctx := context.Background()
	st, err := config.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	users := services.NewUserService(st, log)
	categories := services.NewCategoryService(st, log)

	switch os.Args[1] {
	case "seed":
		withSamples := len(os.Args) > 2 && os.Args[2] == "--samples"
		if err := seed(ctx, categories, users, withSamples); err != nil {
			log.Fatal().Err(err).Msg("seed failed")
		}
	case "create-user":
		if len(os.Args) != 5 {
			fmt.Println("Usage: admin create-user <email> <name> <role>")
			os.Exit(1)
		}
		role, err := models.ParseRole(os.Args[4])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		u, created, err := users.Ensure(ctx, services.UserInput{Email: os.Args[2], Name: os.Args[3], Role: role})
		if err != nil {
			log.Fatal().Err(err).Msg("create user failed")
		}
		if !created {
			fmt.Printf("User %s already exists with id %d.\n", u.Email, u.ID)
			return
		}
		fmt.Printf("User %s created with id %d.\n", u.Email, u.ID)
	case "token":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin token <user_id>")
			os.Exit(1)
		}
		id, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil {
			fmt.Println("Invalid user ID. Please provide an integer.")
			os.Exit(1)
		}
		u, err := users.Get(ctx, id)
		if err != nil {
			log.Fatal().Err(err).Int64("user_id", id).Msg("lookup failed")
		}
		tok, err := authUtils.GenerateToken(u.ID, u.Role, cfg.JWTSecret)
		if err != nil {
			log.Fatal().Err(err).Msg("sign token failed")
		}
		fmt.Println(tok)
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func seed(ctx context.Context, categories *services.CategoryService, users *services.UserService, withSamples bool) error {
	created, err := categories.Seed(ctx, services.DefaultTaxonomy)
	if err != nil {
		return err
	}
	fmt.Printf("Created %d categories\n", created)

	accounts := []services.UserInput{{Name: "Administrator", Email: "admin@citysnap.com", Role: models.Admin}}
	if withSamples {
		accounts = append(accounts,
			services.UserInput{Name: "Sample Citizen", Email: "citizen@example.com", Role: models.Citizen},
			services.UserInput{Name: "Sample Officer", Email: "officer@example.com", Role: models.Officer},
		)
	}
	for _, in := range accounts {
		u, isNew, err := users.Ensure(ctx, in)
		if err != nil {
			return err
		}
		if isNew {
			fmt.Printf("  - Created %s: %s (id %d)\n", u.Role, u.Email, u.ID)
		} else {
			fmt.Printf("  - %s already exists: %s (id %d)\n", u.Role, u.Email, u.ID)
		}
	}
	return nil
}
