// Command create-user registers a journal user directly against the
// database and optionally prints a bearer token for it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fitjournal/fitjournal/internal/auth"
	"github.com/fitjournal/fitjournal/internal/metrics"
	"github.com/fitjournal/fitjournal/internal/repository"
	"github.com/fitjournal/fitjournal/internal/service"
)

type output struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token,omitempty"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		secretKey   = flag.String("secret-key", os.Getenv("SECRET_KEY"), "Token signing secret; empty skips token issuance")
		username    = flag.String("username", "", "Username (required)")
		email       = flag.String("email", "", "Email (required)")
		password    = flag.String("password", os.Getenv("FITJOURNAL_PASSWORD"), "Password (required)")
		migrate     = flag.Bool("migrate", false, "Apply schema migrations first")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *migrate {
		if err := repository.Migrate(ctx, *databaseURL); err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
	}

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	var tokens *auth.TokenCodec
	if *secretKey != "" {
		tokens, err = auth.NewTokenCodec([]byte(*secretKey), 0)
		if err != nil {
			fmt.Fprintln(os.Stderr, "token codec:", err)
			os.Exit(1)
		}
	}

	users := service.NewUserService(repo, tokens, metrics.NewNoop())
	user, err := users.Register(ctx, service.RegisterInput{
		Username: *username,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) || errors.Is(err, service.ErrUsernameTaken) || errors.Is(err, service.ErrEmailTaken) {
			fmt.Fprintln(os.Stderr, err.Error())
		} else {
			fmt.Fprintln(os.Stderr, "register user:", err)
		}
		os.Exit(1)
	}

	out := output{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
	if tokens != nil {
		if out.Token, err = tokens.Issue(user.ID); err != nil {
			fmt.Fprintln(os.Stderr, "issue token:", err)
			os.Exit(1)
		}
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.UserID)
		if out.Token != "" {
			fmt.Println(out.Token)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}
