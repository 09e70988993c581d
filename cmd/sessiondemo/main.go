// Command sessiondemo exercises the session lifecycle against a running
// token issuing service: login, profile fetch, an authenticated request, and
// logout, with the session persisted between invocations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/aeroprep/go-session-client/httpauth"
	"github.com/aeroprep/go-session-client/internal/config"
	"github.com/aeroprep/go-session-client/session"
	"github.com/aeroprep/go-session-client/store/filestore"
	"github.com/aeroprep/go-session-client/store/memstore"
	"github.com/aeroprep/go-session-client/store/redistore"
	"github.com/aeroprep/go-session-client/tokenclient"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	var (
		username = flag.String("username", os.Getenv("PORTAL_USERNAME"), "portal username (login)")
		password = flag.String("password", os.Getenv("PORTAL_PASSWORD"), "portal password (login)")
		getURL   = flag.String("get", "", "perform an authenticated GET against this URL")
		logout   = flag.Bool("logout", false, "log out and clear the stored session")
	)

	cfg := config.MustLoad() // also parses the flags above

	displayAppname("AeroPrep")

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	if cfg.Env == "local" {
		logger = logger.Level(zerolog.DebugLevel)
	}

	sessionStore, err := buildStore(cfg)
	if err != nil {
		return err
	}

	issuer, err := tokenclient.New(cfg.Issuer.BaseURL,
		tokenclient.WithHTTPClient(&http.Client{Timeout: cfg.Issuer.Timeout}),
		tokenclient.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	manager, err := session.NewManager(sessionStore, issuer,
		session.WithSkew(cfg.Session.RefreshSkew),
		session.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if *logout {
		if err := manager.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	}

	if *username != "" {
		if _, err := manager.Login(ctx, *username, *password); err != nil {
			return err
		}
		fmt.Println("logged in")
	}

	profile, err := manager.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s <%s>\n", profile.Username, profile.Email)

	if *getURL != "" {
		return authenticatedGet(ctx, manager, logger, *getURL)
	}
	return nil
}

func authenticatedGet(ctx context.Context, manager *session.Manager, logger zerolog.Logger, url string) error {
	client, err := httpauth.NewClient(manager, httpauth.WithLogger(logger))
	if err != nil {
		return err
	}

	resp, err := client.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n%s\n", resp.Proto, resp.Status, body)
	return nil
}

func buildStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return memstore.New(), nil
	case "redis":
		return redistore.New(redistore.Config{
			Addr:      cfg.Store.Redis.Addr,
			Password:  cfg.Store.Redis.Password,
			DB:        cfg.Store.Redis.DB,
			KeyPrefix: cfg.Store.Redis.KeyPrefix,
		})
	default:
		return filestore.New(cfg.Store.FilePath)
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
