package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	auth "github.com/terraworkdynamics/skenterprises"
	"github.com/terraworkdynamics/skenterprises/activitymap"
	"github.com/terraworkdynamics/skenterprises/config"
	"github.com/terraworkdynamics/skenterprises/middleware/jwtware"
	"github.com/terraworkdynamics/skenterprises/provider/supabase"
	"github.com/terraworkdynamics/skenterprises/relay"
	"github.com/terraworkdynamics/skenterprises/repository"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const defaultDSN = "file:skenterprises.db?cache=shared"

type App struct {
	config    *gconfig.Container[*config.BaseConfig]
	logger    *glog.BaseLogger
	bunDB     *bun.DB
	repo      repository.Manager
	identity  *supabase.Client
	validator *supabase.TokenValidator
	authority *auth.Authority
	guard     *auth.Guard
	srv       router.Server[*fiber.App]
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

// AuthLogger adapts a module logger to the printf contract the auth
// packages expect.
func (a *App) AuthLogger(name string) auth.Logger {
	return printfLogger{lgr: a.GetLogger(name)}
}

type printfLogger struct {
	lgr glog.Logger
}

func (l printfLogger) Debug(format string, args ...any) { l.lgr.Debug(fmt.Sprintf(format, args...)) }
func (l printfLogger) Info(format string, args ...any)  { l.lgr.Info(fmt.Sprintf(format, args...)) }
func (l printfLogger) Warn(format string, args ...any)  { l.lgr.Warn(fmt.Sprintf(format, args...)) }
func (l printfLogger) Error(format string, args ...any) { l.lgr.Error(fmt.Sprintf(format, args...)) }

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("app"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
	fmt.Println("============")

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithIdentity(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	RegisterRoutes(app)

	addr := app.Config().GetServer().GetAddr()
	if addr == "" {
		addr = ":8572"
	}
	go app.srv.Serve(addr)

	WaitExitSignal()

	app.authority.Close()
	if app.validator != nil {
		app.validator.Close()
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	dsn := app.Config().GetPersistence().GetDSN()
	if dsn == "" {
		dsn = defaultDSN
	}

	db, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return err
	}

	persistence.RegisterModel((*repository.Registration)(nil))
	persistence.RegisterModel((*repository.Payment)(nil))
	persistence.RegisterModel((*repository.LuckyDrawEntry)(nil))
	persistence.RegisterModel((*repository.RememberedLogin)(nil))

	pcfg := app.Config().GetPersistence()
	client, err := persistence.New(pcfg, db, sqlitedialect.New())
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(auth.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	if app.Config().GetApp().GetEnv() == "development" {
		fixturesFS, err := fs.Sub(auth.GetFixturesFS(), "data/fixtures")
		if err != nil {
			return err
		}
		client.RegisterFixtures(fixturesFS).AddOptions(persistence.WithTrucateTables())
		if err := client.Seed(ctx); err != nil {
			return err
		}
	}

	app.bunDB = client.DB()

	repo, err := repository.NewManager(app.bunDB)
	if err != nil {
		return err
	}
	repo.MustValidate()
	app.repo = repo

	return nil
}

func WithIdentity(ctx context.Context, app *App) error {
	scfg := app.Config().GetSupabase()

	providerConfig := supabase.Config{
		URL:     scfg.GetURL(),
		AnonKey: scfg.GetAnonKey(),
		JWKSUrl: scfg.GetJWKSUrl(),
	}

	client := supabase.NewClient(providerConfig, supabase.WithLogger(app.AuthLogger("identity")))
	app.identity = client

	authority := auth.NewAuthority(client, app.Config().GetAuth(),
		auth.WithLogger(app.AuthLogger("authority")),
		auth.WithRememberStore(app.repo.Remember()),
		auth.WithActivitySink(activitymap.NewLoggerSink(app.AuthLogger("activity"))),
	)
	authority.Bootstrap(ctx)
	app.authority = authority

	gcfg := app.Config().GetGuard()
	app.guard = auth.NewGuard(authority, auth.GuardConfig{
		LoginPath:         gcfg.GetLoginPath(),
		DashboardPath:     gcfg.GetDashboardPath(),
		ProtectedPrefixes: gcfg.GetProtectedPrefixes(),
		RejectedRouteKey:  gcfg.GetRejectedRouteKey(),
	}, app.AuthLogger("guard"))

	// Token validation is only possible with real provider credentials.
	if client.IsConfigured() {
		validator, err := supabase.NewTokenValidator(providerConfig, app.AuthLogger("tokens"))
		if err != nil {
			return err
		}
		app.validator = validator
	}

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))
	srv.Router().Use(app.guard.Public())

	app.srv = srv
	return nil
}

func RegisterRoutes(app *App) {
	r := app.srv.Router()
	protected := app.guard.Protected()

	r.Get("/", func(ctx router.Context) error {
		return ctx.SendString("SK Enterprises")
	})

	r.Get("/login", LoginShow(app))
	r.Post("/login", LoginPost(app))
	r.Post("/logout", LogoutPost(app))
	r.Get("/api/session", SessionShow(app))

	r.Get("/dashboard", DashboardShow(app), protected)
	r.Get("/due-list", DueListShow(app), protected)
	r.Get("/monthwise-due", MonthwiseDueShow(app), protected)

	if relayCfg := app.Config().GetRelay(); relayCfg.GetEnabled() {
		sender := relay.NewSender(relay.Config{
			Endpoint:       relayCfg.GetEndpoint(),
			Token:          relayCfg.GetToken(),
			Template:       relayCfg.GetTemplate(),
			DefaultCountry: relayCfg.GetDefaultCountry(),
		}, relay.WithLogger(app.AuthLogger("relay")))

		handler := relay.NewHandler(sender, app.AuthLogger("relay"))

		// API callers present the provider access token directly.
		if app.validator != nil {
			bearer := jwtware.New(jwtware.Config{TokenValidator: app.validator})
			r.Post("/api/whatsapp/send", handler.SendPost, bearer)
		} else {
			r.Post("/api/whatsapp/send", handler.SendPost, protected)
		}
	}
}

func LoginShow(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		remembered := app.authority.RememberedIdentifier(ctx.Context())
		return ctx.JSON(http.StatusOK, map[string]any{
			"remembered_identifier": remembered,
		})
	}
}

func LoginPost(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		payload := new(auth.Credentials)
		if err := ctx.Bind(payload); err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]any{
				"error": "Error parsing body",
			})
		}

		if err := app.authority.SignIn(ctx.Context(), *payload); err != nil {
			state := app.authority.CurrentState()
			message := state.Err
			if message == "" {
				message = "Authentication Error"
			}

			var rich *errors.Error
			if errors.As(err, &rich) {
				if m, ok := rich.Metadata["message"].(string); ok {
					message = m
				}
			}

			return ctx.JSON(http.StatusUnauthorized, map[string]any{
				"error": message,
			})
		}

		redirect := app.guard.GetRedirect(ctx, app.guard.DashboardPath())
		return ctx.JSON(http.StatusOK, map[string]any{
			"redirect": redirect,
			"user":     app.authority.CurrentUser(),
		})
	}
}

func LogoutPost(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		app.authority.SignOut(ctx.Context(), "")
		return ctx.Redirect(app.guard.LoginPath(), router.StatusSeeOther)
	}
}

func SessionShow(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		app.authority.ResetIdleTimer()
		return ctx.JSON(http.StatusOK, app.authority.CurrentState())
	}
}

func DashboardShow(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		user := app.authority.CurrentUser()
		return ctx.JSON(http.StatusOK, map[string]any{
			"user":       user,
			"categories": repository.Categories(),
		})
	}
}

func DueListShow(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		category := repository.Category(ctx.Query("category", string(repository.CategoryLaptop)))

		regs, err := app.repo.Registrations(category)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]any{
				"error": err.Error(),
			})
		}

		records, err := regs.ListDue(ctx.Context())
		if err != nil {
			return ctx.JSON(http.StatusInternalServerError, map[string]any{
				"error": "unable to load due list",
			})
		}

		return ctx.JSON(http.StatusOK, map[string]any{
			"category":      category,
			"registrations": records,
		})
	}
}

func MonthwiseDueShow(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		category := repository.Category(ctx.Query("category", string(repository.CategoryLaptop)))

		regs, err := app.repo.Registrations(category)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]any{
				"error": err.Error(),
			})
		}

		rows, err := regs.MonthwiseDue(ctx.Context())
		if err != nil {
			return ctx.JSON(http.StatusInternalServerError, map[string]any{
				"error": "unable to load monthwise dues",
			})
		}

		return ctx.JSON(http.StatusOK, map[string]any{
			"category": category,
			"months":   rows,
		})
	}
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
