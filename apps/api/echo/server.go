package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/achievement"
	"github.com/mwalimu/shule/core/album"
	"github.com/mwalimu/shule/core/announcement"
	"github.com/mwalimu/shule/core/club"
	"github.com/mwalimu/shule/core/document"
	"github.com/mwalimu/shule/core/event"
	"github.com/mwalimu/shule/core/staff"
	"github.com/mwalimu/shule/core/tc"
)

type (
	ServerDeps struct {
		Conf   *core.Config
		Logger core.Logger

		TcSvc           tc.ServiceInterface
		AchievementSvc  *achievement.Service
		AlbumSvc        *album.Service
		AnnouncementSvc *announcement.Service
		ClubSvc         *club.Service
		DocumentSvc     *document.Service
		StaffSvc        *staff.Service
		EventSvc        *event.Service

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps       ServerDeps
		app        *echo.Echo
		serverErrs chan error
		shutdown   chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:       deps,
		app:        echo.New(),
		serverErrs: make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	admin := v1.Group("/admin")

	registerTcAPI(v1, admin, s.deps.TcSvc, conf, s.deps.Validate)
	registerAchievementAPI(v1, admin, s.deps.AchievementSvc, s.deps.Validate)
	registerAlbumAPI(v1, admin, s.deps.AlbumSvc, s.deps.Validate)
	registerAnnouncementAPI(v1, admin, s.deps.AnnouncementSvc, s.deps.Validate)
	registerClubAPI(v1, admin, s.deps.ClubSvc, s.deps.Validate)
	registerDocumentAPI(v1, admin, s.deps.DocumentSvc, s.deps.Validate)
	registerStaffAPI(v1, admin, s.deps.StaffSvc, s.deps.Validate)
	registerEventAPI(v1, admin, s.deps.EventSvc, s.deps.Validate)
}

func (s *server) Start() {
	s.serverErrs <- s.app.Start(s.deps.Conf.Server.Address())
}

func (s *server) Errors() <-chan error {
	return s.serverErrs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Shule API!")
}
