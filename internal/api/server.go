package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lueurxax/netdisk-aggregator/internal/auth"
	"github.com/lueurxax/netdisk-aggregator/internal/dedup"
	"github.com/lueurxax/netdisk-aggregator/internal/platform/config"
	"github.com/lueurxax/netdisk-aggregator/internal/query"
	"github.com/lueurxax/netdisk-aggregator/internal/storage"
	"github.com/lueurxax/netdisk-aggregator/internal/userstore"
	"github.com/lueurxax/netdisk-aggregator/internal/validate"
)

// Server holds every dependency the REST surface needs and wires them onto
// a gorilla/mux router.
type Server struct {
	cfg      *config.Config
	authSvc  *auth.Service
	users    *userstore.Store
	messages *query.Service
	maint    *query.MaintenanceService

	channels     *storage.ChannelRepo
	credentials  *storage.CredentialRepo
	linkChecks   *storage.LinkCheckRepo
	messagesRepo *storage.MessageRepo

	dedupEngine *dedup.Engine
	validator   *validate.Runner

	db *storage.DB
}

// Deps bundles every collaborator NewServer needs; kept as one struct so
// wiring it up in cmd/ doesn't require a long positional argument list.
type Deps struct {
	Config      *config.Config
	Auth        *auth.Service
	Users       *userstore.Store
	Messages    *query.Service
	Maintenance *query.MaintenanceService
	Channels     *storage.ChannelRepo
	Credentials  *storage.CredentialRepo
	LinkChecks   *storage.LinkCheckRepo
	MessagesRepo *storage.MessageRepo
	Dedup       *dedup.Engine
	Validator   *validate.Runner
	DB          *storage.DB
}

// NewServer constructs a Server from deps.
func NewServer(deps Deps) *Server {
	return &Server{
		cfg:         deps.Config,
		authSvc:     deps.Auth,
		users:       deps.Users,
		messages:    deps.Messages,
		maint:       deps.Maintenance,
		channels:     deps.Channels,
		credentials:  deps.Credentials,
		linkChecks:   deps.LinkChecks,
		messagesRepo: deps.MessagesRepo,
		dedupEngine: deps.Dedup,
		validator:   deps.Validator,
		db:          deps.DB,
	}
}

// Router builds the full route tree spec.md §6 names.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.observeLatency, s.rateLimit)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/config/public", s.handlePublicConfig).Methods(http.MethodGet)

	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.requireAuth)
	authed.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	authed.HandleFunc("/auth/me/password", s.handleChangeOwnPassword).Methods(http.MethodPost)

	guestable := api.NewRoute().Subrouter()
	guestable.Use(s.optionalAuth)
	guestable.HandleFunc("/messages", s.handleListMessages).Methods(http.MethodGet)
	guestable.HandleFunc("/messages/{id:[0-9]+}", s.handleGetMessage).Methods(http.MethodGet)
	guestable.HandleFunc("/messages/tags/stats", s.handleTagStats).Methods(http.MethodGet)
	guestable.HandleFunc("/statistics/overview", s.handleOverview).Methods(http.MethodGet)
	guestable.HandleFunc("/statistics/daily-trend", s.handleDailyTrend).Methods(http.MethodGet)
	guestable.HandleFunc("/statistics/dedup-stats", s.handleDedupStats).Methods(http.MethodGet)
	guestable.HandleFunc("/statistics/netdisk-distribution", s.handleNetdiskDistribution).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireAuth, s.requireAdmin)

	admin.HandleFunc("/credentials", s.handleListCredentials).Methods(http.MethodGet)
	admin.HandleFunc("/credentials", s.handleCreateCredential).Methods(http.MethodPost)
	admin.HandleFunc("/credentials/{id:[0-9]+}", s.handleDeleteCredential).Methods(http.MethodDelete)

	admin.HandleFunc("/channels", s.handleListChannels).Methods(http.MethodGet)
	admin.HandleFunc("/channels", s.handleCreateChannel).Methods(http.MethodPost)
	admin.HandleFunc("/channels/{id:[0-9]+}", s.handleUpdateChannel).Methods(http.MethodPut)
	admin.HandleFunc("/channels/{id:[0-9]+}", s.handleDeleteChannel).Methods(http.MethodDelete)
	admin.HandleFunc("/channels/diagnose", s.handleChannelsDiagnose).Methods(http.MethodPost)
	admin.HandleFunc("/channels/test-monitor", s.handleChannelsTestMonitor).Methods(http.MethodPost)

	admin.HandleFunc("/config", s.handleGetAdminConfig).Methods(http.MethodGet)
	admin.HandleFunc("/config", s.handlePutAdminConfig).Methods(http.MethodPut)

	admin.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users", s.handleCreateUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/export-all", s.handleExportAllUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/bulk/random-create", s.handleBulkRandomCreate).Methods(http.MethodPost)
	admin.HandleFunc("/users/bulk/delete", s.handleBulkDelete).Methods(http.MethodPost)
	admin.HandleFunc("/users/bulk/reset-password", s.handleBulkResetPassword).Methods(http.MethodPost)
	admin.HandleFunc("/users/{username}", s.handleGetUser).Methods(http.MethodGet)
	admin.HandleFunc("/users/{username}", s.handleUpdateUser).Methods(http.MethodPut)
	admin.HandleFunc("/users/{username}", s.handleDeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/users/{username}/password", s.handleSetUserPassword).Methods(http.MethodPut)
	admin.HandleFunc("/users/{username}/username", s.handleSetUsername).Methods(http.MethodPut)
	admin.HandleFunc("/users/{username}/role", s.handleSetUserRole).Methods(http.MethodPut)

	admin.HandleFunc("/maintenance/fix-tags", s.handleFixTags).Methods(http.MethodPost)
	admin.HandleFunc("/maintenance/dedup-links", s.handleDedupLinks).Methods(http.MethodPost)
	admin.HandleFunc("/maintenance/clear-link-check-data", s.handleClearLinkCheckData).Methods(http.MethodPost)
	admin.HandleFunc("/maintenance/clear-old-link-check-data", s.handleClearOldLinkCheckData).Methods(http.MethodPost)

	admin.HandleFunc("/link-check/start", s.handleLinkCheckStart).Methods(http.MethodPost)
	admin.HandleFunc("/link-check/tasks/{task_id}", s.handleLinkCheckTask).Methods(http.MethodGet)
	admin.HandleFunc("/link-check/tasks/{task_id}/cancel", s.handleLinkCheckCancel).Methods(http.MethodPost)
	admin.HandleFunc("/link-check/tasks", s.handleLinkCheckHistory).Methods(http.MethodGet)
	admin.HandleFunc("/link-check/tasks/{check_time}/result", s.handleLinkCheckResult).Methods(http.MethodGet)

	return r
}
