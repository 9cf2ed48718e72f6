package httpapi

import (
	"net/http"
	"strings"
)

// NewMux returns the raw mux so main() can still attach extra routes.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Auth
	ah := AuthHandler{DB: d.DB, Secret: d.JWTSecret}
	mux.HandleFunc("/auth/register", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.Register,
	}))
	mux.HandleFunc("/auth/register/admin", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.RegisterAdmin,
	}))
	mux.HandleFunc("/auth/login", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.Login,
	}))

	// Listings
	lh := ListingsHandler{DB: d.DB, Hub: d.Hub, CfgVal: d.CfgVal}
	mux.HandleFunc("/listings", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.List,
	}))
	mux.HandleFunc("/listings/new", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: requireAuth(d.JWTSecret, lh.New),
	}))
	mux.HandleFunc("/listings/search", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.Search,
	}))

	// Bookings
	bh := BookingsHandler{DB: d.DB, Hub: d.Hub}
	mux.HandleFunc("/listings/book", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: requireAuth(d.JWTSecret, bh.Book),
	}))
	mux.HandleFunc("/listings/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/quote") {
			methodMux(map[string]http.HandlerFunc{
				http.MethodGet: lh.Quote,
			})(w, r)
			return
		}
		methodMux(map[string]http.HandlerFunc{
			http.MethodGet:    lh.Get,
			http.MethodPut:    requireAuth(d.JWTSecret, lh.Update),
			http.MethodDelete: requireAuth(d.JWTSecret, lh.Delete),
		})(w, r)
	})

	rh := ReviewsHandler{DB: d.DB}
	mux.HandleFunc("/bookings/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/review") {
			requireAuth(d.JWTSecret, rh.ServeHTTP)(w, r)
			return
		}
		methodMux(map[string]http.HandlerFunc{
			http.MethodGet:    bh.Get,
			http.MethodPut:    requireAuth(d.JWTSecret, bh.Update),
			http.MethodDelete: requireAuth(d.JWTSecret, bh.Cancel),
		})(w, r)
	})
	mux.HandleFunc("/profile/completed-bookings", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: requireAuth(d.JWTSecret, bh.Completed),
	}))

	// Payments
	ph := PaymentsHandler{DB: d.DB, Hub: d.Hub, CfgVal: d.CfgVal}
	mux.HandleFunc("/pay", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: requireAuth(d.JWTSecret, ph.Pay),
	}))
	mux.HandleFunc("/wallet/top-up", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: requireAuth(d.JWTSecret, ph.TopUp),
	}))
	mux.HandleFunc("/wallet/withdraw", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: requireAuth(d.JWTSecret, ph.Withdraw),
	}))
	mux.HandleFunc("/bill", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: requireAuth(d.JWTSecret, ph.Bill),
	}))

	// User
	uh := UserHandler{DB: d.DB}
	mux.HandleFunc("/user/profile", requireAuth(d.JWTSecret, uh.Profile))
	mux.HandleFunc("/user/analytics", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: requireAuth(d.JWTSecret, uh.Analytics),
	}))
	mux.HandleFunc("/user/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: uh.Get,
	}))

	// Inbox
	ih := InboxHandler{DB: d.DB}
	mux.HandleFunc("/inbox", requireAuth(d.JWTSecret, ih.Overview))
	mux.HandleFunc("/inbox/", requireAuth(d.JWTSecret, ih.Message))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))
	sh := SecretsHandler{DB: d.DB, CfgVal: d.CfgVal}
	mux.HandleFunc("/config/signing-key", requireAuth(d.JWTSecret, sh.SigningKey))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Health
	hh := HealthHandler{}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	return mux
}
