package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Participants *ParticipantHandler
	Schedules    *ScheduleHandler
	Timers       *TimerHandler
	Stream       *StreamHandler
	Middleware   []func(http.Handler) http.Handler
}

// NewRouter builds the event-scoped route tree. Every resource lives under
// /events/{event_id}/; the event identifier is carried through the request
// context so handlers never re-parse the path.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
		eventID, rest := splitEventPath(r.URL.Path)
		if eventID == "" {
			http.NotFound(w, r)
			return
		}
		r = r.WithContext(ContextWithEventID(r.Context(), eventID))

		segments := splitSegments(rest)
		if len(segments) == 0 {
			http.NotFound(w, r)
			return
		}

		switch segments[0] {
		case "participants":
			routeParticipants(cfg.Participants, w, r, segments[1:])
		case "schedule":
			routeSchedule(cfg.Schedules, w, r, segments[1:])
		case "timer":
			routeTimer(cfg.Timers, w, r, segments[1:])
		case "stream":
			routeStream(cfg.Stream, w, r, segments[1:])
		default:
			http.NotFound(w, r)
		}
	})

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func routeParticipants(h *ParticipantHandler, w http.ResponseWriter, r *http.Request, segments []string) {
	if h == nil {
		http.NotFound(w, r)
		return
	}

	switch len(segments) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.List(w, r)
		case http.MethodPost:
			h.Create(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case 1:
		r = r.WithContext(ContextWithParticipantID(r.Context(), segments[0]))
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		h.Get(w, r)
	case 2:
		if segments[1] != "check-in" {
			http.NotFound(w, r)
			return
		}
		r = r.WithContext(ContextWithParticipantID(r.Context(), segments[0]))
		if r.Method != http.MethodPut {
			methodNotAllowed(w, http.MethodPut)
			return
		}
		h.SetCheckedIn(w, r)
	default:
		http.NotFound(w, r)
	}
}

func routeSchedule(h *ScheduleHandler, w http.ResponseWriter, r *http.Request, segments []string) {
	if h == nil {
		http.NotFound(w, r)
		return
	}

	switch len(segments) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.ListAll(w, r)
		case http.MethodPost:
			h.Generate(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case 1:
		r = r.WithContext(ContextWithParticipantID(r.Context(), segments[0]))
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		h.GetForParticipant(w, r)
	default:
		http.NotFound(w, r)
	}
}

func routeTimer(h *TimerHandler, w http.ResponseWriter, r *http.Request, segments []string) {
	if h == nil || len(segments) != 1 {
		http.NotFound(w, r)
		return
	}

	switch segments[0] {
	case "start":
		requirePost(h.Start)(w, r)
	case "pause":
		requirePost(h.Pause)(w, r)
	case "resume":
		requirePost(h.Resume)(w, r)
	case "next":
		requirePost(h.Next)(w, r)
	case "durations":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, http.MethodPut)
			return
		}
		h.UpdateDurations(w, r)
	case "status":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		h.Status(w, r)
	default:
		http.NotFound(w, r)
	}
}

func routeStream(h *StreamHandler, w http.ResponseWriter, r *http.Request, segments []string) {
	if h == nil || len(segments) != 0 {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	h.Stream(w, r)
}

func requirePost(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		next(w, r)
	}
}

// splitEventPath separates the event identifier from the remainder of the
// path, e.g. /events/abc/timer/start yields ("abc", "timer/start").
func splitEventPath(path string) (string, string) {
	trimmed := strings.TrimPrefix(path, "/events/")
	if trimmed == path {
		return "", ""
	}
	parts := strings.SplitN(trimmed, "/", 2)
	eventID := parts[0]
	if len(parts) == 1 {
		return eventID, ""
	}
	return eventID, parts[1]
}

func splitSegments(rest string) []string {
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
