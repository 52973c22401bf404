// Package mockapi serves an in-memory rendition of the Airease HTTP API.
// It backs the test suites and local dry runs; Faults switch individual
// responses into the broken shapes the checks are meant to catch.
package mockapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// HealthMessage is the message GET /api/ answers with.
const HealthMessage = "Airease API is running!"

// Faults selects deviations from the documented contract.
type Faults struct {
	// ShufflePrices returns the flights out of price order.
	ShufflePrices bool
	// FlightCount overrides the number of flights returned (default 6).
	FlightCount int
	// OmitActive drops the 'active' field from created watches.
	OmitActive bool
	// InactiveWatch creates watches with active=false.
	InactiveWatch bool
	// ToggleNotFound answers every toggle with 404.
	ToggleNotFound bool
	// AIGenerated marks AI responses as produced by a language model.
	AIGenerated bool
	// Delay stalls responses for paths with DelayPrefix (all when empty).
	Delay       time.Duration
	DelayPrefix string
	// Status forces a status code for a path, e.g. {"/api/watchlist": 500}.
	Status map[string]int
	// Malformed answers the listed paths with a body that is not JSON.
	Malformed map[string]bool
	// Panic makes the given path abort the connection mid-request.
	Panic map[string]bool
}

// Server implements the Airease API in memory.
type Server struct {
	mu      sync.RWMutex
	faults  Faults
	watches []map[string]interface{}
	mux     *http.ServeMux
}

// New creates a server with the given faults.
func New(faults Faults) *Server {
	s := &Server{faults: faults, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET /api/{$}", s.handleHealth)
	s.mux.HandleFunc("POST /api/flights/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/flights/check-prices", s.handleCheckPrices)
	s.mux.HandleFunc("POST /api/watchlist", s.handleCreateWatch)
	s.mux.HandleFunc("GET /api/watchlist", s.handleListWatches)
	s.mux.HandleFunc("PUT /api/watchlist/toggle", s.handleToggle)
	s.mux.HandleFunc("GET /api/notifications/test", s.handleTestNotification)
	s.mux.HandleFunc("POST /api/notifications/send", s.handleSendNotification)
	s.mux.HandleFunc("POST /api/ai/recommendations", s.handleRecommendations)
	s.mux.HandleFunc("POST /api/ai/packing", s.handlePacking)
	s.mux.HandleFunc("POST /api/ai/travel-tips", s.handleTravelTips)
	s.mux.HandleFunc("POST /api/ai/time-budget", s.handleTimeBudget)
	return s
}

// SetFaults replaces the active faults.
func (s *Server) SetFaults(f Faults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = f
}

func (s *Server) currentFaults() Faults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.faults
}

// Watches returns the number of stored watches.
func (s *Server) Watches() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.watches)
}

// ServeHTTP applies faults and dispatches to the API handlers.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f := s.currentFaults()
	slog.Debug("Mock API request", "method", r.Method, "path", r.URL.Path)

	if f.Delay > 0 && (f.DelayPrefix == "" || strings.HasPrefix(r.URL.Path, f.DelayPrefix)) {
		select {
		case <-time.After(f.Delay):
		case <-r.Context().Done():
			return
		}
	}
	if f.Panic[r.URL.Path] {
		panic(http.ErrAbortHandler)
	}
	if code, ok := f.Status[r.URL.Path]; ok {
		writeJSON(w, code, map[string]interface{}{"error": http.StatusText(code)})
		return
	}
	if f.Malformed[r.URL.Path] {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "<html><body>Service temporarily unavailable</body></html>")
		return
	}

	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func readJSON(r *http.Request) (map[string]interface{}, error) {
	body := map[string]interface{}{}
	if r.Body == nil {
		return body, nil
	}
	if err := sonic.ConfigStd.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     HealthMessage,
		"version":     "2.0.0",
		"features":    []string{"flight-search", "price-watch", "email-alerts", "ai-recommendations"},
		"emergentLlm": s.currentFaults().AIGenerated,
	})
}

var airlines = []string{"Royal Jordanian", "Qatar Airways", "Emirates", "Turkish Airlines", "British Airways", "Lufthansa"}

// shuffledOrder is a fixed permutation so failures are reproducible.
var shuffledOrder = []int{3, 0, 5, 1, 4, 2}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid JSON"})
		return
	}
	f := s.currentFaults()

	count := 6
	if f.FlightCount > 0 {
		count = f.FlightCount
	}

	from, _ := req["from"].(string)
	to, _ := req["to"].(string)
	flights := make([]map[string]interface{}, 0, count)
	for i := 0; i < count; i++ {
		flights = append(flights, map[string]interface{}{
			"id":            uuid.NewString(),
			"from":          from,
			"to":            to,
			"airline":       airlines[i%len(airlines)],
			"flightNumber":  fmt.Sprintf("AE%03d", 100+i),
			"departureTime": fmt.Sprintf("%02d:30", 6+i*2),
			"arrivalTime":   fmt.Sprintf("%02d:45", 11+i*2),
			"duration":      "5h 15m",
			"price":         300 + 50*i,
			"stops":         i % 2,
			"baggage":       "23kg",
		})
	}
	if f.ShufflePrices && count == len(shuffledOrder) {
		shuffled := make([]map[string]interface{}, count)
		for i, j := range shuffledOrder {
			shuffled[i] = flights[j]
		}
		flights = shuffled
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flights":      flights,
		"searchParams": req,
		"timestamp":    now(),
	})
}

func (s *Server) handleCreateWatch(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid JSON"})
		return
	}
	for _, field := range []string{"from", "to", "targetPrice", "email"} {
		if _, ok := req[field]; !ok {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Missing required fields"})
			return
		}
	}
	f := s.currentFaults()

	pref := req["notificationPreference"]
	if pref == nil {
		pref = "email"
	}
	watch := map[string]interface{}{
		"id":                     uuid.NewString(),
		"from":                   req["from"],
		"to":                     req["to"],
		"departDate":             req["departDate"],
		"targetPrice":            req["targetPrice"],
		"email":                  req["email"],
		"notificationPreference": pref,
		"active":                 !f.InactiveWatch,
		"createdAt":              now(),
		"lastCheck":              now(),
		"priceHistory":           []interface{}{},
	}
	if f.OmitActive {
		delete(watch, "active")
	}

	created := copyWatch(watch)
	s.mu.Lock()
	s.watches = append(s.watches, watch)
	s.mu.Unlock()

	// the stored map is mutated by toggles; answer with the creation state
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"watch":   created,
		"message": "Price watch created successfully",
	})
}

func copyWatch(watch map[string]interface{}) map[string]interface{} {
	cp := make(map[string]interface{}, len(watch))
	for k, v := range watch {
		cp[k] = v
	}
	return cp
}

func (s *Server) handleListWatches(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	list := make([]map[string]interface{}, 0, len(s.watches))
	for _, watch := range s.watches {
		list = append(list, copyWatch(watch))
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{"watchlists": list})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid JSON"})
		return
	}
	if s.currentFaults().ToggleNotFound {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Watch not found"})
		return
	}

	id, _ := req["watchId"].(string)
	active, _ := req["active"].(bool)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, watch := range s.watches {
		if watch["id"] == id {
			watch["active"] = active
			state := "paused"
			if active {
				state = "activated"
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"message": "Watch " + state + " successfully",
			})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Watch not found"})
}

const emailHTML = `<html><body>
<h1>✈️ Price Drop Alert</h1>
<p class="badge">AI-Powered insights for your trip</p>
<div class="packing-recommendations"><h2>What to pack</h2><ul><li>Light jacket</li></ul></div>
<div class="travel-tips"><h2>Travel tips</h2><p>Carry some local currency.</p></div>
<div class="time-budget"><h2>Leave by 05:45</h2></div>
</body></html>`

func (s *Server) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result": map[string]interface{}{
			"success": true,
			"emailId": uuid.NewString(),
			"content": map[string]interface{}{
				"subject": "✈️ Price Drop Alert: AMM → LHR",
				"html":    emailHTML,
			},
			"aiFeatures": map[string]interface{}{
				"packingRecommendations": true,
				"travelTips":             true,
				"timeBudget":             true,
				"weather":                true,
			},
		},
	})
}

func (s *Server) handleCheckPrices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result": map[string]interface{}{
			"success":           true,
			"watchesChecked":    s.Watches(),
			"notificationsSent": 0,
		},
	})
}

func (s *Server) handleSendNotification(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid JSON"})
		return
	}
	id, _ := req["watchId"].(string)

	s.mu.RLock()
	found := false
	for _, watch := range s.watches {
		if watch["id"] == id {
			found = true
		}
	}
	s.mu.RUnlock()

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "Watch not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "emailId": uuid.NewString()})
}

func packing() map[string]interface{} {
	return map[string]interface{}{
		"clothing":   []string{"Light jacket", "Comfortable walking shoes"},
		"weather":    []string{"Compact umbrella"},
		"essentials": []string{"Passport", "Travel adapter (Type G)"},
	}
}

func tips() []map[string]interface{} {
	return []map[string]interface{}{
		{"category": "transport", "tip": "Use an Oyster card on the Underground."},
		{"category": "money", "tip": "Contactless payment is accepted almost everywhere."},
	}
}

func timeBudget() (segments []map[string]interface{}, total int, leaveBy string) {
	segments = []map[string]interface{}{
		{"name": "Travel to airport", "minutes": 45},
		{"name": "Check-in and bag drop", "minutes": 60},
		{"name": "Security", "minutes": 30},
		{"name": "Buffer", "minutes": 30},
	}
	for _, seg := range segments {
		total += seg["minutes"].(int)
	}
	return segments, total, "05:45"
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	segments, total, leaveBy := timeBudget()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"packingRecs": map[string]interface{}{
			"recommendations": packing(),
			"weather":         map[string]interface{}{"temp": 14, "condition": "Cloudy"},
		},
		"travelTips": map[string]interface{}{"tips": tips(), "destination": "LHR"},
		"timeBudget": map[string]interface{}{
			"timeBudget":   segments,
			"totalMinutes": total,
			"leaveByTime":  leaveBy,
		},
		"aiGenerated": s.currentFaults().AIGenerated,
	})
}

func (s *Server) handlePacking(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": packing(),
		"weather":         map[string]interface{}{"temp": 14, "condition": "Cloudy"},
		"aiGenerated":     s.currentFaults().AIGenerated,
	})
}

func (s *Server) handleTravelTips(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tips":        tips(),
		"destination": "LHR",
		"aiGenerated": s.currentFaults().AIGenerated,
	})
}

func (s *Server) handleTimeBudget(w http.ResponseWriter, r *http.Request) {
	segments, total, leaveBy := timeBudget()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"timeBudget":   segments,
		"totalMinutes": total,
		"leaveByTime":  leaveBy,
		"aiGenerated":  s.currentFaults().AIGenerated,
	})
}
