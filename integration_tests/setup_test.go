package integrationtest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

const (
	testAPIKey       = "test_api_key"
	upstreamPath     = "/data/2.5/weather"
	biguacuPayload   = `{"coord":{"lon":-48.66,"lat":-27.49},"weather":[{"id":800,"main":"Clear","description":"céu limpo","icon":"01d"}],"main":{"temp":24.5,"feels_like":25.1,"temp_min":23,"temp_max":26,"pressure":1015,"humidity":88},"name":"Biguaçu","cod":200}`
	floripaPayload   = `{"weather":[{"description":"nuvens dispersas"}],"main":{"temp":22.1,"humidity":75},"name":"Florianópolis","cod":200}`
	lagesPayload     = `{"weather":[{"description":"nublado"}],"main":{"temp":12,"humidity":70},"name":"Lages","cod":200}`
	malformedPayload = `{"weather":[],"main":{"temp":20,"humidity":50},"name":"Vazio","cod":200}`
)

// mockOWM is a fake OpenWeatherMap current-weather endpoint.
type mockOWM struct {
	*httptest.Server

	mu      sync.Mutex
	queries []url.Values
	delay   time.Duration
}

func newMockOWM() *mockOWM {
	m := &mockOWM{}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

func (m *mockOWM) serve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	m.mu.Lock()
	m.queries = append(m.queries, q)
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if r.URL.Path != upstreamPath {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if q.Get("appid") != testAPIKey {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
		return
	}

	var body string
	switch q.Get("q") {
	case "Biguacu":
		body = biguacuPayload
	case "Florianopolis":
		body = floripaPayload
	case "Lages":
		body = lagesPayload
	case "Vazio":
		body = malformedPayload
	case "Broken":
		w.WriteHeader(http.StatusBadGateway)
		return
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (m *mockOWM) setDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

func (m *mockOWM) lastQuery() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queries) == 0 {
		return nil
	}
	return m.queries[len(m.queries)-1]
}

func (m *mockOWM) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = nil
	m.delay = 0
}
