package discovery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistration(t *testing.T) {
	reg := Registration(Options{ServiceName: "chaincapture", Host: "10.0.0.5", Port: 8080, InstanceID: "cc-1"})
	assert.Equal(t, "cc-1", reg.ID)
	assert.Equal(t, "http://10.0.0.5:8080/healthz", reg.Check.HTTP)
}

func TestRegisterAndDeregister(t *testing.T) {
	var registered consulapi.AgentServiceRegistration
	var deregistered string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/agent/service/register":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&registered))
		case strings.HasPrefix(r.URL.Path, "/v1/agent/service/deregister/"):
			deregistered = strings.TrimPrefix(r.URL.Path, "/v1/agent/service/deregister/")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	o := Options{Addr: strings.TrimPrefix(srv.URL, "http://"), ServiceName: "chaincapture", Host: "127.0.0.1", Port: 8080, InstanceID: "cc-1"}
	r, err := NewRegistrar(o, zap.NewNop().Sugar())
	require.NoError(t, err)

	require.NoError(t, r.Register(o))
	assert.Equal(t, "chaincapture", registered.Name)
	require.NoError(t, r.Deregister())
	assert.Equal(t, "cc-1", deregistered)
}
