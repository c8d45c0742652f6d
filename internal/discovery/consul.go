package discovery

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

// Registrar announces this instance to a Consul agent with an HTTP health
// check against /healthz so the gateway can route to it.
type Registrar struct {
	client *consulapi.Client
	id     string
	log    *zap.SugaredLogger
}

type Options struct {
	Addr        string
	ServiceName string
	Host        string
	Port        int
	InstanceID  string
}

func NewRegistrar(o Options, log *zap.SugaredLogger) (*Registrar, error) {
	cfg := consulapi.DefaultConfig()
	cfg.Address = o.Addr
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Registrar{client: client, id: o.InstanceID, log: log}, nil
}

func Registration(o Options) *consulapi.AgentServiceRegistration {
	return &consulapi.AgentServiceRegistration{
		ID:      o.InstanceID,
		Name:    o.ServiceName,
		Address: o.Host,
		Port:    o.Port,
		Tags:    []string{"http", "ipfs", "story"},
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/healthz", o.Host, o.Port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

func (r *Registrar) Register(o Options) error {
	if err := r.client.Agent().ServiceRegister(Registration(o)); err != nil {
		return err
	}
	r.log.Infow("registered with consul", "service", o.ServiceName, "id", o.InstanceID)
	return nil
}

func (r *Registrar) Deregister() error {
	return r.client.Agent().ServiceDeregister(r.id)
}
