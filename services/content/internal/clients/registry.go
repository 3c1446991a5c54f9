// Package clients loads per-client settings (chat, newsletter, brand, report
// recurrence) from a YAML file.
package clients

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"content-engine/pkg/logger"
	"content-engine/services/content/internal/entity"

	"github.com/spf13/viper"
)

type file struct {
	Clients []entity.Client `mapstructure:"clients"`
}

type Registry struct {
	mu      sync.RWMutex
	path    string
	clients map[string]*entity.Client
	order   []string
	logger  *logger.Logger
}

// Load reads path. A missing file yields an empty registry.
func Load(path string, log *logger.Logger) (*Registry, error) {
	r := &Registry{path: path, logger: log, clients: map[string]*entity.Client{}}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// FromClients builds a registry without a backing file.
func FromClients(list ...entity.Client) *Registry {
	r := &Registry{clients: map[string]*entity.Client{}, logger: logger.NewNop()}
	r.set(list)
	return r
}

// Reload re-reads the file; on error the previous contents stay in place.
func (r *Registry) Reload() error {
	if r.path == "" {
		return nil
	}
	if _, err := os.Stat(r.path); errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("[CLIENTS] %s not found, no clients configured", r.path)
		r.set(nil)
		return nil
	}

	v := viper.New()
	v.SetConfigFile(r.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read clients file: %w", err)
	}

	var f file
	if err := v.Unmarshal(&f); err != nil {
		return fmt.Errorf("decode clients file: %w", err)
	}
	for i, c := range f.Clients {
		if c.ID == "" {
			return fmt.Errorf("client #%d has no client_id", i+1)
		}
	}

	r.set(f.Clients)
	r.logger.Info("[CLIENTS] loaded %d clients from %s", len(f.Clients), r.path)
	return nil
}

func (r *Registry) set(list []entity.Client) {
	clients := make(map[string]*entity.Client, len(list))
	order := make([]string, 0, len(list))
	for i := range list {
		c := list[i]
		if _, dup := clients[c.ID]; !dup {
			order = append(order, c.ID)
		}
		clients[c.ID] = &c
	}

	r.mu.Lock()
	r.clients = clients
	r.order = order
	r.mu.Unlock()
}

func (r *Registry) Get(id string) (*entity.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, false
	}
	cp := *c
	return &cp, true
}

// Active returns active clients in file order.
func (r *Registry) Active() []*entity.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Client, 0, len(r.order))
	for _, id := range r.order {
		c := *r.clients[id]
		if c.IsActive() {
			out = append(out, &c)
		}
	}
	return out
}
