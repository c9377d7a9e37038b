package service

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sectornet/routing/src/routing"
	"github.com/sectornet/routing/src/section"
)

// Service exposes a read-only HTTP API over a routing node.
type Service struct {
	sync.Mutex

	bindAddress string
	node        *routing.Node
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, n *routing.Node, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

// registerHandlers registers the API handlers with the DefaultServerMux of the
// http package. It is possible that another server in the same process is
// simultaneously using the DefaultServerMux. In which case, the handlers will
// be accessible from both servers. This is usefull when the node is embedded
// in-memory and expected to use the same endpoint (address:port) as the
// application's API.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering API handlers")
	http.HandleFunc("/stats", s.makeHandler(s.GetStats))
	http.HandleFunc("/section", s.makeHandler(s.GetSection))
	http.HandleFunc("/members", s.makeHandler(s.GetMembers))
	http.HandleFunc("/chain", s.makeHandler(s.GetChain))
	http.HandleFunc("/network", s.makeHandler(s.GetNetwork))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Serve calls ListenAndServe. This is a blocking call. It is not necessary to
// call Serve when the node is embedded in-memory and another server has
// already been started with the DefaultServerMux and the same address:port
// combination. Indeed, the API handlers have already been registered when the
// service was instantiated.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving API")

	// Use the DefaultServerMux
	err := http.ListenAndServe(s.bindAddress, nil)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.node.GetStats()

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}

type sectionInfo struct {
	Prefix string            `json:"prefix"`
	Key    string            `json:"key"`
	Elders map[string]string `json:"elders"`
}

func sapInfo(sap *section.SectionAuthorityProvider) sectionInfo {
	info := sectionInfo{
		Prefix: sap.Prefix().String(),
		Key:    sap.SectionKey().Hex(),
		Elders: map[string]string{},
	}
	for name, addr := range sap.Elders() {
		info.Elders[name.Hex()] = addr
	}
	return info
}

// GetSection returns the authority provider of the node's own section.
func (s *Service) GetSection(w http.ResponseWriter, r *http.Request) {
	sap, err := s.node.OurSection()
	if err != nil {
		s.logger.WithError(err).Error("Retrieving section")

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(sapInfo(sap))
}

type memberInfo struct {
	Name  string `json:"name"`
	Addr  string `json:"addr"`
	Age   uint8  `json:"age"`
	State string `json:"state"`
	Role  string `json:"role"`
}

// GetMembers returns the current members of the node's section.
func (s *Service) GetMembers(w http.ResponseWriter, r *http.Request) {
	members := s.node.OurMembers()

	res := []memberInfo{}
	for _, m := range members {
		name := m.Peer.Name()
		res = append(res, memberInfo{
			Name:  name.Hex(),
			Addr:  m.Peer.Addr(),
			Age:   m.Peer.Age(),
			State: m.State.String(),
			Role:  s.node.RoleOf(name).String(),
		})
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(res)
}

// GetChain returns the keys of the section's proof chain, oldest first.
func (s *Service) GetChain(w http.ResponseWriter, r *http.Request) {
	c, err := s.node.SectionChain()
	if err != nil {
		s.logger.WithError(err).Error("Retrieving chain")

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	res := []string{}
	for _, k := range c.Keys() {
		res = append(res, k.Hex())
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(res)
}

// GetNetwork returns the sections the node knows about, its own first.
func (s *Service) GetNetwork(w http.ResponseWriter, r *http.Request) {
	res := []sectionInfo{}
	if sap, err := s.node.OurSection(); err == nil {
		res = append(res, sapInfo(sap))
	}
	for _, sap := range s.node.NeighbourSections() {
		res = append(res, sapInfo(sap))
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(res)
}
