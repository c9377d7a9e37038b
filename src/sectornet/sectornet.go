// Package sectornet ties the building blocks together into a runnable node:
// key material, transport, store, routing node and HTTP service, all
// assembled from a single Config.
package sectornet

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/sectornet/routing/src/config"
	"github.com/sectornet/routing/src/crypto/keys"
	"github.com/sectornet/routing/src/net"
	"github.com/sectornet/routing/src/routing"
	"github.com/sectornet/routing/src/service"
	"github.com/sectornet/routing/src/store"
)

// SectorNet is a single assembled node and its collaborators.
type SectorNet struct {
	Config    *config.Config
	Node      *routing.Node
	Transport net.Transport
	Store     store.Store
	Service   *service.Service
}

// NewSectorNet instantiates an engine from a config. Call Init before Run.
func NewSectorNet(conf *config.Config) *SectorNet {
	engine := &SectorNet{
		Config: conf,
	}

	return engine
}

func (s *SectorNet) initKey() error {
	if s.Config.Key == nil {
		keyfile := keys.NewSimpleKeyfile(s.Config.Keyfile())

		privKey, err := keyfile.ReadKey()

		if err != nil {
			s.Config.Logger().Warn("Cannot read private key from file", err)

			privKey, err = Keygen(s.Config.Keyfile())

			if err != nil {
				s.Config.Logger().Error("Cannot generate a new private key", err)

				return err
			}

			s.Config.Logger().Info("Created a new key:", keys.PublicKeyOf(privKey))
		}

		s.Config.Key = privKey
	}
	return nil
}

func (s *SectorNet) initTransport() error {
	transport, err := net.NewTCPTransport(
		s.Config.BindAddr,
		s.Config.AdvertiseAddr,
		s.Config.MaxPool,
		s.Config.TCPTimeout,
		s.Config.Logger(),
	)

	if err != nil {
		return err
	}

	s.Transport = transport

	return nil
}

func (s *SectorNet) initStore() error {
	if !s.Config.Store {
		s.Store = store.NewInmemStore()

		s.Config.Logger().Debug("created new in-mem store")
	} else {
		var err error

		s.Config.Logger().WithField("path", s.Config.DatabaseDir).Debug("Attempting to load or create database")

		s.Store, err = store.NewBadgerStore(s.Config.DatabaseDir)

		if err != nil {
			return err
		}
	}

	return nil
}

func (s *SectorNet) initNode() error {
	s.Node = routing.NewNode(
		s.Config,
		s.Transport,
		s.Store,
		nil,
	)

	if err := s.Node.Init(); err != nil {
		return fmt.Errorf("failed to initialize node: %s", err)
	}

	return nil
}

func (s *SectorNet) initService() error {
	if !s.Config.NoService && s.Config.ServiceAddr != "" {
		s.Service = service.NewService(s.Config.ServiceAddr, s.Node, s.Config.Logger())
	}
	return nil
}

// Init initialises the engine's collaborators in dependency order.
func (s *SectorNet) Init() error {
	if err := s.initKey(); err != nil {
		return err
	}

	if err := s.initTransport(); err != nil {
		return err
	}

	if err := s.initStore(); err != nil {
		return err
	}

	if err := s.initNode(); err != nil {
		return err
	}

	if err := s.initService(); err != nil {
		return err
	}

	return nil
}

// Run starts the HTTP service, if any, and the node's main loop. It blocks
// until the node shuts down.
func (s *SectorNet) Run() {
	if s.Service != nil {
		go s.Service.Serve()
	}

	s.Node.Run()
}

// Keygen generates a fresh private key and saves it to keyfile. It refuses
// to overwrite an existing key.
func Keygen(keyfile string) (*ecdsa.PrivateKey, error) {
	kf := keys.NewSimpleKeyfile(keyfile)

	_, err := kf.ReadKey()

	if err == nil {
		return nil, fmt.Errorf("another key already lives under %s", keyfile)
	}

	privKey, err := keys.GenerateKey()
	if err != nil {
		return nil, err
	}

	if err := kf.WriteKey(privKey); err != nil {
		return nil, err
	}

	return privKey, nil
}
